package cache

import (
	"context"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
)

// MemoryCache is the default single-process product cache.
type MemoryCache struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{products: make(map[string]domain.Product)}
}

func (c *MemoryCache) Get(_ context.Context, productID string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	product, ok := c.products[productID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &product, nil
}

func (c *MemoryCache) SetBatch(_ context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range products {
		c.products[p.ID] = p
	}
	return nil
}

func (c *MemoryCache) Evict(_ context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, productID)
	return nil
}
