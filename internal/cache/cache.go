package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/domain"
)

// ProductCache holds read-only copies of catalog records keyed by
// product id. SetBatch applies a whole fetch result as a set; two
// pending batches never interleave for the same id.
type ProductCache interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	SetBatch(ctx context.Context, products []domain.Product) error
	Evict(ctx context.Context, productID string) error
}

var ErrCacheMiss = errors.New("cache miss")
