package cache

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
)

func TestMemoryGet_CacheMiss(t *testing.T) {
	cache := NewMemoryCache()

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestMemorySetBatch_AllEntriesApplied(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	products := []domain.Product{
		{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("9.99")},
		{ID: "p2", Name: "Gadget", Price: decimal.RequireFromString("24.50")},
	}
	require.NoError(t, cache.SetBatch(ctx, products))

	for _, p := range products {
		got, err := cache.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
		assert.True(t, got.Price.Equal(p.Price))
	}
}

func TestMemoryGet_ReturnsCopy(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.SetBatch(ctx, []domain.Product{
		{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("9.99")},
	}))

	got, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", again.Name)
}

func TestMemoryEvict(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.SetBatch(ctx, []domain.Product{
		{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("9.99")},
	}))
	require.NoError(t, cache.Evict(ctx, "p1"))

	_, err := cache.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// evicting an absent id is a no-op
	assert.NoError(t, cache.Evict(ctx, "p1"))
}
