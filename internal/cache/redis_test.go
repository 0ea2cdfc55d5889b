package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client), mr
}

func TestRedisGet_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	product := domain.Product{
		ID:    "p1",
		Name:  "Widget",
		Price: decimal.RequireFromString("9.99"),
		Image: "https://example.com/widget.png",
	}
	data, _ := json.Marshal(product)
	mr.Set(cacheKey("p1"), string(data))

	result, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", result.Name)
	assert.True(t, result.Price.Equal(product.Price))
}

func TestRedisGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestRedisGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	mr.Set(cacheKey("p1"), "not json")

	result, err := cache.Get(context.Background(), "p1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestRedisSetBatch_AllEntriesApplied(t *testing.T) {
	cache, _ := setupTestRedis(t)
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
	}
}

func TestRedisEvict(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.SetBatch(ctx, []domain.Product{
		{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("9.99")},
	}))
	require.NoError(t, cache.Evict(ctx, "p1"))

	_, err := cache.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
