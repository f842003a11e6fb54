package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

func newTestCache(t *testing.T) (*InventoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache, err := NewInventoryCache(client)
	require.NoError(t, err)
	return cache, mr
}

func TestInventoryCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	updated := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

	err := cache.Put(ctx, domain.StoreInventory{
		StoreID:     2,
		StoreName:   "FreshCart Mission Bay",
		Stock:       map[int64]int{1: 12, 5: 0},
		LastUpdated: updated,
	}, 5*time.Minute)
	require.NoError(t, err)

	inv, ok, err := cache.Get(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "FreshCart Mission Bay", inv.StoreName)
	assert.Equal(t, map[int64]int{1: 12, 5: 0}, inv.Stock)
	assert.True(t, inv.LastUpdated.Equal(updated))
}

func TestInventoryCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, domain.StoreInventory{StoreID: 1, Stock: map[int64]int{1: 3}}, 5*time.Minute))
	mr.FastForward(5 * time.Minute)

	_, ok, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInventoryCacheMissAndCorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set(inventoryKey(7), "not-json"))
	_, ok, err = cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInventoryCacheUnavailable(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	_, _, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
}
