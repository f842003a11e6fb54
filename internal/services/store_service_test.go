package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
	"github.com/apper-canvas/freshcartelevate/internal/repositories/memory"
)

type storeFixture struct {
	svc   StoreService
	cache *memory.InventoryCache
	now   *time.Time
}

func newStoreFixture(t *testing.T, intn func(int) int) storeFixture {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	stores := []Store{
		{ID: 1, Name: "Downtown"},
		{ID: 2, Name: "Mission Bay"},
		{ID: 3, Name: "Sunset"},
		{ID: 4, Name: "Noe Valley"},
	}
	cache := memory.NewInventoryCache(clock)
	svc, err := NewStoreService(StoreServiceDeps{
		Stores:    memory.NewStoreRepository(stores),
		Favorites: memory.NewFavoriteStoreRepository(),
		Inventory: cache,
		Clock:     clock,
		Intn:      intn,
	})
	require.NoError(t, err)
	return storeFixture{svc: svc, cache: cache, now: &now}
}

func fixedIntn(v int) func(int) int {
	return func(int) int { return v }
}

func TestStoreServiceFavoriteLimit(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, fixedIntn(0))

	for _, id := range []int64{1, 2, 3} {
		_, err := f.svc.AddFavorite(ctx, "s", id)
		require.NoError(t, err)
	}
	_, err := f.svc.AddFavorite(ctx, "s", 4)
	assert.ErrorIs(t, err, ErrFavoriteLimitExceeded)

	favorites, err := f.svc.AddFavorite(ctx, "s", 2)
	require.NoError(t, err)
	ids := make([]int64, 0, len(favorites))
	for _, store := range favorites {
		ids = append(ids, store.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

type contendedFavorites struct {
	repositories.FavoriteStoreRepository
}

func (contendedFavorites) Add(context.Context, string, int64, int) (bool, error) {
	return false, repositories.NewConflict("favorites.add", "transaction contention")
}

func TestStoreServiceFavoriteConflictIsNotLimit(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	svc, err := NewStoreService(StoreServiceDeps{
		Stores:    memory.NewStoreRepository([]Store{{ID: 1, Name: "Downtown"}}),
		Favorites: contendedFavorites{memory.NewFavoriteStoreRepository()},
		Inventory: memory.NewInventoryCache(clock),
		Clock:     clock,
	})
	require.NoError(t, err)

	_, err = svc.AddFavorite(context.Background(), "s", 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFavoriteLimitExceeded)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestStoreServiceFavoriteUnknownStoreAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, fixedIntn(0))

	_, err := f.svc.AddFavorite(ctx, "s", 99)
	assert.ErrorIs(t, err, ErrStoreNotFound)

	_, err = f.svc.AddFavorite(ctx, "s", 1)
	require.NoError(t, err)
	favorites, err := f.svc.RemoveFavorite(ctx, "s", 1)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	_, err = f.svc.RemoveFavorite(ctx, "s", 1)
	assert.NoError(t, err)
}

func TestStoreServiceInventoryServesFreshCache(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, fixedIntn(20))

	first, err := f.svc.Inventory(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, first.Stock, 5)
	// base 25, variation 15
	assert.Equal(t, 40, first.Stock[1])

	*f.now = f.now.Add(2 * time.Minute)
	second, err := f.svc.Inventory(ctx, 1, []int64{1, 9})
	require.NoError(t, err)
	assert.Equal(t, first.LastUpdated, second.LastUpdated)
	assert.Contains(t, second.Stock, int64(9))
	assert.Len(t, second.Stock, 6)

	*f.now = f.now.Add(10 * time.Minute)
	third, err := f.svc.Inventory(ctx, 1, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, *f.now, third.LastUpdated)
	assert.Len(t, third.Stock, 1)
}

func TestStoreServiceInventoryStockNeverNegative(t *testing.T) {
	f := newStoreFixture(t, fixedIntn(0))
	inv, err := f.svc.Inventory(context.Background(), 2, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Stock[1])
}

func TestStoreServiceFindBestStore(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, fixedIntn(0))

	_, err := f.svc.FindBestStore(ctx, "s", 5)
	assert.ErrorIs(t, err, ErrNoFavoriteStores)

	for _, id := range []int64{1, 2} {
		_, err := f.svc.AddFavorite(ctx, "s", id)
		require.NoError(t, err)
	}
	now := *f.now
	require.NoError(t, f.cache.Put(ctx, domain.StoreInventory{StoreID: 1, StoreName: "Downtown", Stock: map[int64]int{5: 10}, LastUpdated: now}, time.Minute))
	require.NoError(t, f.cache.Put(ctx, domain.StoreInventory{StoreID: 2, StoreName: "Mission Bay", Stock: map[int64]int{5: 0}, LastUpdated: now}, time.Minute))

	best, err := f.svc.FindBestStore(ctx, "s", 5)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, int64(1), best.Store.ID)
	assert.Equal(t, 10, best.Stock)

	require.NoError(t, f.cache.Put(ctx, domain.StoreInventory{StoreID: 1, Stock: map[int64]int{5: 0}, LastUpdated: now}, time.Minute))
	best, err = f.svc.FindBestStore(ctx, "s", 5)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestStoreServiceMultiStoreInventory(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, fixedIntn(10))

	for _, id := range []int64{3, 1} {
		_, err := f.svc.AddFavorite(ctx, "s", id)
		require.NoError(t, err)
	}
	combined, err := f.svc.MultiStoreInventory(ctx, "s", []int64{7})
	require.NoError(t, err)
	require.Len(t, combined[7], 2)
	assert.Equal(t, int64(1), combined[7][0].StoreID)
	assert.Equal(t, "Sunset", combined[7][1].StoreName)
	assert.True(t, combined[7][0].Available)
}
