package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

const (
	// MaxFavoriteStores caps how many stores a shopper can favorite.
	MaxFavoriteStores     = 3
	defaultInventoryTTL   = 5 * time.Minute
	defaultInventoryCount = 5
)

var (
	errStoreRepositoryRequired    = errors.New("store service: store repository is required")
	errFavoriteRepositoryRequired = errors.New("store service: favorite repository is required")
	errInventoryCacheRequired     = errors.New("store service: inventory cache is required")
	errStoreClockRequired         = errors.New("store service: clock is required")
)

type StoreServiceDeps struct {
	Stores    repositories.StoreRepository
	Favorites repositories.FavoriteStoreRepository
	Inventory repositories.InventoryCache
	CacheTTL  time.Duration
	Clock     func() time.Time
	// Intn returns a value in [0, n). It defaults to a locked math/rand source.
	Intn    func(n int) int
	Metrics Metrics
	Logger  func(context.Context, string, map[string]any)
}

type storeService struct {
	stores    repositories.StoreRepository
	favorites repositories.FavoriteStoreRepository
	cache     repositories.InventoryCache
	ttl       time.Duration
	now       func() time.Time
	intn      func(int) int
	metrics   Metrics
	logger    func(context.Context, string, map[string]any)
}

var _ StoreService = (*storeService)(nil)

func NewStoreService(deps StoreServiceDeps) (StoreService, error) {
	switch {
	case deps.Stores == nil:
		return nil, errStoreRepositoryRequired
	case deps.Favorites == nil:
		return nil, errFavoriteRepositoryRequired
	case deps.Inventory == nil:
		return nil, errInventoryCacheRequired
	case deps.Clock == nil:
		return nil, errStoreClockRequired
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = defaultInventoryTTL
	}
	intn := deps.Intn
	if intn == nil {
		var mu sync.Mutex
		src := rand.New(rand.NewSource(time.Now().UnixNano()))
		intn = func(n int) int {
			mu.Lock()
			defer mu.Unlock()
			return src.Intn(n)
		}
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &storeService{
		stores:    deps.Stores,
		favorites: deps.Favorites,
		cache:     deps.Inventory,
		ttl:       ttl,
		now:       func() time.Time { return deps.Clock().UTC() },
		intn:      intn,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

func (s *storeService) ListStores(ctx context.Context) ([]Store, error) {
	stores, err := s.stores.List(ctx)
	if err != nil {
		return nil, translateRepoError(err, nil)
	}
	return stores, nil
}

func (s *storeService) GetStore(ctx context.Context, storeID int64) (Store, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return Store{}, translateRepoError(err, fmt.Errorf("%w: %d", ErrStoreNotFound, storeID))
	}
	return store, nil
}

// Favorites returns the favorite stores in store list order.
func (s *storeService) Favorites(ctx context.Context, shopperID string) ([]Store, error) {
	ids, err := s.favorites.List(ctx, shopperKey(shopperID))
	if err != nil {
		return nil, translateRepoError(err, nil)
	}
	if len(ids) == 0 {
		return []Store{}, nil
	}
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	stores, err := s.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Store, 0, len(ids))
	for _, store := range stores {
		if _, ok := wanted[store.ID]; ok {
			out = append(out, store)
		}
	}
	return out, nil
}

// AddFavorite is idempotent for a store already held, even at the limit.
func (s *storeService) AddFavorite(ctx context.Context, shopperID string, storeID int64) ([]Store, error) {
	if _, err := s.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	added, err := s.favorites.Add(ctx, shopperKey(shopperID), storeID, MaxFavoriteStores)
	if err != nil {
		if errors.Is(err, repositories.ErrFavoriteLimitReached) {
			return nil, fmt.Errorf("%w: maximum %d favorite stores allowed", ErrFavoriteLimitExceeded, MaxFavoriteStores)
		}
		return nil, translateRepoError(err, nil)
	}
	if added {
		s.logger(ctx, "stores.favorite_added", map[string]any{"storeId": storeID})
	}
	return s.Favorites(ctx, shopperID)
}

func (s *storeService) RemoveFavorite(ctx context.Context, shopperID string, storeID int64) ([]Store, error) {
	if err := s.favorites.Remove(ctx, shopperKey(shopperID), storeID); err != nil {
		return nil, translateRepoError(err, nil)
	}
	return s.Favorites(ctx, shopperID)
}

// Inventory serves the cached stock map while it is fresh. Product ids missing from a
// fresh map are generated and merged without refreshing LastUpdated. A stale or absent
// map is regenerated for the requested ids, or ids 1..5 when none are given.
func (s *storeService) Inventory(ctx context.Context, storeID int64, productIDs []int64) (StoreInventory, error) {
	store, err := s.GetStore(ctx, storeID)
	if err != nil {
		return StoreInventory{}, err
	}
	ids := productIDs
	if len(ids) == 0 {
		ids = make([]int64, defaultInventoryCount)
		for i := range ids {
			ids[i] = int64(i + 1)
		}
	}

	now := s.now()
	cached, ok, err := s.cache.Get(ctx, storeID)
	if err != nil {
		s.logger(ctx, "stores.inventory_cache_failed", map[string]any{"storeId": storeID, "error": err.Error()})
		ok = false
	}
	remaining := s.ttl - now.Sub(cached.LastUpdated)
	if ok && remaining > 0 {
		s.metrics.InventoryLookup(ctx, true)
		if cached.Stock == nil {
			cached.Stock = make(map[int64]int, len(ids))
		}
		missing := false
		for _, id := range ids {
			if _, present := cached.Stock[id]; !present {
				cached.Stock[id] = s.generateStock()
				missing = true
			}
		}
		cached.StoreName = store.Name
		if missing {
			if err := s.cache.Put(ctx, cached, remaining); err != nil {
				s.logger(ctx, "stores.inventory_cache_failed", map[string]any{"storeId": storeID, "error": err.Error()})
			}
		}
		return cached, nil
	}

	s.metrics.InventoryLookup(ctx, false)
	inventory := StoreInventory{
		StoreID:     storeID,
		StoreName:   store.Name,
		Stock:       make(map[int64]int, len(ids)),
		LastUpdated: now,
	}
	for _, id := range ids {
		inventory.Stock[id] = s.generateStock()
	}
	if err := s.cache.Put(ctx, inventory, s.ttl); err != nil {
		s.logger(ctx, "stores.inventory_cache_failed", map[string]any{"storeId": storeID, "error": err.Error()})
	}
	return inventory, nil
}

// MultiStoreInventory reports each product's stock in every favorite store.
func (s *storeService) MultiStoreInventory(ctx context.Context, shopperID string, productIDs []int64) (map[int64][]StoreStock, error) {
	favorites, err := s.Favorites(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	inventories, err := s.inventories(ctx, favorites, productIDs)
	if err != nil {
		return nil, err
	}
	combined := make(map[int64][]StoreStock, len(productIDs))
	for _, productID := range productIDs {
		stocks := make([]StoreStock, 0, len(inventories))
		for _, inv := range inventories {
			stock := inv.Stock[productID]
			stocks = append(stocks, StoreStock{
				StoreID:   inv.StoreID,
				StoreName: inv.StoreName,
				Stock:     stock,
				Available: stock > 0,
			})
		}
		combined[productID] = stocks
	}
	return combined, nil
}

// FindBestStore picks the favorite with the most stock; the first store wins ties.
func (s *storeService) FindBestStore(ctx context.Context, shopperID string, productID int64) (*BestStore, error) {
	favorites, err := s.Favorites(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return nil, ErrNoFavoriteStores
	}
	inventories, err := s.inventories(ctx, favorites, []int64{productID})
	if err != nil {
		return nil, err
	}
	var best *BestStore
	for i, inv := range inventories {
		stock := inv.Stock[productID]
		if stock > 0 && (best == nil || stock > best.Stock) {
			best = &BestStore{Store: favorites[i], Stock: stock}
		}
	}
	return best, nil
}

func (s *storeService) inventories(ctx context.Context, stores []Store, productIDs []int64) ([]StoreInventory, error) {
	results := make([]StoreInventory, len(stores))
	errs := make([]error, len(stores))
	var wg sync.WaitGroup
	for i, store := range stores {
		wg.Add(1)
		go func(i int, storeID int64) {
			defer wg.Done()
			results[i], errs[i] = s.Inventory(ctx, storeID, productIDs)
		}(i, store.ID)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

// generateStock draws a base of 5..54 and a variation of -5..4, floored at zero.
func (s *storeService) generateStock() int {
	base := s.intn(50) + 5
	variation := s.intn(10) - 5
	if stock := base + variation; stock > 0 {
		return stock
	}
	return 0
}
