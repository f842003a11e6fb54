package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/apper-canvas/freshcartelevate/internal/platform/backend"
	"github.com/apper-canvas/freshcartelevate/internal/platform/config"
	pfirestore "github.com/apper-canvas/freshcartelevate/internal/platform/firestore"
	"github.com/apper-canvas/freshcartelevate/internal/platform/idempotency"
	"github.com/apper-canvas/freshcartelevate/internal/platform/observability"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
	backendrepo "github.com/apper-canvas/freshcartelevate/internal/repositories/backend"
	firestorerepo "github.com/apper-canvas/freshcartelevate/internal/repositories/firestore"
	"github.com/apper-canvas/freshcartelevate/internal/repositories/memory"
	redisrepo "github.com/apper-canvas/freshcartelevate/internal/repositories/redis"
)

// Registry holds the repositories selected by configuration together with the clients
// backing them. It satisfies repositories.Registry.
type Registry struct {
	carts     repositories.CartRepository
	orders    repositories.OrderRepository
	favorites repositories.FavoriteStoreRepository
	stores    repositories.StoreRepository
	inventory repositories.InventoryCache
	catalog   repositories.CatalogRepository
	health    repositories.HealthRepository

	idempotency idempotency.Store

	firestore *pfirestore.Provider
	redis     *goredis.Client
}

var _ repositories.Registry = (*Registry)(nil)

// RegistryDeps carries the ambient collaborators used while building repositories.
type RegistryDeps struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Clock   func() time.Time
}

// NewRegistry selects storage, catalog and cache implementations from cfg:
//   - Storage.Driver picks memory or Firestore for carts, orders and favorite stores.
//   - Backend.BaseURL enables the remote catalog; otherwise the embedded seed catalog is served.
//   - Redis.URL enables the shared inventory cache and idempotency store.
func NewRegistry(ctx context.Context, cfg config.Config, deps RegistryDeps) (*Registry, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	reg := &Registry{}
	var checks []repositories.DependencyCheck

	switch cfg.Storage.Driver {
	case config.StorageDriverFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		if _, err := provider.Client(ctx); err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		reg.firestore = provider

		carts, err := firestorerepo.NewCartRepository(provider, clock)
		if err != nil {
			return nil, reg.abort(ctx, fmt.Errorf("firestore cart repository: %w", err))
		}
		orders, err := firestorerepo.NewOrderRepository(provider)
		if err != nil {
			return nil, reg.abort(ctx, fmt.Errorf("firestore order repository: %w", err))
		}
		favorites, err := firestorerepo.NewFavoriteStoreRepository(provider, clock)
		if err != nil {
			return nil, reg.abort(ctx, fmt.Errorf("firestore favorite repository: %w", err))
		}
		store, err := idempotency.NewFirestoreStore(provider)
		if err != nil {
			return nil, reg.abort(ctx, fmt.Errorf("firestore idempotency store: %w", err))
		}
		reg.carts, reg.orders, reg.favorites, reg.idempotency = carts, orders, favorites, store
		checks = append(checks, repositories.DependencyCheck{Name: "firestore", Check: provider.Ping})
	default:
		reg.carts = memory.NewCartRepository()
		reg.orders = memory.NewOrderRepository()
		reg.favorites = memory.NewFavoriteStoreRepository()
	}

	seededStores, err := memory.SeedStores()
	if err != nil {
		return nil, reg.abort(ctx, fmt.Errorf("seed stores: %w", err))
	}
	reg.stores = memory.NewStoreRepository(seededStores)

	if cfg.Backend.BaseURL != "" {
		var observer backend.Observer
		if deps.Metrics != nil {
			observer = deps.Metrics.BackendCall
		}
		client, err := backend.NewClient(backend.Config{
			BaseURL:    cfg.Backend.BaseURL,
			ProjectID:  cfg.Backend.ProjectID,
			PublicKey:  cfg.Backend.PublicKey,
			Timeout:    cfg.Backend.Timeout,
			MaxRetries: cfg.Backend.MaxRetries,
			Observer:   observer,
		})
		if err != nil {
			return nil, reg.abort(ctx, err)
		}
		catalog, err := backendrepo.NewCatalogRepository(client, observability.EventLogger(logger.Named("backend")))
		if err != nil {
			return nil, reg.abort(ctx, err)
		}
		reg.catalog = catalog
		checks = append(checks, repositories.DependencyCheck{Name: "backend", Timeout: 3 * time.Second, Check: client.Ping})
	} else {
		catalog, err := memory.NewSeededCatalogRepository()
		if err != nil {
			return nil, reg.abort(ctx, fmt.Errorf("seed catalog: %w", err))
		}
		reg.catalog = catalog
	}

	if cfg.Redis.URL != "" {
		opts, err := goredis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, reg.abort(ctx, fmt.Errorf("redis url: %w", err))
		}
		client := goredis.NewClient(opts)
		reg.redis = client

		cache, err := redisrepo.NewInventoryCache(client)
		if err != nil {
			return nil, reg.abort(ctx, err)
		}
		reg.inventory = cache
		if reg.idempotency == nil {
			store, err := idempotency.NewRedisStore(client)
			if err != nil {
				return nil, reg.abort(ctx, err)
			}
			reg.idempotency = store
		}
		checks = append(checks, repositories.DependencyCheck{Name: "redis", Check: cache.Ping})
	} else {
		reg.inventory = memory.NewInventoryCache(clock)
	}

	if reg.idempotency == nil {
		reg.idempotency = idempotency.NewMemoryStore()
	}

	health, err := repositories.NewDependencyHealthRepository(checks, clock)
	if err != nil {
		return nil, reg.abort(ctx, err)
	}
	reg.health = health

	logger.Info("repositories configured",
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("remote_catalog", cfg.Backend.BaseURL != ""),
		zap.Bool("redis", reg.redis != nil),
	)
	return reg, nil
}

func (r *Registry) Carts() repositories.CartRepository              { return r.carts }
func (r *Registry) Orders() repositories.OrderRepository            { return r.orders }
func (r *Registry) Favorites() repositories.FavoriteStoreRepository { return r.favorites }
func (r *Registry) Stores() repositories.StoreRepository            { return r.stores }
func (r *Registry) Inventory() repositories.InventoryCache          { return r.inventory }
func (r *Registry) Catalog() repositories.CatalogRepository         { return r.catalog }
func (r *Registry) Health() repositories.HealthRepository           { return r.health }
func (r *Registry) IdempotencyStore() idempotency.Store             { return r.idempotency }

// Close releases the Firestore and Redis clients.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.firestore != nil {
		if err := r.firestore.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close firestore: %w", err))
		}
	}
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) abort(ctx context.Context, err error) error {
	if closeErr := r.Close(ctx); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}
