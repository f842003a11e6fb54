package repositories

import (
	"context"
	"time"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Carts() CartRepository
	Orders() OrderRepository
	Favorites() FavoriteStoreRepository
	Stores() StoreRepository
	Inventory() InventoryCache
	Catalog() CatalogRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartMutation receives the current cart snapshot and returns the snapshot to persist.
// Returning an error aborts the mutation without writing.
type CartMutation func(items []domain.CartItem) ([]domain.CartItem, error)

// CartRepository owns each shopper's cart. Mutate is atomic per shopper.
type CartRepository interface {
	Get(ctx context.Context, shopperID string) ([]domain.CartItem, error)
	Mutate(ctx context.Context, shopperID string, fn CartMutation) ([]domain.CartItem, error)
}

// OrderRepository owns each shopper's order history, newest first.
type OrderRepository interface {
	List(ctx context.Context, shopperID string) ([]domain.Order, error)
	FindByID(ctx context.Context, shopperID string, orderID int64) (domain.Order, error)
	// Insert assigns ID = max existing ID + 1 atomically and prepends the order.
	Insert(ctx context.Context, shopperID string, order domain.Order) (domain.Order, error)
	Update(ctx context.Context, shopperID string, orderID int64, fn func(*domain.Order) error) (domain.Order, error)
	Delete(ctx context.Context, shopperID string, orderID int64) (domain.Order, error)
}

// FavoriteStoreRepository owns each shopper's favorite store ids in insertion order.
type FavoriteStoreRepository interface {
	List(ctx context.Context, shopperID string) ([]int64, error)
	// Add inserts storeID unless present. It fails with a conflict wrapping
	// ErrFavoriteLimitReached when the shopper already holds limit favorites. The returned bool reports whether a write happened.
	Add(ctx context.Context, shopperID string, storeID int64, limit int) (bool, error)
	Remove(ctx context.Context, shopperID string, storeID int64) error
}

type StoreRepository interface {
	List(ctx context.Context) ([]domain.Store, error)
	FindByID(ctx context.Context, storeID int64) (domain.Store, error)
}

// InventoryCache stores generated per-store stock maps. An entry is reported missing once
// the ttl passed to Put has elapsed since the Put call.
type InventoryCache interface {
	Get(ctx context.Context, storeID int64) (domain.StoreInventory, bool, error)
	Put(ctx context.Context, inventory domain.StoreInventory, ttl time.Duration) error
}

// CatalogRepository reads and writes catalog records.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
	CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, productID int64, input domain.ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID int64) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, categoryID int64) (domain.Category, error)
	CreateCategory(ctx context.Context, input domain.CategoryInput) (domain.Category, error)
	UpdateCategory(ctx context.Context, categoryID int64, input domain.CategoryInput) (domain.Category, error)
	DeleteCategory(ctx context.Context, categoryID int64) error

	ListPromos(ctx context.Context) ([]domain.PromoBanner, error)
	GetPromo(ctx context.Context, promoID int64) (domain.PromoBanner, error)
}

// HealthRepository collects dependency probes for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}
