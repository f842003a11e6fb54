package services

import (
	"context"
	"time"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product         = domain.Product
	ProductInput    = domain.ProductInput
	Category        = domain.Category
	CategoryInput   = domain.CategoryInput
	PromoBanner     = domain.PromoBanner
	CartItem        = domain.CartItem
	Order           = domain.Order
	OrderPatch      = domain.OrderPatch
	OrderStatus     = domain.OrderStatus
	OrderTracking   = domain.OrderTracking
	Totals          = domain.Totals
	DeliverySlot    = domain.DeliverySlot
	DeliveryAddress = domain.DeliveryAddress
	SlotReservation = domain.SlotReservation
	Store           = domain.Store
	StoreInventory  = domain.StoreInventory
	StoreStock      = domain.StoreStock
	BestStore       = domain.BestStore
	HealthReport    = domain.HealthReport
)

// CartService manages each shopper's cart.
type CartService interface {
	Items(ctx context.Context, shopperID string) ([]CartItem, error)
	// Add merges by product id, summing quantities. A zero quantity adds one.
	Add(ctx context.Context, shopperID string, item CartItem) ([]CartItem, error)
	// UpdateQuantity sets an absolute quantity; zero or less removes the line.
	UpdateQuantity(ctx context.Context, shopperID string, productID int64, quantity int) ([]CartItem, error)
	Remove(ctx context.Context, shopperID string, productID int64) (CartItem, error)
	Clear(ctx context.Context, shopperID string) error
	Count(ctx context.Context, shopperID string) (int, error)
	Total(ctx context.Context, shopperID string) (int64, error)
	Summary(ctx context.Context, shopperID string) (CartSummary, error)
}

// CartSummary is the cart with its derived checkout amounts.
type CartSummary struct {
	Items  []CartItem
	Count  int
	Totals Totals
}

// OrderService manages order history, tracking and reorder suggestions.
type OrderService interface {
	Create(ctx context.Context, shopperID string, cmd CreateOrderCommand) (Order, error)
	List(ctx context.Context, shopperID string) ([]Order, error)
	Recent(ctx context.Context, shopperID string, limit int) ([]Order, error)
	Get(ctx context.Context, shopperID string, orderID int64) (Order, error)
	Update(ctx context.Context, shopperID string, orderID int64, patch OrderPatch) (Order, error)
	UpdateStatus(ctx context.Context, shopperID string, orderID int64, status OrderStatus) (Order, error)
	Delete(ctx context.Context, shopperID string, orderID int64) (Order, error)
	Tracking(ctx context.Context, shopperID string, orderID int64) (OrderTracking, error)
	QuickReorder(ctx context.Context, shopperID string) ([]Product, error)
}

// CreateOrderCommand is the order data supplied by the caller. Totals are derived from the
// items when omitted and status defaults to confirmed.
type CreateOrderCommand struct {
	Items           []CartItem
	Totals          *Totals
	DeliverySlot    *DeliverySlot
	DeliveryAddress *DeliveryAddress
	Status          OrderStatus
}

// CheckoutService turns a shopper's cart into a placed order.
type CheckoutService interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
}

type CheckoutCommand struct {
	ShopperID string
	SlotID    int
	Address   DeliveryAddress
}

type CheckoutResult struct {
	Order       Order
	Reservation SlotReservation
}

// CatalogService reads and edits the product catalog, categories and promo banners.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, productID int64) (Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]Product, error)
	Search(ctx context.Context, query string) ([]Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, productID int64, input ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, productID int64) error

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, categoryID int64) (Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, categoryID int64, input CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, categoryID int64) error

	ListPromos(ctx context.Context) ([]PromoBanner, error)
	ActivePromos(ctx context.Context) ([]PromoBanner, error)
	GetPromo(ctx context.Context, promoID int64) (PromoBanner, error)

	// Recommendations suggests products for the cart. It degrades to an empty list.
	Recommendations(ctx context.Context, cart []CartItem) ([]Product, error)
}

// DeliveryService generates delivery slots and reserves them.
type DeliveryService interface {
	AvailableSlots(ctx context.Context) ([]DeliverySlot, error)
	SlotByID(ctx context.Context, slotID int) (DeliverySlot, error)
	SlotsByDate(ctx context.Context, date string) ([]DeliverySlot, error)
	Reserve(ctx context.Context, slot DeliverySlot) (SlotReservation, error)
}

// StoreService lists stores, manages favorites and reports per-store inventory.
type StoreService interface {
	ListStores(ctx context.Context) ([]Store, error)
	GetStore(ctx context.Context, storeID int64) (Store, error)
	Favorites(ctx context.Context, shopperID string) ([]Store, error)
	AddFavorite(ctx context.Context, shopperID string, storeID int64) ([]Store, error)
	RemoveFavorite(ctx context.Context, shopperID string, storeID int64) ([]Store, error)
	Inventory(ctx context.Context, storeID int64, productIDs []int64) (StoreInventory, error)
	MultiStoreInventory(ctx context.Context, shopperID string, productIDs []int64) (map[int64][]StoreStock, error)
	// FindBestStore returns nil when no favorite store has stock.
	FindBestStore(ctx context.Context, shopperID string, productID int64) (*BestStore, error)
}

// SystemService reports service health.
type SystemService interface {
	HealthReport(ctx context.Context) (HealthReport, error)
}

// OrderEventPublisher fans order lifecycle events out to other systems.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) (string, error)
}

const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_changed"
	OrderEventDeleted       = "order.deleted"
)

// OrderEvent is the payload published on every order mutation.
type OrderEvent struct {
	EventID        string      `json:"eventId"`
	Type           string      `json:"type"`
	ShopperID      string      `json:"shopperId"`
	OrderID        int64       `json:"orderId"`
	Status         OrderStatus `json:"status,omitempty"`
	PreviousStatus OrderStatus `json:"previousStatus,omitempty"`
	Total          int64       `json:"total"`
	OccurredAt     time.Time   `json:"occurredAt"`
}

// Metrics receives counters from services. *observability.Metrics satisfies it.
type Metrics interface {
	CartMutation(ctx context.Context, op string)
	OrderCreated(ctx context.Context, source string)
	InventoryLookup(ctx context.Context, cacheHit bool)
}

type noopMetrics struct{}

func (noopMetrics) CartMutation(context.Context, string)  {}
func (noopMetrics) OrderCreated(context.Context, string)  {}
func (noopMetrics) InventoryLookup(context.Context, bool) {}
