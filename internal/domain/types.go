package domain

import "time"

// GuestShopperID scopes collections when requests are not authenticated.
const GuestShopperID = "guest"

// Product is the normalised catalog entry served to the storefront. Prices are in cents.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Category      string
	CategoryID    *int64
	Price         int64
	Unit          string
	Image         string
	InStock       bool
	OnSale        bool
	OriginalPrice *int64
	Quantity      int
	Discount      int64
	Featured      bool
}

// ProductInput carries the writable product fields sent to the record backend.
type ProductInput struct {
	Name        string
	Description string
	CategoryID  *int64
	Price       int64
	Unit        string
	Image       string
	Quantity    int
	Discount    int64
	Featured    bool
}

type Category struct {
	ID       int64
	Name     string
	ImageURL string
}

type CategoryInput struct {
	Name     string
	ImageURL string
}

// PromoBanner is a storefront banner. Priority follows backend ordering, starting at 1.
type PromoBanner struct {
	ID          int64
	Title       string
	Subtitle    string
	Description string
	ImageURL    string
	CTAText     string
	CTALink     string
	IsActive    bool
	Priority    int
}

// CartItem is a product snapshot held in a cart, keyed by ProductID.
type CartItem struct {
	ProductID int64
	Name      string
	Price     int64
	Unit      string
	Image     string
	Quantity  int
}

// OrderStatus is an open set; any string is accepted on update.
type OrderStatus string

const (
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Order is a placed order. Items are snapshots taken at checkout and never re-priced.
type Order struct {
	ID              int64
	Items           []CartItem
	Totals          Totals
	DeliverySlot    *DeliverySlot
	DeliveryAddress *DeliveryAddress
	Status          OrderStatus
	CreatedAt       time.Time
}

// OrderPatch holds the fields a merge update may replace. Nil fields are left unchanged.
type OrderPatch struct {
	Items           []CartItem
	Totals          *Totals
	DeliverySlot    *DeliverySlot
	DeliveryAddress *DeliveryAddress
	Status          *OrderStatus
}

type DeliveryAddress struct {
	Name         string
	Street       string
	City         string
	State        string
	ZipCode      string
	Phone        string
	Instructions string
}

// DeliverySlot is a bookable window. Date is YYYY-MM-DD and Time is HH:MM (24h).
type DeliverySlot struct {
	ID        int
	Date      string
	Time      string
	Available bool
}

type SlotReservation struct {
	ReservationID string
	Slot          DeliverySlot
	ReservedAt    time.Time
}

type Store struct {
	ID             int64
	Name           string
	Address        string
	Distance       float64
	Hours          string
	IsOpen         bool
	InventoryCount int
}

// StoreInventory is a per-store stock snapshot for a set of products.
type StoreInventory struct {
	StoreID     int64
	StoreName   string
	Stock       map[int64]int
	LastUpdated time.Time
}

// StoreStock is one store's stock for a single product.
type StoreStock struct {
	StoreID   int64
	StoreName string
	Stock     int
	Available bool
}

// BestStore is the favorite store holding the most stock of a product.
type BestStore struct {
	Store Store
	Stock int
}

// TrackingEvent is one synthetic step of an order's delivery timeline.
type TrackingEvent struct {
	Status    OrderStatus
	Timestamp time.Time
	Message   string
	Location  string
}

type OrderTracking struct {
	Order            Order
	StepIndex        int
	EstimatedArrival *time.Time
	Events           []TrackingEvent
}
