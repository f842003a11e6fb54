package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/platform/httpx"
	"github.com/apper-canvas/freshcartelevate/internal/platform/requestctx"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

const maxProductIDsPerQuery = 100

type errorMapping struct {
	target error
	code   string
	status int
}

var serviceErrorMappings = []errorMapping{
	{services.ErrInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrCartItemNotFound, "cart_item_not_found", http.StatusNotFound},
	{services.ErrOrderNotFound, "order_not_found", http.StatusNotFound},
	{services.ErrProductNotFound, "product_not_found", http.StatusNotFound},
	{services.ErrCategoryNotFound, "category_not_found", http.StatusNotFound},
	{services.ErrPromoNotFound, "promo_not_found", http.StatusNotFound},
	{services.ErrSlotNotFound, "slot_not_found", http.StatusNotFound},
	{services.ErrStoreNotFound, "store_not_found", http.StatusNotFound},
	{services.ErrSlotUnavailable, "slot_unavailable", http.StatusConflict},
	{services.ErrFavoriteLimitExceeded, "favorite_limit_exceeded", http.StatusConflict},
	{services.ErrNoFavoriteStores, "no_favorite_stores", http.StatusConflict},
}

// writeServiceError maps service sentinels onto the error envelope. Backend and storage
// failures are retryable 503s; anything unrecognised is logged and reported as a 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	for _, m := range serviceErrorMappings {
		if errors.Is(err, m.target) {
			apiErr := httpx.NewError(m.code, err.Error(), m.status)
			if errors.Is(err, services.ErrFavoriteLimitExceeded) {
				apiErr = apiErr.WithDetails(map[string]any{"limit": services.MaxFavoriteStores})
			}
			httpx.WriteError(ctx, w, apiErr)
			return
		}
	}

	logger := requestctx.Logger(ctx)
	switch {
	case errors.Is(err, services.ErrCatalogUnavailable):
		logger.Warn("catalog backend unavailable", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "product catalog is temporarily unavailable", http.StatusServiceUnavailable).AsRetryable())
	case errors.Is(err, services.ErrStorageUnavailable):
		logger.Warn("storage unavailable", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("storage_unavailable", "storage is temporarily unavailable", http.StatusServiceUnavailable).AsRetryable())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "request timed out", http.StatusGatewayTimeout).AsRetryable())
	case errors.Is(err, context.Canceled):
		httpx.WriteError(ctx, w, httpx.NewError("request_canceled", "request canceled", http.StatusServiceUnavailable))
	default:
		logger.Error("unhandled service error", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

func serviceUnavailable(ctx context.Context, w http.ResponseWriter, name string) {
	httpx.WriteError(ctx, w, httpx.NewError(name+"_service_unavailable", name+" service unavailable", http.StatusServiceUnavailable))
}

func shopperID(r *http.Request) string {
	return requestctx.ShopperID(r.Context())
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.NewError("invalid_request", name+" must be a positive integer", http.StatusBadRequest)
	}
	return id, nil
}

// productIDsQuery parses a comma separated id list. Blank yields nil.
func productIDsQuery(r *http.Request, name string) ([]int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) > maxProductIDsPerQuery {
		return nil, httpx.NewError("invalid_request", name+" lists too many ids", http.StatusBadRequest)
	}
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, httpx.NewError("invalid_request", name+" must list positive integers", http.StatusBadRequest)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// writeRequestError renders an httpx.Error produced by a parsing helper.
func writeRequestError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr httpx.Error
	if errors.As(err, &apiErr) {
		httpx.WriteError(ctx, w, apiErr)
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
}

type moneyPayload struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

func money(cents int64) moneyPayload {
	return moneyPayload{Cents: cents, Display: domain.FormatCents(cents)}
}

type totalsPayload struct {
	Subtotal    moneyPayload `json:"subtotal"`
	Tax         moneyPayload `json:"tax"`
	DeliveryFee moneyPayload `json:"delivery_fee"`
	Total       moneyPayload `json:"total"`
}

func buildTotalsPayload(t domain.Totals) totalsPayload {
	return totalsPayload{
		Subtotal:    money(t.Subtotal),
		Tax:         money(t.Tax),
		DeliveryFee: money(t.DeliveryFee),
		Total:       money(t.Total),
	}
}

type cartItemPayload struct {
	ProductID int64        `json:"product_id"`
	Name      string       `json:"name"`
	Price     moneyPayload `json:"price"`
	Unit      string       `json:"unit,omitempty"`
	Image     string       `json:"image,omitempty"`
	Quantity  int          `json:"quantity"`
	LineTotal moneyPayload `json:"line_total"`
}

func buildCartItemPayload(item domain.CartItem) cartItemPayload {
	return cartItemPayload{
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     money(item.Price),
		Unit:      item.Unit,
		Image:     item.Image,
		Quantity:  item.Quantity,
		LineTotal: money(item.Price * int64(item.Quantity)),
	}
}

func buildCartItemPayloads(items []domain.CartItem) []cartItemPayload {
	out := make([]cartItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, buildCartItemPayload(item))
	}
	return out
}

type productPayload struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Category      string        `json:"category"`
	CategoryID    *int64        `json:"category_id,omitempty"`
	Price         moneyPayload  `json:"price"`
	Unit          string        `json:"unit"`
	Image         string        `json:"image"`
	InStock       bool          `json:"in_stock"`
	OnSale        bool          `json:"on_sale"`
	OriginalPrice *moneyPayload `json:"original_price,omitempty"`
	Quantity      int           `json:"quantity"`
	Featured      bool          `json:"featured,omitempty"`
}

func buildProductPayload(p domain.Product) productPayload {
	payload := productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		CategoryID:  p.CategoryID,
		Price:       money(p.Price),
		Unit:        p.Unit,
		Image:       p.Image,
		InStock:     p.InStock,
		OnSale:      p.OnSale,
		Quantity:    p.Quantity,
		Featured:    p.Featured,
	}
	if p.OriginalPrice != nil {
		original := money(*p.OriginalPrice)
		payload.OriginalPrice = &original
	}
	return payload
}

func buildProductPayloads(products []domain.Product) []productPayload {
	out := make([]productPayload, 0, len(products))
	for _, p := range products {
		out = append(out, buildProductPayload(p))
	}
	return out
}

type slotPayload struct {
	ID        int    `json:"id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

func buildSlotPayload(s domain.DeliverySlot) slotPayload {
	return slotPayload{ID: s.ID, Date: s.Date, Time: s.Time, Available: s.Available}
}

type reservationPayload struct {
	ReservationID string      `json:"reservation_id"`
	Slot          slotPayload `json:"slot"`
	ReservedAt    string      `json:"reserved_at"`
}

func buildReservationPayload(res domain.SlotReservation) reservationPayload {
	return reservationPayload{
		ReservationID: res.ReservationID,
		Slot:          buildSlotPayload(res.Slot),
		ReservedAt:    formatTime(res.ReservedAt),
	}
}

type addressPayload struct {
	Name         string `json:"name"`
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Phone        string `json:"phone,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

func (a addressPayload) toDomain() domain.DeliveryAddress {
	return domain.DeliveryAddress{
		Name:         strings.TrimSpace(a.Name),
		Street:       strings.TrimSpace(a.Street),
		City:         strings.TrimSpace(a.City),
		State:        strings.TrimSpace(a.State),
		ZipCode:      strings.TrimSpace(a.ZipCode),
		Phone:        strings.TrimSpace(a.Phone),
		Instructions: strings.TrimSpace(a.Instructions),
	}
}

func buildAddressPayload(a domain.DeliveryAddress) addressPayload {
	return addressPayload{
		Name:         a.Name,
		Street:       a.Street,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
		Phone:        a.Phone,
		Instructions: a.Instructions,
	}
}

type orderPayload struct {
	ID              int64             `json:"id"`
	Items           []cartItemPayload `json:"items"`
	Totals          totalsPayload     `json:"totals"`
	DeliverySlot    *slotPayload      `json:"delivery_slot,omitempty"`
	DeliveryAddress *addressPayload   `json:"delivery_address,omitempty"`
	Status          string            `json:"status"`
	CreatedAt       string            `json:"created_at"`
}

func buildOrderPayload(o domain.Order) orderPayload {
	payload := orderPayload{
		ID:        o.ID,
		Items:     buildCartItemPayloads(o.Items),
		Totals:    buildTotalsPayload(o.Totals),
		Status:    string(o.Status),
		CreatedAt: formatTime(o.CreatedAt),
	}
	if o.DeliverySlot != nil {
		slot := buildSlotPayload(*o.DeliverySlot)
		payload.DeliverySlot = &slot
	}
	if o.DeliveryAddress != nil {
		addr := buildAddressPayload(*o.DeliveryAddress)
		payload.DeliveryAddress = &addr
	}
	return payload
}

func buildOrderPayloads(orders []domain.Order) []orderPayload {
	out := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		out = append(out, buildOrderPayload(o))
	}
	return out
}

type storePayload struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Distance       float64 `json:"distance"`
	Hours          string  `json:"hours"`
	IsOpen         bool    `json:"is_open"`
	InventoryCount int     `json:"inventory_count"`
}

func buildStorePayload(s domain.Store) storePayload {
	return storePayload{
		ID:             s.ID,
		Name:           s.Name,
		Address:        s.Address,
		Distance:       s.Distance,
		Hours:          s.Hours,
		IsOpen:         s.IsOpen,
		InventoryCount: s.InventoryCount,
	}
}

func buildStorePayloads(stores []domain.Store) []storePayload {
	out := make([]storePayload, 0, len(stores))
	for _, s := range stores {
		out = append(out, buildStorePayload(s))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
