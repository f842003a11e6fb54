package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/platform/httpx"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

const (
	maxOrderBodySize = 64 * 1024
	maxRecentOrders  = 50
)

// OrderHandlers exposes the shopper's order history.
type OrderHandlers struct {
	orders      services.OrderService
	idempotency func(http.Handler) http.Handler
}

// NewOrderHandlers builds order handlers. idempotency, when set, guards order creation.
func NewOrderHandlers(orders services.OrderService, idempotency func(http.Handler) http.Handler) *OrderHandlers {
	return &OrderHandlers{orders: orders, idempotency: idempotency}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listOrders)
	if h.idempotency != nil {
		r.With(h.idempotency).Post("/", h.createOrder)
	} else {
		r.Post("/", h.createOrder)
	}
	r.Get("/recent", h.recentOrders)
	r.Get("/reorder-suggestions", h.reorderSuggestions)
	r.Get("/{orderId}", h.getOrder)
	r.Patch("/{orderId}", h.patchOrder)
	r.Delete("/{orderId}", h.deleteOrder)
	r.Put("/{orderId}/status", h.updateStatus)
	r.Get("/{orderId}/tracking", h.tracking)
}

type orderItemRequest struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price_cents"`
	Unit      string `json:"unit"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
}

type slotRequest struct {
	ID        int    `json:"id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	DeliverySlot    *slotRequest       `json:"delivery_slot"`
	DeliveryAddress *addressPayload    `json:"delivery_address"`
	Status          string             `json:"status"`
}

type patchOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	DeliverySlot    *slotRequest       `json:"delivery_slot"`
	DeliveryAddress *addressPayload    `json:"delivery_address"`
	Status          *string            `json:"status"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func toCartItems(items []orderItemRequest) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.CartItem{
			ProductID: item.ProductID,
			Name:      strings.TrimSpace(item.Name),
			Price:     item.Price,
			Unit:      strings.TrimSpace(item.Unit),
			Image:     strings.TrimSpace(item.Image),
			Quantity:  item.Quantity,
		})
	}
	return out
}

func (s *slotRequest) toDomain() *domain.DeliverySlot {
	if s == nil {
		return nil
	}
	return &domain.DeliverySlot{ID: s.ID, Date: strings.TrimSpace(s.Date), Time: strings.TrimSpace(s.Time), Available: s.Available}
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	orders, err := h.orders.List(ctx, shopperID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": buildOrderPayloads(orders)})
}

func (h *OrderHandlers) recentOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxRecentOrders {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be between 1 and 50", http.StatusBadRequest))
			return
		}
		limit = parsed
	}
	orders, err := h.orders.Recent(ctx, shopperID(r), limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": buildOrderPayloads(orders)})
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, maxOrderBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	if len(req.Items) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "items are required", http.StatusBadRequest))
		return
	}

	cmd := services.CreateOrderCommand{
		Items:        toCartItems(req.Items),
		DeliverySlot: req.DeliverySlot.toDomain(),
		Status:       domain.OrderStatus(strings.TrimSpace(req.Status)),
	}
	if req.DeliveryAddress != nil {
		addr := req.DeliveryAddress.toDomain()
		cmd.DeliveryAddress = &addr
	}

	order, err := h.orders.Create(ctx, shopperID(r), cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"order": buildOrderPayload(order)})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	orderID, err := int64Param(r, "orderId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	order, err := h.orders.Get(ctx, shopperID(r), orderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": buildOrderPayload(order)})
}

// patchOrder merges the supplied fields. Replacing items recomputes the totals.
func (h *OrderHandlers) patchOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	orderID, err := int64Param(r, "orderId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	var req patchOrderRequest
	if err := httpx.DecodeJSON(r, maxOrderBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}

	patch := domain.OrderPatch{DeliverySlot: req.DeliverySlot.toDomain()}
	if req.Items != nil {
		patch.Items = toCartItems(req.Items)
		totals := domain.ComputeTotals(patch.Items)
		patch.Totals = &totals
	}
	if req.DeliveryAddress != nil {
		addr := req.DeliveryAddress.toDomain()
		patch.DeliveryAddress = &addr
	}
	if req.Status != nil {
		status := domain.OrderStatus(strings.TrimSpace(*req.Status))
		if status == "" {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status must not be blank", http.StatusBadRequest))
			return
		}
		patch.Status = &status
	}

	order, err := h.orders.Update(ctx, shopperID(r), orderID, patch)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": buildOrderPayload(order)})
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	orderID, err := int64Param(r, "orderId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, maxOrderBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	order, err := h.orders.UpdateStatus(ctx, shopperID(r), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": buildOrderPayload(order)})
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	orderID, err := int64Param(r, "orderId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	if _, err := h.orders.Delete(ctx, shopperID(r), orderID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type trackingEventPayload struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Location  string `json:"location,omitempty"`
}

type trackingPayload struct {
	Order            orderPayload           `json:"order"`
	StepIndex        int                    `json:"step_index"`
	EstimatedArrival string                 `json:"estimated_arrival,omitempty"`
	Events           []trackingEventPayload `json:"events"`
}

func (h *OrderHandlers) tracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	orderID, err := int64Param(r, "orderId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	tracking, err := h.orders.Tracking(ctx, shopperID(r), orderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := trackingPayload{
		Order:     buildOrderPayload(tracking.Order),
		StepIndex: tracking.StepIndex,
		Events:    make([]trackingEventPayload, 0, len(tracking.Events)),
	}
	if tracking.EstimatedArrival != nil {
		payload.EstimatedArrival = formatTime(*tracking.EstimatedArrival)
	}
	for _, event := range tracking.Events {
		payload.Events = append(payload.Events, trackingEventPayload{
			Status:    string(event.Status),
			Timestamp: formatTime(event.Timestamp),
			Message:   event.Message,
			Location:  event.Location,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

func (h *OrderHandlers) reorderSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		serviceUnavailable(ctx, w, "order")
		return
	}
	products, err := h.orders.QuickReorder(ctx, shopperID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": buildProductPayloads(products)})
}
