package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apper-canvas/freshcartelevate/internal/platform/httpx"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

const maxCheckoutBodySize = 16 * 1024

// CheckoutHandlers turns the shopper's cart into an order.
type CheckoutHandlers struct {
	checkout    services.CheckoutService
	idempotency func(http.Handler) http.Handler
}

// NewCheckoutHandlers builds checkout handlers. idempotency, when set, replays the stored
// response for a repeated Idempotency-Key.
func NewCheckoutHandlers(checkout services.CheckoutService, idempotency func(http.Handler) http.Handler) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout, idempotency: idempotency}
}

func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.idempotency != nil {
		r.With(h.idempotency).Post("/", h.placeOrder)
		return
	}
	r.Post("/", h.placeOrder)
}

type checkoutRequest struct {
	SlotID  int            `json:"slot_id"`
	Address addressPayload `json:"delivery_address"`
}

type checkoutResponse struct {
	Order       orderPayload       `json:"order"`
	Reservation reservationPayload `json:"reservation"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		serviceUnavailable(ctx, w, "checkout")
		return
	}

	var req checkoutRequest
	if err := httpx.DecodeJSON(r, maxCheckoutBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	if req.SlotID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "slot_id must be a positive integer", http.StatusBadRequest))
		return
	}

	result, err := h.checkout.Checkout(ctx, services.CheckoutCommand{
		ShopperID: shopperID(r),
		SlotID:    req.SlotID,
		Address:   req.Address.toDomain(),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, checkoutResponse{
		Order:       buildOrderPayload(result.Order),
		Reservation: buildReservationPayload(result.Reservation),
	})
}
