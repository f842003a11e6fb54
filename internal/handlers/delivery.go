package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apper-canvas/freshcartelevate/internal/platform/httpx"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

const maxReservationBodySize = 4 * 1024

// DeliveryHandlers serves delivery slots and reservations.
type DeliveryHandlers struct {
	delivery services.DeliveryService
}

func NewDeliveryHandlers(delivery services.DeliveryService) *DeliveryHandlers {
	return &DeliveryHandlers{delivery: delivery}
}

func (h *DeliveryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/slots", h.listSlots)
	r.Get("/slots/{slotId}", h.getSlot)
	r.Post("/reservations", h.reserve)
}

// listSlots returns every slot for the coming week, or a single day with ?date=YYYY-MM-DD.
func (h *DeliveryHandlers) listSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.delivery == nil {
		serviceUnavailable(ctx, w, "delivery")
		return
	}

	var (
		slots []services.DeliverySlot
		err   error
	)
	if date := strings.TrimSpace(r.URL.Query().Get("date")); date != "" {
		slots, err = h.delivery.SlotsByDate(ctx, date)
	} else {
		slots, err = h.delivery.AvailableSlots(ctx)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]slotPayload, 0, len(slots))
	for _, slot := range slots {
		payload = append(payload, buildSlotPayload(slot))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"slots": payload})
}

func (h *DeliveryHandlers) getSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.delivery == nil {
		serviceUnavailable(ctx, w, "delivery")
		return
	}
	slotID, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "slotId")))
	if err != nil || slotID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "slotId must be a positive integer", http.StatusBadRequest))
		return
	}
	slot, err := h.delivery.SlotByID(ctx, slotID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"slot": buildSlotPayload(slot)})
}

type reserveRequest struct {
	SlotID int `json:"slot_id"`
}

// reserve looks the slot up server side so availability cannot be forged by the client.
func (h *DeliveryHandlers) reserve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.delivery == nil {
		serviceUnavailable(ctx, w, "delivery")
		return
	}
	var req reserveRequest
	if err := httpx.DecodeJSON(r, maxReservationBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	if req.SlotID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "slot_id must be a positive integer", http.StatusBadRequest))
		return
	}

	slot, err := h.delivery.SlotByID(ctx, req.SlotID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	reservation, err := h.delivery.Reserve(ctx, slot)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"reservation": buildReservationPayload(reservation)})
}
