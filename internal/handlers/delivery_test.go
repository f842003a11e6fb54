package handlers

import (
	"net/http"
	"testing"
)

func TestDeliveryHandlersListSlots(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	rr := doJSON(t, router, http.MethodGet, "/api/v1/delivery/slots", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Slots []slotPayload `json:"slots"`
	}
	decodeBody(t, rr, &body)
	if len(body.Slots) != 35 {
		t.Fatalf("expected 35 slots, got %d", len(body.Slots))
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/delivery/slots?date=2024-05-02", nil)
	decodeBody(t, rr, &body)
	if len(body.Slots) != 5 || body.Slots[0].ID != 6 {
		t.Fatalf("unexpected slots for date %+v", body.Slots)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/delivery/slots?date=tomorrow", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDeliveryHandlersGetSlotAndReserve(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	rr := doJSON(t, router, http.MethodGet, "/api/v1/delivery/slots/5", nil)
	var slot struct {
		Slot slotPayload `json:"slot"`
	}
	decodeBody(t, rr, &slot)
	if slot.Slot.Time != "18:00" {
		t.Fatalf("unexpected slot %+v", slot.Slot)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/delivery/slots/36", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodPost, "/api/v1/delivery/reservations", map[string]any{"slot_id": 5})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var res struct {
		Reservation reservationPayload `json:"reservation"`
	}
	decodeBody(t, rr, &res)
	if len(res.Reservation.ReservationID) <= len("RES-") || res.Reservation.ReservationID[:4] != "RES-" {
		t.Fatalf("unexpected reservation id %q", res.Reservation.ReservationID)
	}
}
