package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apper-canvas/freshcartelevate/internal/platform/idempotency"
)

func checkoutBody(slotID int) map[string]any {
	return map[string]any{
		"slot_id": slotID,
		"delivery_address": map[string]any{
			"name": "Sam", "street": "1 Main St", "city": "Springfield", "state": "CA", "zip_code": "94105",
		},
	}
}

func TestCheckoutHandlersPlaceOrder(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))
	doJSON(t, router, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 2, "quantity": 2})

	rr := doJSON(t, router, http.MethodPost, "/api/v1/checkout", checkoutBody(3))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body checkoutResponse
	decodeBody(t, rr, &body)
	if body.Order.ID != 1 || body.Order.Totals.Subtotal.Cents != 758 {
		t.Fatalf("unexpected order %+v", body.Order)
	}
	if body.Reservation.Slot.ID != 3 || len(body.Reservation.ReservationID) < 5 {
		t.Fatalf("unexpected reservation %+v", body.Reservation)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/cart/count", nil)
	var count struct {
		Count int `json:"count"`
	}
	decodeBody(t, rr, &count)
	if count.Count != 0 {
		t.Fatalf("expected cleared cart, got %d", count.Count)
	}
}

func TestCheckoutHandlersEmptyCartAndBadSlot(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	rr := doJSON(t, router, http.MethodPost, "/api/v1/checkout", checkoutBody(3))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", rr.Code)
	}

	doJSON(t, router, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 2, "quantity": 1})
	rr = doJSON(t, router, http.MethodPost, "/api/v1/checkout", checkoutBody(99))
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "slot_not_found" {
		t.Fatalf("expected slot_not_found, got %d %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, router, http.MethodPost, "/api/v1/checkout", checkoutBody(0))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing slot, got %d", rr.Code)
	}
}

func TestCheckoutHandlersReplaysIdempotentRequest(t *testing.T) {
	svcs := newTestServices(t)
	store := idempotency.NewMemoryStore()
	router := newTestRouter(t, svcs, WithCheckoutRoutes(NewCheckoutHandlers(svcs.checkout, idempotency.Middleware(store)).Routes))
	doJSON(t, router, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 1, "quantity": 1})

	payload := []byte(`{"slot_id":2,"delivery_address":{"street":"1 Main St","city":"Springfield","state":"CA","zip_code":"94105"}}`)
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(payload))
		req.Header.Set("Idempotency-Key", "checkout-1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}
	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d: %s", second.Code, second.Body.String())
	}
	if second.Header().Get("X-Idempotent-Replay") != "true" {
		t.Fatalf("expected replay header")
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical replay body")
	}

	rr := doJSON(t, router, http.MethodGet, "/api/v1/orders", nil)
	var orders struct {
		Orders []orderPayload `json:"orders"`
	}
	decodeBody(t, rr, &orders)
	if len(orders.Orders) != 1 {
		t.Fatalf("expected a single order, got %d", len(orders.Orders))
	}
}
