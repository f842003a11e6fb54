package handlers

import (
	"net/http"
	"testing"
)

func TestCartHandlersAddUsesCatalogSnapshot(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	rr := doJSON(t, router, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 1, "quantity": 3, "price_cents": 1})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var body cartResponse
	decodeBody(t, rr, &body)
	if len(body.Items) != 1 || body.Items[0].Name != "Organic Bananas" {
		t.Fatalf("unexpected items %+v", body.Items)
	}
	if body.Items[0].Price.Cents != 249 {
		t.Fatalf("expected catalog price 249, got %d", body.Items[0].Price.Cents)
	}
	if body.Count != 3 {
		t.Fatalf("expected count 3, got %d", body.Count)
	}
	if body.Totals.Total.Cents != 747+60+499 {
		t.Fatalf("unexpected total %+v", body.Totals.Total)
	}
}

func TestCartHandlersUpdateRemoveAndClear(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	doJSON(t, router, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 1, "quantity": 1})
	doJSON(t, router, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 2, "quantity": 1})

	rr := doJSON(t, router, http.MethodPatch, "/api/v1/cart/items/1", map[string]any{"quantity": 4})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/cart/count", nil)
	var count struct {
		Count int `json:"count"`
	}
	decodeBody(t, rr, &count)
	if count.Count != 5 {
		t.Fatalf("expected count 5, got %d", count.Count)
	}

	rr = doJSON(t, router, http.MethodDelete, "/api/v1/cart/items/2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	rr = doJSON(t, router, http.MethodDelete, "/api/v1/cart/items/2", nil)
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "cart_item_not_found" {
		t.Fatalf("expected cart_item_not_found, got %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/cart/total", nil)
	var total struct {
		Total moneyPayload `json:"total"`
	}
	decodeBody(t, rr, &total)
	if total.Total.Cents != 996 || total.Total.Display != "$9.96" {
		t.Fatalf("unexpected total %+v", total.Total)
	}

	rr = doJSON(t, router, http.MethodDelete, "/api/v1/cart", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestCartHandlersValidation(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	rr := doJSON(t, router, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 1, "quantity": -2})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	rr = doJSON(t, router, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 404, "quantity": 1})
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "product_not_found" {
		t.Fatalf("expected product_not_found, got %d %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, router, http.MethodPatch, "/api/v1/cart/items/abc", map[string]any{"quantity": 1})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rr.Code)
	}
	rr = doJSON(t, router, http.MethodPatch, "/api/v1/cart/items/1", map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without quantity, got %d", rr.Code)
	}
}
