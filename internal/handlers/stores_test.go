package handlers

import (
	"net/http"
	"testing"
)

func TestStoreHandlersListAndGet(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	rr := doJSON(t, router, http.MethodGet, "/api/v1/stores", nil)
	var list struct {
		Stores []storePayload `json:"stores"`
	}
	decodeBody(t, rr, &list)
	if len(list.Stores) != 4 {
		t.Fatalf("expected 4 stores, got %d", len(list.Stores))
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/stores/9", nil)
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "store_not_found" {
		t.Fatalf("expected store_not_found, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestStoreHandlersFavoritesLimit(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	for _, path := range []string{"/api/v1/me/favorite-stores/1", "/api/v1/me/favorite-stores/2", "/api/v1/me/favorite-stores/3"} {
		if rr := doJSON(t, router, http.MethodPut, path, nil); rr.Code != http.StatusOK {
			t.Fatalf("PUT %s: expected 200, got %d", path, rr.Code)
		}
	}
	rr := doJSON(t, router, http.MethodPut, "/api/v1/me/favorite-stores/4", nil)
	if rr.Code != http.StatusConflict || errorCode(t, rr) != "favorite_limit_exceeded" {
		t.Fatalf("expected favorite_limit_exceeded, got %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodDelete, "/api/v1/me/favorite-stores/2", nil)
	var favorites struct {
		Stores []storePayload `json:"stores"`
	}
	decodeBody(t, rr, &favorites)
	if len(favorites.Stores) != 2 {
		t.Fatalf("expected 2 favorites, got %d", len(favorites.Stores))
	}
}

func TestStoreHandlersInventoryAndBestStore(t *testing.T) {
	router := newTestRouter(t, newTestServices(t))

	rr := doJSON(t, router, http.MethodGet, "/api/v1/stores/best?product_id=5", nil)
	if rr.Code != http.StatusConflict || errorCode(t, rr) != "no_favorite_stores" {
		t.Fatalf("expected no_favorite_stores, got %d %s", rr.Code, rr.Body.String())
	}

	doJSON(t, router, http.MethodPut, "/api/v1/me/favorite-stores/1", nil)
	rr = doJSON(t, router, http.MethodGet, "/api/v1/stores/1/inventory?product_ids=1,2,2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var inv inventoryPayload
	decodeBody(t, rr, &inv)
	if len(inv.Inventory) != 2 || inv.Inventory["1"] != 20 {
		t.Fatalf("unexpected inventory %+v", inv)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/stores/best?product_id=1", nil)
	var best struct {
		Store *storePayload `json:"store"`
		Stock int           `json:"stock"`
	}
	decodeBody(t, rr, &best)
	if best.Store == nil || best.Store.ID != 1 || best.Stock != 20 {
		t.Fatalf("unexpected best store %+v", best)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/stores/inventory?product_ids=1", nil)
	var multi struct {
		Products map[string][]storeStockPayload `json:"products"`
	}
	decodeBody(t, rr, &multi)
	if len(multi.Products["1"]) != 1 || !multi.Products["1"][0].Available {
		t.Fatalf("unexpected multi inventory %+v", multi.Products)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/stores/inventory?product_ids=x", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
