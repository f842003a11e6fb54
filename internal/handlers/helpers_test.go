package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories/memory"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

var testNow = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

type testServices struct {
	cart     services.CartService
	orders   services.OrderService
	catalog  services.CatalogService
	delivery services.DeliveryService
	stores   services.StoreService
	checkout services.CheckoutService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()
	clock := func() time.Time { return testNow }

	catalogRepo := memory.NewCatalogRepository([]domain.Product{
		{ID: 1, Name: "Organic Bananas", Category: "Produce", Price: 249, Unit: "bunch", InStock: true},
		{ID: 2, Name: "Whole Milk", Category: "Dairy", Price: 379, Unit: "gallon", InStock: true},
		{ID: 3, Name: "Penne Pasta", Category: "Pantry", Price: 199, Unit: "16 oz", InStock: true},
	}, []domain.Category{{ID: 1, Name: "Produce"}}, []domain.PromoBanner{{ID: 1, Title: "Fresh week", IsActive: true, Priority: 1}})

	cart, err := services.NewCartService(services.CartServiceDeps{Repository: memory.NewCartRepository()})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{Catalog: catalogRepo})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Repository: memory.NewOrderRepository(),
		Catalog:    catalog,
		Clock:      clock,
		Location:   time.UTC,
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	delivery, err := services.NewDeliveryService(services.DeliveryServiceDeps{
		Clock:    clock,
		Location: time.UTC,
		Mode:     services.DeliveryModeRandom,
		Random:   func() float64 { return 0.5 },
	})
	if err != nil {
		t.Fatalf("NewDeliveryService: %v", err)
	}
	stores, err := services.NewStoreService(services.StoreServiceDeps{
		Stores: memory.NewStoreRepository([]domain.Store{
			{ID: 1, Name: "Downtown"}, {ID: 2, Name: "Mission Bay"}, {ID: 3, Name: "Sunset"}, {ID: 4, Name: "Noe Valley"},
		}),
		Favorites: memory.NewFavoriteStoreRepository(),
		Inventory: memory.NewInventoryCache(clock),
		Clock:     clock,
		Intn:      func(int) int { return 10 },
	})
	if err != nil {
		t.Fatalf("NewStoreService: %v", err)
	}
	checkout, err := services.NewCheckoutService(services.CheckoutServiceDeps{Cart: cart, Orders: orders, Delivery: delivery})
	if err != nil {
		t.Fatalf("NewCheckoutService: %v", err)
	}
	return testServices{cart: cart, orders: orders, catalog: catalog, delivery: delivery, stores: stores, checkout: checkout}
}

func newTestRouter(t *testing.T, svcs testServices, opts ...Option) chi.Router {
	t.Helper()
	storeHandlers := NewStoreHandlers(svcs.stores)
	base := []Option{
		WithCatalogRoutes(NewCatalogHandlers(svcs.catalog, svcs.cart).Routes),
		WithCartRoutes(NewCartHandlers(svcs.cart, svcs.catalog).Routes),
		WithOrderRoutes(NewOrderHandlers(svcs.orders, nil).Routes),
		WithCheckoutRoutes(NewCheckoutHandlers(svcs.checkout, nil).Routes),
		WithDeliveryRoutes(NewDeliveryHandlers(svcs.delivery).Routes),
		WithStoreRoutes(storeHandlers.Routes),
		WithMeRoutes(storeHandlers.MeRoutes),
	}
	return NewRouter(append(base, opts...)...)
}

func jsonReader(t *testing.T, body any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(raw)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	reader := bytes.NewReader(nil)
	if body != nil {
		reader = jsonReader(t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rr, &body)
	return body.Error
}
