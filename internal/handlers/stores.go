package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/platform/httpx"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

// StoreHandlers serves store listings, inventory and the shopper's favorite stores.
type StoreHandlers struct {
	stores services.StoreService
}

func NewStoreHandlers(stores services.StoreService) *StoreHandlers {
	return &StoreHandlers{stores: stores}
}

// Routes registers the /stores endpoints.
func (h *StoreHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listStores)
	r.Get("/inventory", h.multiStoreInventory)
	r.Get("/best", h.bestStore)
	r.Get("/{storeId}", h.getStore)
	r.Get("/{storeId}/inventory", h.storeInventory)
}

// MeRoutes registers the shopper scoped favorite store endpoints under /me.
func (h *StoreHandlers) MeRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/favorite-stores", h.listFavorites)
	r.Put("/favorite-stores/{storeId}", h.addFavorite)
	r.Delete("/favorite-stores/{storeId}", h.removeFavorite)
}

type inventoryPayload struct {
	StoreID     int64          `json:"store_id"`
	StoreName   string         `json:"store_name"`
	Inventory   map[string]int `json:"inventory"`
	LastUpdated string         `json:"last_updated"`
}

type storeStockPayload struct {
	StoreID   int64  `json:"store_id"`
	StoreName string `json:"store_name"`
	Stock     int    `json:"stock"`
	Available bool   `json:"available"`
}

func buildInventoryPayload(inv domain.StoreInventory) inventoryPayload {
	stock := make(map[string]int, len(inv.Stock))
	for id, qty := range inv.Stock {
		stock[strconv.FormatInt(id, 10)] = qty
	}
	return inventoryPayload{
		StoreID:     inv.StoreID,
		StoreName:   inv.StoreName,
		Inventory:   stock,
		LastUpdated: formatTime(inv.LastUpdated),
	}
}

func (h *StoreHandlers) listStores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stores == nil {
		serviceUnavailable(ctx, w, "store")
		return
	}
	stores, err := h.stores.ListStores(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"stores": buildStorePayloads(stores)})
}

func (h *StoreHandlers) getStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stores == nil {
		serviceUnavailable(ctx, w, "store")
		return
	}
	storeID, err := int64Param(r, "storeId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	store, err := h.stores.GetStore(ctx, storeID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"store": buildStorePayload(store)})
}

func (h *StoreHandlers) storeInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stores == nil {
		serviceUnavailable(ctx, w, "store")
		return
	}
	storeID, err := int64Param(r, "storeId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	ids, err := productIDsQuery(r, "product_ids")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	inventory, err := h.stores.Inventory(ctx, storeID, ids)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildInventoryPayload(inventory))
}

func (h *StoreHandlers) multiStoreInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stores == nil {
		serviceUnavailable(ctx, w, "store")
		return
	}
	ids, err := productIDsQuery(r, "product_ids")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	if len(ids) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product_ids is required", http.StatusBadRequest))
		return
	}
	combined, err := h.stores.MultiStoreInventory(ctx, shopperID(r), ids)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	keys := make([]int64, 0, len(combined))
	for id := range combined {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	payload := make(map[string][]storeStockPayload, len(combined))
	for _, id := range keys {
		stocks := make([]storeStockPayload, 0, len(combined[id]))
		for _, s := range combined[id] {
			stocks = append(stocks, storeStockPayload{StoreID: s.StoreID, StoreName: s.StoreName, Stock: s.Stock, Available: s.Available})
		}
		payload[strconv.FormatInt(id, 10)] = stocks
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": payload})
}

// bestStore answers with "store": null when no favorite has the product in stock.
func (h *StoreHandlers) bestStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stores == nil {
		serviceUnavailable(ctx, w, "store")
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("product_id"))
	productID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || productID <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product_id must be a positive integer", http.StatusBadRequest))
		return
	}
	best, err := h.stores.FindBestStore(ctx, shopperID(r), productID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if best == nil {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"store": nil, "stock": 0})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"store": buildStorePayload(best.Store), "stock": best.Stock})
}

func (h *StoreHandlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stores == nil {
		serviceUnavailable(ctx, w, "store")
		return
	}
	favorites, err := h.stores.Favorites(ctx, shopperID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"stores": buildStorePayloads(favorites)})
}

func (h *StoreHandlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stores == nil {
		serviceUnavailable(ctx, w, "store")
		return
	}
	storeID, err := int64Param(r, "storeId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	favorites, err := h.stores.AddFavorite(ctx, shopperID(r), storeID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"stores": buildStorePayloads(favorites)})
}

func (h *StoreHandlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stores == nil {
		serviceUnavailable(ctx, w, "store")
		return
	}
	storeID, err := int64Param(r, "storeId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	favorites, err := h.stores.RemoveFavorite(ctx, shopperID(r), storeID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"stores": buildStorePayloads(favorites)})
}
