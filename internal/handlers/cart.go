package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/platform/httpx"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

const maxCartBodySize = 16 * 1024

type productGetter interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
}

// CartHandlers exposes the shopper's cart.
type CartHandlers struct {
	carts   services.CartService
	catalog productGetter
}

// NewCartHandlers builds cart handlers. When catalog is set, added items are snapshotted
// from the catalog instead of the request body.
func NewCartHandlers(carts services.CartService, catalog productGetter) *CartHandlers {
	return &CartHandlers{carts: carts, catalog: catalog}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Get("/count", h.getCount)
	r.Get("/total", h.getTotal)
	r.Post("/items", h.addItem)
	r.Patch("/items/{productId}", h.updateItem)
	r.Delete("/items/{productId}", h.removeItem)
}

type cartResponse struct {
	Items  []cartItemPayload `json:"items"`
	Count  int               `json:"count"`
	Totals totalsPayload     `json:"totals"`
}

type addCartItemRequest struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price_cents"`
	Unit      string `json:"unit"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		serviceUnavailable(ctx, w, "cart")
		return
	}
	h.writeSummary(w, r, http.StatusOK)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		serviceUnavailable(ctx, w, "cart")
		return
	}

	var req addCartItemRequest
	if err := httpx.DecodeJSON(r, maxCartBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}

	item := domain.CartItem{
		ProductID: req.ProductID,
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		Unit:      strings.TrimSpace(req.Unit),
		Image:     strings.TrimSpace(req.Image),
		Quantity:  req.Quantity,
	}
	if h.catalog != nil && req.ProductID > 0 {
		product, err := h.catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			writeServiceError(ctx, w, err)
			return
		}
		item.Name = product.Name
		item.Price = product.Price
		item.Unit = product.Unit
		item.Image = product.Image
	}

	if _, err := h.carts.Add(ctx, shopperID(r), item); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.writeSummary(w, r, http.StatusCreated)
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		serviceUnavailable(ctx, w, "cart")
		return
	}
	productID, err := int64Param(r, "productId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}

	var req updateCartItemRequest
	if err := httpx.DecodeJSON(r, maxCartBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity is required", http.StatusBadRequest))
		return
	}

	if _, err := h.carts.UpdateQuantity(ctx, shopperID(r), productID, *req.Quantity); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.writeSummary(w, r, http.StatusOK)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		serviceUnavailable(ctx, w, "cart")
		return
	}
	productID, err := int64Param(r, "productId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}

	removed, err := h.carts.Remove(ctx, shopperID(r), productID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"removed": buildCartItemPayload(removed)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		serviceUnavailable(ctx, w, "cart")
		return
	}
	if err := h.carts.Clear(ctx, shopperID(r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) getCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		serviceUnavailable(ctx, w, "cart")
		return
	}
	count, err := h.carts.Count(ctx, shopperID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"count": count})
}

func (h *CartHandlers) getTotal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		serviceUnavailable(ctx, w, "cart")
		return
	}
	total, err := h.carts.Total(ctx, shopperID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"total": money(total)})
}

func (h *CartHandlers) writeSummary(w http.ResponseWriter, r *http.Request, status int) {
	ctx := r.Context()
	summary, err := h.carts.Summary(ctx, shopperID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, status, cartResponse{
		Items:  buildCartItemPayloads(summary.Items),
		Count:  summary.Count,
		Totals: buildTotalsPayload(summary.Totals),
	})
}
