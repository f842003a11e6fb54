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

const maxCatalogBodySize = 32 * 1024

// CatalogHandlers exposes products, categories, promo banners and cart based recommendations.
type CatalogHandlers struct {
	catalog services.CatalogService
	carts   services.CartService
}

func NewCatalogHandlers(catalog services.CatalogService, carts services.CartService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog, carts: carts}
}

func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{productId}", h.getProduct)
	r.Put("/products/{productId}", h.updateProduct)
	r.Delete("/products/{productId}", h.deleteProduct)

	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Get("/categories/{categoryId}", h.getCategory)
	r.Put("/categories/{categoryId}", h.updateCategory)
	r.Delete("/categories/{categoryId}", h.deleteCategory)

	r.Get("/promos", h.listPromos)
	r.Get("/promos/{promoId}", h.getPromo)

	r.Get("/recommendations", h.recommendations)
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  *int64 `json:"category_id"`
	Price       int64  `json:"price_cents"`
	Unit        string `json:"unit"`
	Image       string `json:"image"`
	Quantity    int    `json:"quantity"`
	Discount    int64  `json:"discount_cents"`
	Featured    bool   `json:"featured"`
}

func (p productRequest) toDomain() domain.ProductInput {
	return domain.ProductInput{
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		Unit:        strings.TrimSpace(p.Unit),
		Image:       strings.TrimSpace(p.Image),
		Quantity:    p.Quantity,
		Discount:    p.Discount,
		Featured:    p.Featured,
	}
}

type categoryRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type categoryPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

type promoPayload struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	CTAText     string `json:"cta_text,omitempty"`
	CTALink     string `json:"cta_link"`
	IsActive    bool   `json:"is_active"`
	Priority    int    `json:"priority"`
}

func buildCategoryPayload(c domain.Category) categoryPayload {
	return categoryPayload{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL}
}

func buildPromoPayload(p domain.PromoBanner) promoPayload {
	return promoPayload{
		ID:          p.ID,
		Title:       p.Title,
		Subtitle:    p.Subtitle,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CTAText:     p.CTAText,
		CTALink:     p.CTALink,
		IsActive:    p.IsActive,
		Priority:    p.Priority,
	}
}

// listProducts filters by ?category= or searches with ?q=; q wins when both are set.
func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	query := r.URL.Query()
	var (
		products []domain.Product
		err      error
	)
	switch {
	case strings.TrimSpace(query.Get("q")) != "":
		products, err = h.catalog.Search(ctx, query.Get("q"))
	case strings.TrimSpace(query.Get("category")) != "":
		products, err = h.catalog.ProductsByCategory(ctx, query.Get("category"))
	default:
		products, err = h.catalog.ListProducts(ctx)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": buildProductPayloads(products)})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id, err := int64Param(r, "productId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *CatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, maxCatalogBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	product, err := h.catalog.CreateProduct(ctx, req.toDomain())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"product": buildProductPayload(product)})
}

func (h *CatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id, err := int64Param(r, "productId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, maxCatalogBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	product, err := h.catalog.UpdateProduct(ctx, id, req.toDomain())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *CatalogHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id, err := int64Param(r, "productId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	payload := make([]categoryPayload, 0, len(categories))
	for _, c := range categories {
		payload = append(payload, buildCategoryPayload(c))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": payload})
}

func (h *CatalogHandlers) getCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id, err := int64Param(r, "categoryId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	category, err := h.catalog.GetCategory(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"category": buildCategoryPayload(category)})
}

func (h *CatalogHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	var req categoryRequest
	if err := httpx.DecodeJSON(r, maxCatalogBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	category, err := h.catalog.CreateCategory(ctx, domain.CategoryInput{Name: strings.TrimSpace(req.Name), ImageURL: strings.TrimSpace(req.ImageURL)})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"category": buildCategoryPayload(category)})
}

func (h *CatalogHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id, err := int64Param(r, "categoryId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	var req categoryRequest
	if err := httpx.DecodeJSON(r, maxCatalogBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	category, err := h.catalog.UpdateCategory(ctx, id, domain.CategoryInput{Name: strings.TrimSpace(req.Name), ImageURL: strings.TrimSpace(req.ImageURL)})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"category": buildCategoryPayload(category)})
}

func (h *CatalogHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id, err := int64Param(r, "categoryId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	if err := h.catalog.DeleteCategory(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listPromos returns every banner, or only active ones ordered by priority with ?active=true.
func (h *CatalogHandlers) listPromos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	activeOnly := false
	if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "active must be a boolean", http.StatusBadRequest))
			return
		}
		activeOnly = parsed
	}

	var (
		promos []domain.PromoBanner
		err    error
	)
	if activeOnly {
		promos, err = h.catalog.ActivePromos(ctx)
	} else {
		promos, err = h.catalog.ListPromos(ctx)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	payload := make([]promoPayload, 0, len(promos))
	for _, p := range promos {
		payload = append(payload, buildPromoPayload(p))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"promos": payload})
}

func (h *CatalogHandlers) getPromo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id, err := int64Param(r, "promoId")
	if err != nil {
		writeRequestError(ctx, w, err)
		return
	}
	promo, err := h.catalog.GetPromo(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"promo": buildPromoPayload(promo)})
}

func (h *CatalogHandlers) recommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil || h.carts == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	items, err := h.carts.Items(ctx, shopperID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	products, err := h.catalog.Recommendations(ctx, items)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": buildProductPayloads(products)})
}
