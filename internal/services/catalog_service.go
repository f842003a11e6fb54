package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

const allCategories = "All"

var errCatalogRepositoryRequired = errors.New("catalog service: catalog repository is required")

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
	Logger  func(context.Context, string, map[string]any)
}

type catalogService struct {
	repo   repositories.CatalogRepository
	logger func(context.Context, string, map[string]any)
}

var _ CatalogService = (*catalogService)(nil)

func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errCatalogRepositoryRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{repo: deps.Catalog, logger: logger}, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, s.fail(ctx, "products.list", err, nil)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID int64) (Product, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return Product{}, s.fail(ctx, "products.get", err, fmt.Errorf("%w: %d", ErrProductNotFound, productID))
	}
	return product, nil
}

// ProductsByCategory matches the category name exactly. "All" or blank returns everything.
func (s *catalogService) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	if category == "" || category == allCategories {
		return products, nil
	}
	out := make([]Product, 0, len(products))
	for _, product := range products {
		if product.Category == category {
			out = append(out, product)
		}
	}
	return out, nil
}

// Search matches the query as a case-insensitive substring of the name or category.
func (s *catalogService) Search(ctx context.Context, query string) ([]Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return products, nil
	}
	out := make([]Product, 0, len(products))
	for _, product := range products {
		if strings.Contains(strings.ToLower(product.Name), needle) || strings.Contains(strings.ToLower(product.Category), needle) {
			out = append(out, product)
		}
	}
	return out, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	if err := validateProductInput(input); err != nil {
		return Product{}, err
	}
	product, err := s.repo.CreateProduct(ctx, input)
	if err != nil {
		return Product{}, s.fail(ctx, "products.create", err, nil)
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productID int64, input ProductInput) (Product, error) {
	if err := validateProductInput(input); err != nil {
		return Product{}, err
	}
	product, err := s.repo.UpdateProduct(ctx, productID, input)
	if err != nil {
		return Product{}, s.fail(ctx, "products.update", err, fmt.Errorf("%w: %d", ErrProductNotFound, productID))
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID int64) error {
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return s.fail(ctx, "products.delete", err, fmt.Errorf("%w: %d", ErrProductNotFound, productID))
	}
	return nil
}

// ListCategories degrades to an empty list when the backend fails.
func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.logger(ctx, "catalog.backend_failed", map[string]any{"op": "categories.list", "error": err.Error()})
		return []Category{}, nil
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, categoryID int64) (Category, error) {
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return Category{}, s.fail(ctx, "categories.get", err, fmt.Errorf("%w: %d", ErrCategoryNotFound, categoryID))
	}
	return category, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Category{}, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	category, err := s.repo.CreateCategory(ctx, input)
	if err != nil {
		return Category{}, s.fail(ctx, "categories.create", err, nil)
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, categoryID int64, input CategoryInput) (Category, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Category{}, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	category, err := s.repo.UpdateCategory(ctx, categoryID, input)
	if err != nil {
		return Category{}, s.fail(ctx, "categories.update", err, fmt.Errorf("%w: %d", ErrCategoryNotFound, categoryID))
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, categoryID int64) error {
	if err := s.repo.DeleteCategory(ctx, categoryID); err != nil {
		return s.fail(ctx, "categories.delete", err, fmt.Errorf("%w: %d", ErrCategoryNotFound, categoryID))
	}
	return nil
}

// ListPromos degrades to an empty list when the backend fails.
func (s *catalogService) ListPromos(ctx context.Context) ([]PromoBanner, error) {
	promos, err := s.repo.ListPromos(ctx)
	if err != nil {
		s.logger(ctx, "catalog.backend_failed", map[string]any{"op": "promos.list", "error": err.Error()})
		return []PromoBanner{}, nil
	}
	return promos, nil
}

// ActivePromos returns active banners ordered by priority.
func (s *catalogService) ActivePromos(ctx context.Context) ([]PromoBanner, error) {
	promos, err := s.ListPromos(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]PromoBanner, 0, len(promos))
	for _, promo := range promos {
		if promo.IsActive {
			active = append(active, promo)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority < active[j].Priority })
	return active, nil
}

func (s *catalogService) GetPromo(ctx context.Context, promoID int64) (PromoBanner, error) {
	promo, err := s.repo.GetPromo(ctx, promoID)
	if err != nil {
		return PromoBanner{}, s.fail(ctx, "promos.get", err, fmt.Errorf("%w: %d", ErrPromoNotFound, promoID))
	}
	return promo, nil
}

// Recommendations degrades to an empty list when the catalog cannot be read.
func (s *catalogService) Recommendations(ctx context.Context, cart []CartItem) ([]Product, error) {
	if len(cart) == 0 {
		return []Product{}, nil
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		s.logger(ctx, "catalog.backend_failed", map[string]any{"op": "recommendations", "error": err.Error()})
		return []Product{}, nil
	}
	return Recommend(products, cart), nil
}

func (s *catalogService) fail(ctx context.Context, op string, err error, notFound error) error {
	if notFound != nil && isRepoNotFound(err) {
		return notFound
	}
	s.logger(ctx, "catalog.backend_failed", map[string]any{"op": op, "error": err.Error()})
	return errors.Join(ErrCatalogUnavailable, err)
}

func validateProductInput(input ProductInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	case input.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case input.Discount < 0:
		return fmt.Errorf("%w: discount must not be negative", ErrInvalidInput)
	case input.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	return nil
}
