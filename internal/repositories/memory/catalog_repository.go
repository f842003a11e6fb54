package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

// CatalogRepository serves the bundled catalog when no record backend is configured.
// Products list newest first, matching the backend ordering.
type CatalogRepository struct {
	mu         sync.RWMutex
	products   []domain.Product
	categories []domain.Category
	promos     []domain.PromoBanner
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(products []domain.Product, categories []domain.Category, promos []domain.PromoBanner) *CatalogRepository {
	repo := &CatalogRepository{
		products:   append([]domain.Product(nil), products...),
		categories: append([]domain.Category(nil), categories...),
		promos:     append([]domain.PromoBanner(nil), promos...),
	}
	sort.SliceStable(repo.products, func(i, j int) bool { return repo.products[i].ID > repo.products[j].ID })
	return repo
}

// NewSeededCatalogRepository loads the embedded catalog seed.
func NewSeededCatalogRepository() (*CatalogRepository, error) {
	products, categories, promos, err := SeedCatalog()
	if err != nil {
		return nil, err
	}
	return NewCatalogRepository(products, categories, promos), nil
}

func (r *CatalogRepository) ListProducts(context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Product(nil), r.products...), nil
}

func (r *CatalogRepository) GetProduct(_ context.Context, productID int64) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, product := range r.products {
		if product.ID == productID {
			return product, nil
		}
	}
	return domain.Product{}, repositories.NewNotFound("catalog.products.get", fmt.Sprintf("product %d not found", productID))
}

func (r *CatalogRepository) CreateProduct(_ context.Context, input domain.ProductInput) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var maxID int64
	for _, product := range r.products {
		if product.ID > maxID {
			maxID = product.ID
		}
	}
	product := productFromInput(maxID+1, input, r.categoryNameLocked(input.CategoryID))
	r.products = append([]domain.Product{product}, r.products...)
	return product, nil
}

func (r *CatalogRepository) UpdateProduct(_ context.Context, productID int64, input domain.ProductInput) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, product := range r.products {
		if product.ID == productID {
			updated := productFromInput(productID, input, r.categoryNameLocked(input.CategoryID))
			r.products[i] = updated
			return updated, nil
		}
	}
	return domain.Product{}, repositories.NewNotFound("catalog.products.update", fmt.Sprintf("product %d not found", productID))
}

func (r *CatalogRepository) DeleteProduct(_ context.Context, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, product := range r.products {
		if product.ID == productID {
			r.products = append(r.products[:i:i], r.products[i+1:]...)
			return nil
		}
	}
	return repositories.NewNotFound("catalog.products.delete", fmt.Sprintf("product %d not found", productID))
}

func (r *CatalogRepository) ListCategories(context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Category(nil), r.categories...), nil
}

func (r *CatalogRepository) GetCategory(_ context.Context, categoryID int64) (domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, category := range r.categories {
		if category.ID == categoryID {
			return category, nil
		}
	}
	return domain.Category{}, repositories.NewNotFound("catalog.categories.get", fmt.Sprintf("category %d not found", categoryID))
}

func (r *CatalogRepository) CreateCategory(_ context.Context, input domain.CategoryInput) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var maxID int64
	for _, category := range r.categories {
		if category.ID > maxID {
			maxID = category.ID
		}
	}
	category := domain.Category{ID: maxID + 1, Name: input.Name, ImageURL: input.ImageURL}
	r.categories = append(r.categories, category)
	return category, nil
}

func (r *CatalogRepository) UpdateCategory(_ context.Context, categoryID int64, input domain.CategoryInput) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, category := range r.categories {
		if category.ID == categoryID {
			r.categories[i] = domain.Category{ID: categoryID, Name: input.Name, ImageURL: input.ImageURL}
			return r.categories[i], nil
		}
	}
	return domain.Category{}, repositories.NewNotFound("catalog.categories.update", fmt.Sprintf("category %d not found", categoryID))
}

func (r *CatalogRepository) DeleteCategory(_ context.Context, categoryID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, category := range r.categories {
		if category.ID == categoryID {
			r.categories = append(r.categories[:i:i], r.categories[i+1:]...)
			return nil
		}
	}
	return repositories.NewNotFound("catalog.categories.delete", fmt.Sprintf("category %d not found", categoryID))
}

func (r *CatalogRepository) ListPromos(context.Context) ([]domain.PromoBanner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.PromoBanner(nil), r.promos...), nil
}

func (r *CatalogRepository) GetPromo(_ context.Context, promoID int64) (domain.PromoBanner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, promo := range r.promos {
		if promo.ID == promoID {
			return promo, nil
		}
	}
	return domain.PromoBanner{}, repositories.NewNotFound("catalog.promos.get", fmt.Sprintf("promo %d not found", promoID))
}

func (r *CatalogRepository) categoryNameLocked(categoryID *int64) string {
	if categoryID == nil {
		return ""
	}
	for _, category := range r.categories {
		if category.ID == *categoryID {
			return category.Name
		}
	}
	return ""
}
