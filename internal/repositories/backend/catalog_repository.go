// Package backend implements the catalog repository over the remote record backend.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	client "github.com/apper-canvas/freshcartelevate/internal/platform/backend"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

const (
	tableProducts   = "product_c"
	tableCategories = "category_c"
	tablePromos     = "promo_banner_c"

	listLimit = 100
)

// RecordClient is the subset of the backend client the catalog needs.
type RecordClient interface {
	FetchRecords(ctx context.Context, table string, params client.FetchParams) ([]json.RawMessage, error)
	GetRecordByID(ctx context.Context, table string, id int64, fields []client.Field) (json.RawMessage, error)
	CreateRecord(ctx context.Context, table string, record any) (json.RawMessage, error)
	UpdateRecord(ctx context.Context, table string, record any) (json.RawMessage, error)
	DeleteRecord(ctx context.Context, table string, id int64) error
}

// CatalogRepository maps product_c, category_c and promo_banner_c records to domain types.
type CatalogRepository struct {
	client RecordClient
	logger func(context.Context, string, map[string]any)
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository builds the repository. Records that fail to decode while listing are
// skipped and reported through logger.
func NewCatalogRepository(c RecordClient, logger func(context.Context, string, map[string]any)) (*CatalogRepository, error) {
	if c == nil {
		return nil, errors.New("catalog repository: record client is required")
	}
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &CatalogRepository{client: c, logger: logger}, nil
}

func listParams(fields []string) client.FetchParams {
	return client.FetchParams{
		Fields:     client.Fields(fields...),
		OrderBy:    []client.OrderBy{{FieldName: "Id", SortType: "DESC"}},
		PagingInfo: &client.PagingInfo{Limit: listLimit},
	}
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	records, err := r.client.FetchRecords(ctx, tableProducts, listParams(productFields))
	if err != nil {
		return nil, wrapError("catalog.products.list", err)
	}
	products := make([]domain.Product, 0, len(records))
	for _, raw := range records {
		product, err := decodeProduct(raw)
		if err != nil {
			r.logger(ctx, "catalog.record_skipped", map[string]any{"table": tableProducts, "error": err.Error()})
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

func (r *CatalogRepository) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	raw, err := r.client.GetRecordByID(ctx, tableProducts, productID, client.Fields(productFields...))
	if err != nil {
		return domain.Product{}, wrapError("catalog.products.get", err)
	}
	product, err := decodeProduct(raw)
	if err != nil {
		return domain.Product{}, invalidRecord("catalog.products.get", err)
	}
	return product, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	raw, err := r.client.CreateRecord(ctx, tableProducts, encodeProduct(nil, input))
	if err != nil {
		return domain.Product{}, wrapError("catalog.products.create", err)
	}
	product, err := decodeProduct(raw)
	if err != nil {
		return domain.Product{}, invalidRecord("catalog.products.create", err)
	}
	return product, nil
}

func (r *CatalogRepository) UpdateProduct(ctx context.Context, productID int64, input domain.ProductInput) (domain.Product, error) {
	raw, err := r.client.UpdateRecord(ctx, tableProducts, encodeProduct(&productID, input))
	if err != nil {
		return domain.Product{}, wrapError("catalog.products.update", err)
	}
	product, err := decodeProduct(raw)
	if err != nil {
		return domain.Product{}, invalidRecord("catalog.products.update", err)
	}
	return product, nil
}

func (r *CatalogRepository) DeleteProduct(ctx context.Context, productID int64) error {
	if err := r.client.DeleteRecord(ctx, tableProducts, productID); err != nil {
		return wrapError("catalog.products.delete", err)
	}
	return nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	records, err := r.client.FetchRecords(ctx, tableCategories, listParams(categoryFields))
	if err != nil {
		return nil, wrapError("catalog.categories.list", err)
	}
	categories := make([]domain.Category, 0, len(records))
	for _, raw := range records {
		category, err := decodeCategory(raw)
		if err != nil {
			r.logger(ctx, "catalog.record_skipped", map[string]any{"table": tableCategories, "error": err.Error()})
			continue
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (r *CatalogRepository) GetCategory(ctx context.Context, categoryID int64) (domain.Category, error) {
	raw, err := r.client.GetRecordByID(ctx, tableCategories, categoryID, client.Fields(categoryFields...))
	if err != nil {
		return domain.Category{}, wrapError("catalog.categories.get", err)
	}
	category, err := decodeCategory(raw)
	if err != nil {
		return domain.Category{}, invalidRecord("catalog.categories.get", err)
	}
	return category, nil
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, input domain.CategoryInput) (domain.Category, error) {
	raw, err := r.client.CreateRecord(ctx, tableCategories, encodeCategory(nil, input))
	if err != nil {
		return domain.Category{}, wrapError("catalog.categories.create", err)
	}
	category, err := decodeCategory(raw)
	if err != nil {
		return domain.Category{}, invalidRecord("catalog.categories.create", err)
	}
	return category, nil
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, categoryID int64, input domain.CategoryInput) (domain.Category, error) {
	raw, err := r.client.UpdateRecord(ctx, tableCategories, encodeCategory(&categoryID, input))
	if err != nil {
		return domain.Category{}, wrapError("catalog.categories.update", err)
	}
	category, err := decodeCategory(raw)
	if err != nil {
		return domain.Category{}, invalidRecord("catalog.categories.update", err)
	}
	return category, nil
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, categoryID int64) error {
	if err := r.client.DeleteRecord(ctx, tableCategories, categoryID); err != nil {
		return wrapError("catalog.categories.delete", err)
	}
	return nil
}

func (r *CatalogRepository) ListPromos(ctx context.Context) ([]domain.PromoBanner, error) {
	params := listParams(promoFields)
	params.OrderBy = []client.OrderBy{{FieldName: "Id", SortType: "ASC"}}
	records, err := r.client.FetchRecords(ctx, tablePromos, params)
	if err != nil {
		return nil, wrapError("catalog.promos.list", err)
	}
	promos := make([]domain.PromoBanner, 0, len(records))
	for i, raw := range records {
		promo, err := decodePromo(raw, i+1)
		if err != nil {
			r.logger(ctx, "catalog.record_skipped", map[string]any{"table": tablePromos, "error": err.Error()})
			continue
		}
		promos = append(promos, promo)
	}
	return promos, nil
}

func (r *CatalogRepository) GetPromo(ctx context.Context, promoID int64) (domain.PromoBanner, error) {
	raw, err := r.client.GetRecordByID(ctx, tablePromos, promoID, client.Fields(promoFields...))
	if err != nil {
		return domain.PromoBanner{}, wrapError("catalog.promos.get", err)
	}
	promo, err := decodePromo(raw, 1)
	if err != nil {
		return domain.PromoBanner{}, invalidRecord("catalog.promos.get", err)
	}
	return promo, nil
}

func wrapError(op string, err error) error {
	var failure *client.Failure
	if errors.As(err, &failure) && failure.NotFound() {
		return repositories.NewNotFound(op, failure.Message)
	}
	return repositories.NewUnavailable(op, err)
}

func invalidRecord(op string, err error) error {
	return repositories.NewUnavailable(op, fmt.Errorf("invalid record: %w", err))
}
