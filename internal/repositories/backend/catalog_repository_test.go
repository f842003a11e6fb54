package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	client "github.com/apper-canvas/freshcartelevate/internal/platform/backend"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

type stubRecordClient struct {
	fetchFunc  func(ctx context.Context, table string, params client.FetchParams) ([]json.RawMessage, error)
	getFunc    func(ctx context.Context, table string, id int64) (json.RawMessage, error)
	createFunc func(ctx context.Context, table string, record any) (json.RawMessage, error)
	updateFunc func(ctx context.Context, table string, record any) (json.RawMessage, error)
	deleteFunc func(ctx context.Context, table string, id int64) error
}

func (s *stubRecordClient) FetchRecords(ctx context.Context, table string, params client.FetchParams) ([]json.RawMessage, error) {
	return s.fetchFunc(ctx, table, params)
}

func (s *stubRecordClient) GetRecordByID(ctx context.Context, table string, id int64, _ []client.Field) (json.RawMessage, error) {
	return s.getFunc(ctx, table, id)
}

func (s *stubRecordClient) CreateRecord(ctx context.Context, table string, record any) (json.RawMessage, error) {
	return s.createFunc(ctx, table, record)
}

func (s *stubRecordClient) UpdateRecord(ctx context.Context, table string, record any) (json.RawMessage, error) {
	return s.updateFunc(ctx, table, record)
}

func (s *stubRecordClient) DeleteRecord(ctx context.Context, table string, id int64) error {
	return s.deleteFunc(ctx, table, id)
}

func productInputFixture() domain.ProductInput {
	return domain.ProductInput{Name: "Sourdough", Price: 350, Unit: "loaf", Quantity: 4}
}

func TestListProductsSkipsInvalidRecords(t *testing.T) {
	var skipped []string
	stub := &stubRecordClient{
		fetchFunc: func(_ context.Context, table string, params client.FetchParams) ([]json.RawMessage, error) {
			assert.Equal(t, tableProducts, table)
			assert.Equal(t, 100, params.PagingInfo.Limit)
			return []json.RawMessage{
				json.RawMessage(`{"Id": 2, "product_name_c": "Milk", "quantity_c": 3}`),
				json.RawMessage(`{"Id": 1}`),
			}, nil
		},
	}
	repo, err := NewCatalogRepository(stub, func(_ context.Context, event string, fields map[string]any) {
		skipped = append(skipped, event)
	})
	require.NoError(t, err)

	products, err := repo.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Milk", products[0].Name)
	assert.Equal(t, []string{"catalog.record_skipped"}, skipped)
}

func TestListProductsBackendFailureIsUnavailable(t *testing.T) {
	stub := &stubRecordClient{
		fetchFunc: func(context.Context, string, client.FetchParams) ([]json.RawMessage, error) {
			return nil, &client.Failure{Table: tableProducts, Op: "fetch", Message: "down"}
		},
	}
	repo, err := NewCatalogRepository(stub, nil)
	require.NoError(t, err)

	_, err = repo.ListProducts(context.Background())

	assert.True(t, repositories.IsUnavailable(err))
}

func TestGetProductNotFound(t *testing.T) {
	stub := &stubRecordClient{
		getFunc: func(context.Context, string, int64) (json.RawMessage, error) {
			return nil, &client.Failure{Table: tableProducts, Op: "get", Status: http.StatusNotFound}
		},
	}
	repo, err := NewCatalogRepository(stub, nil)
	require.NoError(t, err)

	_, err = repo.GetProduct(context.Background(), 99)

	assert.True(t, repositories.IsNotFound(err))
}

func TestGetProductMissingFieldSurfaces(t *testing.T) {
	stub := &stubRecordClient{
		getFunc: func(context.Context, string, int64) (json.RawMessage, error) {
			return json.RawMessage(`{"Id": 3}`), nil
		},
	}
	repo, err := NewCatalogRepository(stub, nil)
	require.NoError(t, err)

	_, err = repo.GetProduct(context.Background(), 3)

	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestCreateProductEncodesRecord(t *testing.T) {
	stub := &stubRecordClient{
		createFunc: func(_ context.Context, table string, record any) (json.RawMessage, error) {
			fields := record.(map[string]any)
			assert.Equal(t, "Sourdough", fields["Name"])
			_, hasID := fields["Id"]
			assert.False(t, hasID)
			return json.RawMessage(`{"Id": 11, "product_name_c": "Sourdough", "price_c": 3.5, "quantity_c": 4}`), nil
		},
	}
	repo, err := NewCatalogRepository(stub, nil)
	require.NoError(t, err)

	product, err := repo.CreateProduct(context.Background(), productInputFixture())

	require.NoError(t, err)
	assert.Equal(t, int64(11), product.ID)
	assert.Equal(t, int64(350), product.Price)
}

func TestListPromosAssignsPriorityByPosition(t *testing.T) {
	stub := &stubRecordClient{
		fetchFunc: func(_ context.Context, table string, _ client.FetchParams) ([]json.RawMessage, error) {
			assert.Equal(t, tablePromos, table)
			return []json.RawMessage{
				json.RawMessage(`{"Id": 1, "title_c": "Weekend", "is_active_c": true}`),
				json.RawMessage(`{"Id": 2, "title_c": "Bakery", "is_active_c": false}`),
			}, nil
		},
	}
	repo, err := NewCatalogRepository(stub, nil)
	require.NoError(t, err)

	promos, err := repo.ListPromos(context.Background())

	require.NoError(t, err)
	require.Len(t, promos, 2)
	assert.Equal(t, 1, promos[0].Priority)
	assert.Equal(t, 2, promos[1].Priority)
}
