package memory

import (
	"context"
	"fmt"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

// StoreRepository serves a fixed store directory.
type StoreRepository struct {
	stores []domain.Store
}

var _ repositories.StoreRepository = (*StoreRepository)(nil)

func NewStoreRepository(stores []domain.Store) *StoreRepository {
	return &StoreRepository{stores: append([]domain.Store(nil), stores...)}
}

func (r *StoreRepository) List(context.Context) ([]domain.Store, error) {
	return append([]domain.Store(nil), r.stores...), nil
}

func (r *StoreRepository) FindByID(_ context.Context, storeID int64) (domain.Store, error) {
	for _, store := range r.stores {
		if store.ID == storeID {
			return store, nil
		}
	}
	return domain.Store{}, repositories.NewNotFound("stores.get", fmt.Sprintf("store %d not found", storeID))
}
