package memory

import (
	"context"
	"sync"

	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

type FavoriteStoreRepository struct {
	mu        sync.Mutex
	favorites map[string][]int64
}

var _ repositories.FavoriteStoreRepository = (*FavoriteStoreRepository)(nil)

func NewFavoriteStoreRepository() *FavoriteStoreRepository {
	return &FavoriteStoreRepository{favorites: make(map[string][]int64)}
}

func (r *FavoriteStoreRepository) List(_ context.Context, shopperID string) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64{}, r.favorites[shopperID]...), nil
}

func (r *FavoriteStoreRepository) Add(ctx context.Context, shopperID string, storeID int64, limit int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.favorites[shopperID]
	for _, id := range current {
		if id == storeID {
			return false, nil
		}
	}
	if limit > 0 && len(current) >= limit {
		return false, repositories.NewFavoriteLimitReached("favorites.add", limit)
	}
	r.favorites[shopperID] = append(current, storeID)
	return true, nil
}

func (r *FavoriteStoreRepository) Remove(ctx context.Context, shopperID string, storeID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.favorites[shopperID]
	kept := current[:0:0]
	for _, id := range current {
		if id != storeID {
			kept = append(kept, id)
		}
	}
	r.favorites[shopperID] = kept
	return nil
}
