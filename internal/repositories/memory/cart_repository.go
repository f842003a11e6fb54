package memory

import (
	"context"
	"sync"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

type CartRepository struct {
	mu    sync.Mutex
	carts map[string][]domain.CartItem
}

var _ repositories.CartRepository = (*CartRepository)(nil)

func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string][]domain.CartItem)}
}

func (r *CartRepository) Get(_ context.Context, shopperID string) ([]domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneItems(r.carts[shopperID]), nil
}

// Mutate runs fn while holding the repository lock so concurrent mutations never
// overwrite each other.
func (r *CartRepository) Mutate(ctx context.Context, shopperID string, fn repositories.CartMutation) ([]domain.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(cloneItems(r.carts[shopperID]))
	if err != nil {
		return nil, err
	}
	if len(next) == 0 {
		delete(r.carts, shopperID)
		return []domain.CartItem{}, nil
	}
	r.carts[shopperID] = cloneItems(next)
	return cloneItems(next), nil
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
