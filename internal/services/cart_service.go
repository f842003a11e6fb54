package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

var errCartRepositoryRequired = errors.New("cart service: repository is required")

// CartServiceDeps wires the cart repository.
type CartServiceDeps struct {
	Repository repositories.CartRepository
	Metrics    Metrics
	Logger     func(context.Context, string, map[string]any)
}

type cartService struct {
	repo    repositories.CartRepository
	metrics Metrics
	logger  func(context.Context, string, map[string]any)
}

var _ CartService = (*cartService)(nil)

func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &cartService{repo: deps.Repository, metrics: metrics, logger: logger}, nil
}

func (s *cartService) Items(ctx context.Context, shopperID string) ([]CartItem, error) {
	items, err := s.repo.Get(ctx, shopperKey(shopperID))
	if err != nil {
		return nil, translateRepoError(err, nil)
	}
	return items, nil
}

func (s *cartService) Add(ctx context.Context, shopperID string, item CartItem) ([]CartItem, error) {
	if item.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if item.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	item.Name = strings.TrimSpace(item.Name)

	items, err := s.mutate(ctx, shopperID, "add", func(current []CartItem) ([]CartItem, error) {
		if idx := indexOfCartItem(current, item.ProductID); idx >= 0 {
			current[idx].Quantity += item.Quantity
			return current, nil
		}
		return append(current, item), nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(ctx, "cart.item_added", map[string]any{"productId": item.ProductID, "quantity": item.Quantity})
	return items, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, shopperID string, productID int64, quantity int) ([]CartItem, error) {
	return s.mutate(ctx, shopperID, "update", func(current []CartItem) ([]CartItem, error) {
		idx := indexOfCartItem(current, productID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: product %d", ErrCartItemNotFound, productID)
		}
		if quantity <= 0 {
			return append(current[:idx], current[idx+1:]...), nil
		}
		current[idx].Quantity = quantity
		return current, nil
	})
}

func (s *cartService) Remove(ctx context.Context, shopperID string, productID int64) (CartItem, error) {
	var removed CartItem
	_, err := s.mutate(ctx, shopperID, "remove", func(current []CartItem) ([]CartItem, error) {
		idx := indexOfCartItem(current, productID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: product %d", ErrCartItemNotFound, productID)
		}
		removed = current[idx]
		return append(current[:idx], current[idx+1:]...), nil
	})
	if err != nil {
		return CartItem{}, err
	}
	return removed, nil
}

func (s *cartService) Clear(ctx context.Context, shopperID string) error {
	_, err := s.mutate(ctx, shopperID, "clear", func([]CartItem) ([]CartItem, error) {
		return []CartItem{}, nil
	})
	return err
}

func (s *cartService) Count(ctx context.Context, shopperID string) (int, error) {
	items, err := s.Items(ctx, shopperID)
	if err != nil {
		return 0, err
	}
	return domain.ItemCount(items), nil
}

// Total is recomputed from the stored items on every call.
func (s *cartService) Total(ctx context.Context, shopperID string) (int64, error) {
	items, err := s.Items(ctx, shopperID)
	if err != nil {
		return 0, err
	}
	return domain.Subtotal(items), nil
}

func (s *cartService) Summary(ctx context.Context, shopperID string) (CartSummary, error) {
	items, err := s.Items(ctx, shopperID)
	if err != nil {
		return CartSummary{}, err
	}
	return CartSummary{
		Items:  items,
		Count:  domain.ItemCount(items),
		Totals: domain.ComputeTotals(items),
	}, nil
}

func (s *cartService) mutate(ctx context.Context, shopperID, op string, fn repositories.CartMutation) ([]CartItem, error) {
	items, err := s.repo.Mutate(ctx, shopperKey(shopperID), fn)
	if err != nil {
		err = translateRepoError(err, nil)
		if errors.Is(err, ErrStorageUnavailable) {
			s.logger(ctx, "cart.mutation_failed", map[string]any{"op": op, "error": err.Error()})
		}
		return nil, err
	}
	s.metrics.CartMutation(ctx, op)
	return items, nil
}

func indexOfCartItem(items []CartItem, productID int64) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// shopperKey falls back to the guest shopper when no identity was resolved.
func shopperKey(shopperID string) string {
	if id := strings.TrimSpace(shopperID); id != "" {
		return id
	}
	return domain.GuestShopperID
}
