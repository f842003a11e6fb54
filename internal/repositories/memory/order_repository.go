package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

type OrderRepository struct {
	mu     sync.Mutex
	orders map[string][]domain.Order
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string][]domain.Order)}
}

func (r *OrderRepository) List(_ context.Context, shopperID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := r.orders[shopperID]
	out := make([]domain.Order, len(orders))
	for i, order := range orders {
		out[i] = cloneOrder(order)
	}
	return out, nil
}

func (r *OrderRepository) FindByID(_ context.Context, shopperID string, orderID int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(shopperID, orderID)
	if idx < 0 {
		return domain.Order{}, orderNotFound("orders.get", orderID)
	}
	return cloneOrder(r.orders[shopperID][idx]), nil
}

func (r *OrderRepository) Insert(ctx context.Context, shopperID string, order domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.orders[shopperID]
	var maxID int64
	for _, o := range existing {
		if o.ID > maxID {
			maxID = o.ID
		}
	}
	order.ID = maxID + 1
	stored := cloneOrder(order)
	r.orders[shopperID] = append([]domain.Order{stored}, existing...)
	return cloneOrder(stored), nil
}

func (r *OrderRepository) Update(ctx context.Context, shopperID string, orderID int64, fn func(*domain.Order) error) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(shopperID, orderID)
	if idx < 0 {
		return domain.Order{}, orderNotFound("orders.update", orderID)
	}
	working := cloneOrder(r.orders[shopperID][idx])
	if err := fn(&working); err != nil {
		return domain.Order{}, err
	}
	working.ID = orderID
	r.orders[shopperID][idx] = cloneOrder(working)
	return working, nil
}

func (r *OrderRepository) Delete(ctx context.Context, shopperID string, orderID int64) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(shopperID, orderID)
	if idx < 0 {
		return domain.Order{}, orderNotFound("orders.delete", orderID)
	}
	orders := r.orders[shopperID]
	removed := orders[idx]
	r.orders[shopperID] = append(orders[:idx:idx], orders[idx+1:]...)
	return removed, nil
}

func (r *OrderRepository) indexOf(shopperID string, orderID int64) int {
	for i, order := range r.orders[shopperID] {
		if order.ID == orderID {
			return i
		}
	}
	return -1
}

func orderNotFound(op string, orderID int64) error {
	return repositories.NewNotFound(op, fmt.Sprintf("order %d not found", orderID))
}

func cloneOrder(order domain.Order) domain.Order {
	order.Items = cloneItems(order.Items)
	if order.DeliverySlot != nil {
		slot := *order.DeliverySlot
		order.DeliverySlot = &slot
	}
	if order.DeliveryAddress != nil {
		addr := *order.DeliveryAddress
		order.DeliveryAddress = &addr
	}
	return order
}
