package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

const (
	defaultRecentOrders = 5
	quickReorderLimit   = 6
)

var (
	errOrderRepositoryRequired = errors.New("order service: repository is required")
	errOrderClockRequired      = errors.New("order service: clock is required")
)

type productLister interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// OrderServiceDeps wires order persistence, the catalog used for reorder suggestions and
// the event publisher.
type OrderServiceDeps struct {
	Repository  repositories.OrderRepository
	Catalog     productLister
	Events      OrderEventPublisher
	Metrics     Metrics
	Clock       func() time.Time
	Location    *time.Location
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type orderService struct {
	repo     repositories.OrderRepository
	catalog  productLister
	events   OrderEventPublisher
	metrics  Metrics
	now      func() time.Time
	location *time.Location
	logger   func(context.Context, string, map[string]any)
	newID    func() string
}

var _ OrderService = (*orderService)(nil)

func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Repository == nil {
		return nil, errOrderRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}
	location := deps.Location
	if location == nil {
		location = time.Local
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}
	return &orderService{
		repo:     deps.Repository,
		catalog:  deps.Catalog,
		events:   deps.Events,
		metrics:  metrics,
		now:      func() time.Time { return deps.Clock().UTC() },
		location: location,
		logger:   logger,
		newID:    newID,
	}, nil
}

func (s *orderService) Create(ctx context.Context, shopperID string, cmd CreateOrderCommand) (Order, error) {
	if err := validateOrderItems(cmd.Items); err != nil {
		return Order{}, err
	}

	order := Order{
		Items:           append([]CartItem(nil), cmd.Items...),
		DeliverySlot:    cmd.DeliverySlot,
		DeliveryAddress: cmd.DeliveryAddress,
		Status:          cmd.Status,
		CreatedAt:       s.now(),
	}
	if cmd.Totals != nil {
		order.Totals = *cmd.Totals
	} else {
		order.Totals = domain.ComputeTotals(order.Items)
	}
	if strings.TrimSpace(string(order.Status)) == "" {
		order.Status = domain.OrderStatusConfirmed
	}

	shopper := shopperKey(shopperID)
	created, err := s.repo.Insert(ctx, shopper, order)
	if err != nil {
		return Order{}, s.fail(ctx, "order.create_failed", err)
	}
	s.metrics.OrderCreated(ctx, "api")
	s.publish(ctx, shopper, OrderEventCreated, created, "")
	return created, nil
}

func (s *orderService) List(ctx context.Context, shopperID string) ([]Order, error) {
	orders, err := s.repo.List(ctx, shopperKey(shopperID))
	if err != nil {
		return nil, translateRepoError(err, nil)
	}
	return orders, nil
}

// Recent returns the newest orders by creation time.
func (s *orderService) Recent(ctx context.Context, shopperID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = defaultRecentOrders
	}
	orders, err := s.List(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, shopperID string, orderID int64) (Order, error) {
	order, err := s.repo.FindByID(ctx, shopperKey(shopperID), orderID)
	if err != nil {
		return Order{}, translateRepoError(err, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID))
	}
	return order, nil
}

// Update merges the non-nil patch fields into the stored order. The id never changes.
func (s *orderService) Update(ctx context.Context, shopperID string, orderID int64, patch OrderPatch) (Order, error) {
	if patch.Items != nil {
		if len(patch.Items) == 0 {
			return Order{}, fmt.Errorf("%w: items must not be empty", ErrInvalidInput)
		}
		if err := validateOrderItems(patch.Items); err != nil {
			return Order{}, err
		}
	}
	shopper := shopperKey(shopperID)
	var previous OrderStatus
	updated, err := s.repo.Update(ctx, shopper, orderID, func(order *Order) error {
		previous = order.Status
		if patch.Items != nil {
			order.Items = append([]CartItem(nil), patch.Items...)
		}
		if patch.Totals != nil {
			order.Totals = *patch.Totals
		}
		if patch.DeliverySlot != nil {
			slot := *patch.DeliverySlot
			order.DeliverySlot = &slot
		}
		if patch.DeliveryAddress != nil {
			addr := *patch.DeliveryAddress
			order.DeliveryAddress = &addr
		}
		if patch.Status != nil {
			order.Status = *patch.Status
		}
		return nil
	})
	if err != nil {
		return Order{}, translateRepoError(err, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID))
	}
	if updated.Status != previous {
		s.publish(ctx, shopper, OrderEventStatusChanged, updated, previous)
	}
	return updated, nil
}

// UpdateStatus accepts any status string; the set is not enforced.
func (s *orderService) UpdateStatus(ctx context.Context, shopperID string, orderID int64, status OrderStatus) (Order, error) {
	status = OrderStatus(strings.TrimSpace(string(status)))
	if status == "" {
		return Order{}, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	return s.Update(ctx, shopperID, orderID, OrderPatch{Status: &status})
}

func (s *orderService) Delete(ctx context.Context, shopperID string, orderID int64) (Order, error) {
	shopper := shopperKey(shopperID)
	removed, err := s.repo.Delete(ctx, shopper, orderID)
	if err != nil {
		return Order{}, translateRepoError(err, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID))
	}
	s.publish(ctx, shopper, OrderEventDeleted, removed, "")
	return removed, nil
}

func (s *orderService) Tracking(ctx context.Context, shopperID string, orderID int64) (OrderTracking, error) {
	order, err := s.Get(ctx, shopperID, orderID)
	if err != nil {
		return OrderTracking{}, err
	}
	return BuildTracking(order, s.now(), s.location), nil
}

// QuickReorder returns up to six products ordered most often, in catalog order.
func (s *orderService) QuickReorder(ctx context.Context, shopperID string) ([]Product, error) {
	if s.catalog == nil {
		return []Product{}, nil
	}
	orders, err := s.List(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	top := topOrderedProducts(orders, quickReorderLimit)
	if len(top) == 0 {
		return []Product{}, nil
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.logger(ctx, "order.reorder_catalog_failed", map[string]any{"error": err.Error()})
		if errors.Is(err, ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, errors.Join(ErrCatalogUnavailable, err)
	}
	out := make([]Product, 0, len(top))
	for _, product := range products {
		if _, ok := top[product.ID]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

func validateOrderItems(items []CartItem) error {
	for i, item := range items {
		switch {
		case item.ProductID <= 0:
			return fmt.Errorf("%w: items[%d] needs a product id", ErrInvalidInput, i)
		case item.Quantity <= 0:
			return fmt.Errorf("%w: items[%d] quantity must be positive", ErrInvalidInput, i)
		case item.Price < 0:
			return fmt.Errorf("%w: items[%d] price must not be negative", ErrInvalidInput, i)
		}
	}
	return nil
}

func topOrderedProducts(orders []Order, limit int) map[int64]struct{} {
	totals := map[int64]int{}
	var ids []int64
	for _, order := range orders {
		for _, item := range order.Items {
			if _, seen := totals[item.ProductID]; !seen {
				ids = append(ids, item.ProductID)
			}
			totals[item.ProductID] += item.Quantity
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return totals[ids[i]] > totals[ids[j]]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// publish never fails the mutation; failures are logged.
func (s *orderService) publish(ctx context.Context, shopperID, eventType string, order Order, previous OrderStatus) {
	if s.events == nil {
		return
	}
	event := OrderEvent{
		EventID:        s.newID(),
		Type:           eventType,
		ShopperID:      shopperID,
		OrderID:        order.ID,
		Status:         order.Status,
		PreviousStatus: previous,
		Total:          order.Totals.Total,
		OccurredAt:     s.now(),
	}
	if _, err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event_publish_failed", map[string]any{
			"eventType": eventType,
			"orderId":   order.ID,
			"error":     err.Error(),
		})
	}
}

func (s *orderService) fail(ctx context.Context, event string, err error) error {
	err = translateRepoError(err, nil)
	if errors.Is(err, ErrStorageUnavailable) {
		s.logger(ctx, event, map[string]any{"error": err.Error()})
	}
	return err
}
