package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

var errCheckoutDepsRequired = errors.New("checkout service: cart, order and delivery services are required")

// CheckoutServiceDeps composes the services checkout coordinates.
type CheckoutServiceDeps struct {
	Cart     CartService
	Orders   OrderService
	Delivery DeliveryService
	Logger   func(context.Context, string, map[string]any)
}

type checkoutService struct {
	cart     CartService
	orders   OrderService
	delivery DeliveryService
	logger   func(context.Context, string, map[string]any)
}

var _ CheckoutService = (*checkoutService)(nil)

func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Cart == nil || deps.Orders == nil || deps.Delivery == nil {
		return nil, errCheckoutDepsRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutService{cart: deps.Cart, orders: deps.Orders, delivery: deps.Delivery, logger: logger}, nil
}

// Checkout reserves the slot, places a confirmed order from the cart snapshot and clears
// the cart. A failed clear is logged and the order still stands.
func (s *checkoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	if err := validateAddress(cmd.Address); err != nil {
		return CheckoutResult{}, err
	}

	items, err := s.cart.Items(ctx, cmd.ShopperID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(items) == 0 {
		return CheckoutResult{}, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}

	slot, err := s.delivery.SlotByID(ctx, cmd.SlotID)
	if err != nil {
		return CheckoutResult{}, err
	}
	reservation, err := s.delivery.Reserve(ctx, slot)
	if err != nil {
		return CheckoutResult{}, err
	}

	totals := domain.ComputeTotals(items)
	address := cmd.Address
	order, err := s.orders.Create(ctx, cmd.ShopperID, CreateOrderCommand{
		Items:           items,
		Totals:          &totals,
		DeliverySlot:    &reservation.Slot,
		DeliveryAddress: &address,
		Status:          domain.OrderStatusConfirmed,
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	if err := s.cart.Clear(ctx, cmd.ShopperID); err != nil {
		s.logger(ctx, "checkout.cart_clear_failed", map[string]any{"orderId": order.ID, "error": err.Error()})
	}
	s.logger(ctx, "checkout.completed", map[string]any{
		"orderId":       order.ID,
		"reservationId": reservation.ReservationID,
		"total":         order.Totals.Total,
	})
	return CheckoutResult{Order: order, Reservation: reservation}, nil
}

func validateAddress(address DeliveryAddress) error {
	var missing []string
	if strings.TrimSpace(address.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(address.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(address.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(address.ZipCode) == "" {
		missing = append(missing, "zipCode")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: delivery address missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
