package services

import (
	"time"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

const storeLocation = "FreshCart Store"

var trackingSteps = map[OrderStatus]int{
	domain.OrderStatusConfirmed:      0,
	domain.OrderStatusPreparing:      1,
	domain.OrderStatusOutForDelivery: 2,
	domain.OrderStatusDelivered:      3,
}

// BuildTracking derives the delivery progress of an order at now. Events are newest first.
func BuildTracking(order Order, now time.Time, loc *time.Location) OrderTracking {
	if loc == nil {
		loc = time.Local
	}
	step := trackingSteps[order.Status]
	slotTime, hasSlot := slotStart(order.DeliverySlot, loc)

	tracking := OrderTracking{Order: order, StepIndex: step}
	if hasSlot {
		eta := estimatedArrival(order.Status, slotTime, now)
		tracking.EstimatedArrival = &eta
	}

	events := []domain.TrackingEvent{{
		Status:    domain.OrderStatusConfirmed,
		Timestamp: order.CreatedAt,
		Message:   "Order confirmed and payment processed",
		Location:  storeLocation,
	}}
	if step >= 1 {
		events = append(events, domain.TrackingEvent{
			Status:    domain.OrderStatusPreparing,
			Timestamp: order.CreatedAt.Add(30 * time.Minute),
			Message:   "Items being selected and quality checked",
			Location:  storeLocation,
		})
	}
	if step >= 2 {
		events = append(events, domain.TrackingEvent{
			Status:    domain.OrderStatusOutForDelivery,
			Timestamp: order.CreatedAt.Add(90 * time.Minute),
			Message:   "Package loaded and en route",
			Location:  "Distribution Center",
		})
	}
	if step >= 3 {
		delivered := domain.TrackingEvent{
			Status:    domain.OrderStatusDelivered,
			Timestamp: order.CreatedAt.Add(90 * time.Minute),
			Message:   "Successfully delivered to your address",
		}
		if hasSlot {
			delivered.Timestamp = slotTime
		}
		if order.DeliveryAddress != nil {
			delivered.Location = order.DeliveryAddress.Street
		}
		events = append(events, delivered)
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	tracking.Events = events
	return tracking
}

func estimatedArrival(status OrderStatus, slot, now time.Time) time.Time {
	if now.After(slot) {
		return slot
	}
	switch status {
	case domain.OrderStatusConfirmed:
		return slot.Add(-2 * time.Hour)
	case domain.OrderStatusPreparing:
		return slot.Add(-time.Hour)
	case domain.OrderStatusOutForDelivery:
		return slot.Add(-30 * time.Minute)
	default:
		return slot
	}
}

func slotStart(slot *DeliverySlot, loc *time.Location) (time.Time, bool) {
	if slot == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(slotLayout, slot.Date+" "+slot.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
