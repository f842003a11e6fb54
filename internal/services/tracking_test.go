package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

func TestBuildTrackingOutForDelivery(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	order := Order{
		ID:              1,
		Status:          domain.OrderStatusOutForDelivery,
		CreatedAt:       created,
		DeliverySlot:    &DeliverySlot{ID: 3, Date: "2024-05-01", Time: "14:00"},
		DeliveryAddress: &DeliveryAddress{Street: "1 Main St"},
	}

	tracking := BuildTracking(order, created.Add(time.Hour), time.UTC)

	assert.Equal(t, 2, tracking.StepIndex)
	require.NotNil(t, tracking.EstimatedArrival)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC), *tracking.EstimatedArrival)
	require.Len(t, tracking.Events, 3)
	assert.Equal(t, domain.OrderStatusOutForDelivery, tracking.Events[0].Status)
	assert.Equal(t, "Distribution Center", tracking.Events[0].Location)
	assert.Equal(t, domain.OrderStatusConfirmed, tracking.Events[2].Status)
	assert.Equal(t, created, tracking.Events[2].Timestamp)
}

func TestBuildTrackingDeliveredUsesSlotAndStreet(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	order := Order{
		Status:          domain.OrderStatusDelivered,
		CreatedAt:       created,
		DeliverySlot:    &DeliverySlot{Date: "2024-05-01", Time: "11:00"},
		DeliveryAddress: &DeliveryAddress{Street: "1 Main St"},
	}

	tracking := BuildTracking(order, created.Add(5*time.Hour), time.UTC)

	assert.Equal(t, 3, tracking.StepIndex)
	require.Len(t, tracking.Events, 4)
	latest := tracking.Events[0]
	assert.Equal(t, domain.OrderStatusDelivered, latest.Status)
	assert.Equal(t, "1 Main St", latest.Location)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), latest.Timestamp)
	require.NotNil(t, tracking.EstimatedArrival)
	assert.Equal(t, latest.Timestamp, *tracking.EstimatedArrival)
}

func TestBuildTrackingUnknownStatusAndNoSlot(t *testing.T) {
	order := Order{Status: "on_hold", CreatedAt: time.Now()}
	tracking := BuildTracking(order, time.Now(), nil)

	assert.Equal(t, 0, tracking.StepIndex)
	assert.Nil(t, tracking.EstimatedArrival)
	assert.Len(t, tracking.Events, 1)
}
