package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeliveryService(t *testing.T, deps DeliveryServiceDeps) DeliveryService {
	t.Helper()
	if deps.Clock == nil {
		now := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
		deps.Clock = func() time.Time { return now }
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	svc, err := NewDeliveryService(deps)
	require.NoError(t, err)
	return svc
}

func TestDeliveryServiceGeneratesSevenDaysOfSlots(t *testing.T) {
	svc := newTestDeliveryService(t, DeliveryServiceDeps{})

	slots, err := svc.AvailableSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 35)

	assert.Equal(t, DeliverySlot{ID: 1, Date: "2024-05-01", Time: "09:00", Available: slots[0].Available}, slots[0])
	last := slots[34]
	assert.Equal(t, 35, last.ID)
	assert.Equal(t, "2024-05-07", last.Date)
	assert.Equal(t, "18:00", last.Time)
	for i, slot := range slots {
		assert.Equal(t, i+1, slot.ID)
	}
}

func TestDeliveryServiceStableModeIsDeterministic(t *testing.T) {
	first := newTestDeliveryService(t, DeliveryServiceDeps{Seed: "alpha"})
	second := newTestDeliveryService(t, DeliveryServiceDeps{Seed: "alpha"})

	a, err := first.AvailableSlots(context.Background())
	require.NoError(t, err)
	b, err := second.AvailableSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDeliveryServiceRandomModeUsesThreshold(t *testing.T) {
	values := []float64{0.10, 0.15, 0.99}
	var calls int
	svc := newTestDeliveryService(t, DeliveryServiceDeps{
		Mode: DeliveryModeRandom,
		Random: func() float64 {
			v := values[calls%len(values)]
			calls++
			return v
		},
	})

	slots, err := svc.AvailableSlots(context.Background())
	require.NoError(t, err)
	assert.False(t, slots[0].Available)
	assert.True(t, slots[1].Available)
	assert.True(t, slots[2].Available)
}

func TestDeliveryServiceRejectsUnknownMode(t *testing.T) {
	_, err := NewDeliveryService(DeliveryServiceDeps{Clock: time.Now, Mode: "sometimes"})
	assert.Error(t, err)
}

func TestDeliveryServiceSlotLookups(t *testing.T) {
	ctx := context.Background()
	svc := newTestDeliveryService(t, DeliveryServiceDeps{})

	slot, err := svc.SlotByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", slot.Date)
	assert.Equal(t, "11:00", slot.Time)

	_, err = svc.SlotByID(ctx, 36)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	byDate, err := svc.SlotsByDate(ctx, "2024-05-03")
	require.NoError(t, err)
	assert.Len(t, byDate, 5)

	_, err = svc.SlotsByDate(ctx, "05/03/2024")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeliveryServiceReserve(t *testing.T) {
	ctx := context.Background()
	svc := newTestDeliveryService(t, DeliveryServiceDeps{IDGenerator: func() string { return "01HX" }})

	reservation, err := svc.Reserve(ctx, DeliverySlot{ID: 2, Date: "2024-05-01", Time: "11:00", Available: true})
	require.NoError(t, err)
	assert.Equal(t, "RES-01HX", reservation.ReservationID)
	assert.Equal(t, 2, reservation.Slot.ID)

	_, err = svc.Reserve(ctx, DeliverySlot{ID: 2, Date: "2024-05-01", Time: "11:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = svc.Reserve(ctx, DeliverySlot{ID: 2})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
