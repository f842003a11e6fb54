package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	slotLayout       = "2006-01-02 15:04"
	dateLayout       = "2006-01-02"
	slotDays         = 7
	unavailablePct   = 15
	reservationIDPfx = "RES-"
)

var slotTimes = []string{"09:00", "11:00", "14:00", "16:00", "18:00"}

const (
	// DeliveryModeStable derives availability from a hash so a slot keeps its answer.
	DeliveryModeStable = "stable"
	// DeliveryModeRandom re-rolls availability on every call.
	DeliveryModeRandom = "random"
)

var errDeliveryClockRequired = errors.New("delivery service: clock is required")

type DeliveryServiceDeps struct {
	Clock       func() time.Time
	Location    *time.Location
	Mode        string
	Seed        string
	Random      func() float64
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type deliveryService struct {
	now      func() time.Time
	location *time.Location
	mode     string
	seed     string
	random   func() float64
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

var _ DeliveryService = (*deliveryService)(nil)

func NewDeliveryService(deps DeliveryServiceDeps) (DeliveryService, error) {
	if deps.Clock == nil {
		return nil, errDeliveryClockRequired
	}
	mode := strings.ToLower(strings.TrimSpace(deps.Mode))
	switch mode {
	case "":
		mode = DeliveryModeStable
	case DeliveryModeStable, DeliveryModeRandom:
	default:
		return nil, fmt.Errorf("delivery service: unknown availability mode %q", deps.Mode)
	}
	location := deps.Location
	if location == nil {
		location = time.Local
	}
	random := deps.Random
	if random == nil {
		var mu sync.Mutex
		src := rand.New(rand.NewSource(time.Now().UnixNano()))
		random = func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return src.Float64()
		}
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &deliveryService{
		now:      deps.Clock,
		location: location,
		mode:     mode,
		seed:     deps.Seed,
		random:   random,
		newID:    newID,
		logger:   logger,
	}, nil
}

// AvailableSlots returns 35 slots: today and the next six days at five fixed times.
// Slot ids are day*5 + timeIndex + 1.
func (s *deliveryService) AvailableSlots(ctx context.Context) ([]DeliverySlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.generate(), nil
}

func (s *deliveryService) SlotByID(ctx context.Context, slotID int) (DeliverySlot, error) {
	slots, err := s.AvailableSlots(ctx)
	if err != nil {
		return DeliverySlot{}, err
	}
	for _, slot := range slots {
		if slot.ID == slotID {
			return slot, nil
		}
	}
	return DeliverySlot{}, fmt.Errorf("%w: %d", ErrSlotNotFound, slotID)
}

func (s *deliveryService) SlotsByDate(ctx context.Context, date string) ([]DeliverySlot, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	slots, err := s.AvailableSlots(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DeliverySlot, 0, len(slotTimes))
	for _, slot := range slots {
		if slot.Date == date {
			out = append(out, slot)
		}
	}
	return out, nil
}

// Reserve confirms a slot previously read from this service. Nothing is held; the
// reservation id identifies the request.
func (s *deliveryService) Reserve(ctx context.Context, slot DeliverySlot) (SlotReservation, error) {
	if err := ctx.Err(); err != nil {
		return SlotReservation{}, err
	}
	if slot.ID <= 0 || strings.TrimSpace(slot.Date) == "" || strings.TrimSpace(slot.Time) == "" {
		return SlotReservation{}, fmt.Errorf("%w: slot id, date and time are required", ErrInvalidInput)
	}
	if !slot.Available {
		return SlotReservation{}, fmt.Errorf("%w: %d", ErrSlotUnavailable, slot.ID)
	}
	reservation := SlotReservation{
		ReservationID: reservationIDPfx + s.newID(),
		Slot:          slot,
		ReservedAt:    s.now().UTC(),
	}
	s.logger(ctx, "delivery.slot_reserved", map[string]any{"slotId": slot.ID, "reservationId": reservation.ReservationID})
	return reservation, nil
}

func (s *deliveryService) generate() []DeliverySlot {
	today := s.now().In(s.location)
	slots := make([]DeliverySlot, 0, slotDays*len(slotTimes))
	for day := 0; day < slotDays; day++ {
		date := today.AddDate(0, 0, day).Format(dateLayout)
		for idx, at := range slotTimes {
			slots = append(slots, DeliverySlot{
				ID:        day*len(slotTimes) + idx + 1,
				Date:      date,
				Time:      at,
				Available: s.available(date, at),
			})
		}
	}
	return slots
}

func (s *deliveryService) available(date, at string) bool {
	if s.mode == DeliveryModeRandom {
		return s.random() >= float64(unavailablePct)/100
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s.seed + "|" + date + "|" + at))
	return h.Sum32()%100 >= unavailablePct
}
