package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/apper-canvas/freshcartelevate"

// Metrics groups the storefront counters recorded by services and the backend client.
type Metrics struct {
	cartMutations   metric.Int64Counter
	ordersCreated   metric.Int64Counter
	backendLatency  metric.Float64Histogram
	inventoryLookup metric.Int64Counter
}

// NewMetrics registers instruments against the global meter provider.
// Without a configured provider the instruments are no-ops.
func NewMetrics() (*Metrics, error) {
	meter := otel.GetMeterProvider().Meter(meterName)

	cartMutations, err := meter.Int64Counter("freshcart.cart.mutations",
		metric.WithDescription("Cart mutations by operation"))
	if err != nil {
		return nil, err
	}
	ordersCreated, err := meter.Int64Counter("freshcart.orders.created",
		metric.WithDescription("Orders created"))
	if err != nil {
		return nil, err
	}
	backendLatency, err := meter.Float64Histogram("freshcart.backend.latency",
		metric.WithDescription("Record backend call latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	inventoryLookup, err := meter.Int64Counter("freshcart.inventory.lookups",
		metric.WithDescription("Store inventory lookups by cache outcome"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		cartMutations:   cartMutations,
		ordersCreated:   ordersCreated,
		backendLatency:  backendLatency,
		inventoryLookup: inventoryLookup,
	}, nil
}

func (m *Metrics) CartMutation(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) OrderCreated(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// BackendCall records the latency of a record backend call.
func (m *Metrics) BackendCall(ctx context.Context, table, op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.backendLatency.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("op", op),
		attribute.Bool("error", err != nil),
	))
}

func (m *Metrics) InventoryLookup(ctx context.Context, cacheHit bool) {
	if m == nil {
		return
	}
	m.inventoryLookup.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cache_hit", cacheHit)))
}
