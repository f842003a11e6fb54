package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/apper-canvas/freshcartelevate/internal/platform/textutil"
	"github.com/apper-canvas/freshcartelevate/internal/services"
)

// PubSubOrderEventPublisher publishes order lifecycle events to a Pub/Sub topic.
type PubSubOrderEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

func NewPubSubOrderEventPublisher(topic *pubsub.Topic) (*PubSubOrderEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order event publisher: topic is required")
	}
	return &PubSubOrderEventPublisher{topic: topic, marshal: json.Marshal}, nil
}

// PublishOrderEvent blocks until Pub/Sub acknowledges the message and returns its server id.
func (p *PubSubOrderEventPublisher) PublishOrderEvent(ctx context.Context, event services.OrderEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub order event publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal order event: %w", err)
	}

	attrs := textutil.NormalizeStringMap(map[string]string{
		"eventId":        event.EventID,
		"eventType":      event.Type,
		"shopperId":      event.ShopperID,
		"orderId":        strconv.FormatInt(event.OrderID, 10),
		"status":         string(event.Status),
		"previousStatus": string(event.PreviousStatus),
	})

	id, err := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish order event: %w", err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *PubSubOrderEventPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

// LogOrderEventPublisher writes events to the log when Pub/Sub is not configured.
type LogOrderEventPublisher struct {
	logger *zap.Logger
}

func NewLogOrderEventPublisher(logger *zap.Logger) *LogOrderEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogOrderEventPublisher{logger: logger}
}

func (p *LogOrderEventPublisher) PublishOrderEvent(_ context.Context, event services.OrderEvent) (string, error) {
	p.logger.Info("order event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.Type),
		zap.String("shopper_id", event.ShopperID),
		zap.Int64("order_id", event.OrderID),
		zap.String("status", string(event.Status)),
	)
	return event.EventID, nil
}
