package kafka

import (
	"context"

	"github.com/ariefcatur/go-coffee-orders/internal/shop"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventVersion = 1

type messagePublisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// Publisher forwards order events from the shop bus to Kafka. Other event
// types stay in process.
type Publisher struct {
	placed   messagePublisher
	status   messagePublisher
	producer string
	log      *zap.Logger
}

func NewPublisher(placed, status *Producer, service string, log *zap.Logger) *Publisher {
	return &Publisher{placed: placed, status: status, producer: service, log: log}
}

func (p *Publisher) Notify(ctx context.Context, ev shop.Event) {
	if ev.Order == nil {
		return
	}
	o := *ev.Order
	var (
		out     messagePublisher
		payload any
		topic   string
	)
	switch ev.Type {
	case shop.EventOrderPlaced:
		out, topic, payload = p.placed, shop.TopicOrderPlaced, shop.NewOrderPlacedPayload(o)
	case shop.EventOrderStatusChanged:
		out, topic = p.status, shop.TopicOrderStatusChanged
		payload = shop.OrderStatusChangedPayload{
			OrderID:       o.ID,
			CustomerEmail: o.CustomerEmail,
			From:          ev.PreviousStatus,
			To:            o.Status,
		}
	default:
		return
	}

	env := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     topic,
		EventVersion:  EventVersion,
		OccurredAt:    ev.OccurredAt,
		Producer:      p.producer,
		CorrelationID: o.ID,
		Payload:       MustMarshal(payload),
	}
	err := out.Publish(ctx, shop.PartitionKey(o.ID), MustMarshal(env),
		kafka.Header{Key: "event_type", Value: []byte(topic)},
		kafka.Header{Key: "event_id", Value: []byte(env.EventID)},
	)
	if err != nil {
		p.log.Error("publish order event",
			zap.String("topic", topic),
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
}
