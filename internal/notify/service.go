// Package notify turns published order events into customer messages.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kafkax "github.com/ariefcatur/go-coffee-orders/internal/kafka"
	"github.com/ariefcatur/go-coffee-orders/internal/redisx"
	"github.com/ariefcatur/go-coffee-orders/internal/shop"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Message struct {
	OrderID string    `json:"order_id"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

type Service struct {
	Redis       *redis.Client
	ServiceName string
	Log         *zap.Logger
}

// Handle is the consumer handler for both order topics. Each event is
// delivered at most once per event id.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		return kafkax.Permanent(err)
	}

	var (
		email string
		text  string
	)
	switch env.EventType {
	case shop.TopicOrderPlaced:
		p, err := kafkax.UnwrapPayload[shop.OrderPlacedPayload](env.Payload)
		if err != nil {
			return kafkax.Permanent(err)
		}
		email = p.CustomerEmail
		text = fmt.Sprintf("Payment successful! Order %s created. You earned %d points!", p.OrderID, p.PointsEarned)
	case shop.TopicOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[shop.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return kafkax.Permanent(err)
		}
		email = p.CustomerEmail
		text = fmt.Sprintf("Order #%s status updated to %s", p.OrderID, p.To)
	default:
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	won, err := redisx.Claim(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !won {
		s.Log.Debug("duplicate event", zap.String("event_id", env.EventID))
		return nil
	}

	msg := Message{OrderID: env.CorrelationID, Text: text, At: env.OccurredAt}
	if err := s.deliver(ctx, email, msg); err != nil {
		// release the claim so a redelivery can try again
		_ = s.Redis.Del(ctx, dkey).Err()
		return err
	}
	s.Log.Info("customer notified",
		zap.String("email", email),
		zap.String("order_id", msg.OrderID),
		zap.String("event_type", env.EventType))
	return nil
}

func (s *Service) deliver(ctx context.Context, email string, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := inboxKey(email)
	_, err = s.Redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, b)
		p.LTrim(ctx, key, 0, redisx.InboxLimit-1)
		return nil
	})
	return err
}

// Inbox returns a customer's messages, newest first.
func (s *Service) Inbox(ctx context.Context, email string) ([]Message, error) {
	raw, err := s.Redis.LRange(ctx, inboxKey(email), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decode inbox message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func inboxKey(email string) string {
	return fmt.Sprintf(redisx.KeyInbox, strings.ToLower(email))
}
