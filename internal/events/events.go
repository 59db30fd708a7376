// Package events publishes domain events for other services to consume.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const TypeOrderCreated = "order.created"

// OrderCreated is emitted once a checkout has committed.
type OrderCreated struct {
	EventID       string          `json:"eventId"`
	Type          string          `json:"type"`
	OccurredAt    time.Time       `json:"occurredAt"`
	OrderID       int             `json:"orderId"`
	ClientID      int             `json:"clientId"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	ItemCount     int             `json:"itemCount"`
	Total         decimal.Decimal `json:"totalAmount"`
	NetTotal      decimal.Decimal `json:"netTotal"`
	VATTotal      decimal.Decimal `json:"vatTotal"`
}

// NewOrderCreated stamps a fresh event id and type.
func NewOrderCreated(e OrderCreated, now time.Time) OrderCreated {
	e.EventID = uuid.NewString()
	e.Type = TypeOrderCreated
	e.OccurredAt = now.UTC()
	return e
}

type Publisher interface {
	PublishOrderCreated(ctx context.Context, e OrderCreated) error
}

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	w Writer
}

func NewKafkaPublisher(w Writer) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

// NewKafkaWriter returns a writer for topic on the given brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           5 * time.Second,
	}
}

// PublishOrderCreated keys the message by order so every event of one order
// lands on the same partition.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, e OrderCreated) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%d", e.OrderID)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-id", Value: []byte(e.EventID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %d: %w", e.Type, e.OrderID, err)
	}
	return nil
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, OrderCreated) error { return nil }
