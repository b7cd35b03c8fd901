// Package events announces chat milestones (sessions, identities,
// confirmed bookings, exchange outcomes) to downstream consumers.
package events

import (
	"context"
	"time"

	"storagechat/pkg/kafka"
)

const (
	TypeSessionStarted    = "chat.session.started"
	TypeSessionEnded      = "chat.session.ended"
	TypeIdentityAccepted  = "chat.identity.accepted"
	TypeBookingConfirmed  = "chat.booking.confirmed"
	TypeExchangeCompleted = "chat.exchange.completed"
	TypeExchangeFailed    = "chat.exchange.failed"

	SchemaVersion = "1"
	Source        = "storagechat"
)

type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	RequestID string    `json:"requestId,omitempty"`
	At        time.Time `json:"at"`
	Payload   any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish keys every event by session id so one conversation stays on one
// partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.SessionID).
		WithValue(event).
		WithEventType(event.Type).
		WithConversationID(event.SessionID).
		WithCorrelationID(event.RequestID).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(event.At).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
