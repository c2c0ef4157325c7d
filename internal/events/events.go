// Package events defines the domain events exchanged over Kafka between the
// bookings service and the recalculator.
package events

import (
	"context"
	"fmt"
	"time"

	"opatam/pkg/kafka"
	"opatam/pkg/middleware"
	"opatam/pkg/model"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeNextAvailableChanged = "availability.next_available_changed"

	SchemaVersion = "1"
)

type BookingEvent struct {
	BookingID      string              `json:"booking_id"`
	ProviderID     string              `json:"provider_id"`
	MemberID       string              `json:"member_id"`
	ServiceID      string              `json:"service_id"`
	Datetime       time.Time           `json:"datetime"`
	EndDatetime    time.Time           `json:"end_datetime"`
	Status         model.BookingStatus `json:"status"`
	PreviousStatus model.BookingStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func NewBookingEvent(b *model.Booking, previous model.BookingStatus) BookingEvent {
	return BookingEvent{
		BookingID:      b.ID,
		ProviderID:     b.ProviderID,
		MemberID:       b.MemberID,
		ServiceID:      b.ServiceID,
		Datetime:       b.Datetime,
		EndDatetime:    b.EndDatetime,
		Status:         b.Status,
		PreviousStatus: previous,
		OccurredAt:     time.Now().UTC(),
	}
}

// NextAvailableChanged is emitted when a recalculation writes a new
// next_available_date. Nil dates mean "nothing within the horizon".
type NextAvailableChanged struct {
	ProviderID string    `json:"provider_id"`
	Previous   *string   `json:"previous,omitempty"`
	Current    *string   `json:"current,omitempty"`
	RunID      string    `json:"run_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends one event keyed by key, so events of one provider stay ordered.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// NopPublisher drops every event. Used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
