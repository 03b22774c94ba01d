package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate, e.g. OrderCancelled
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent is embedded by every concrete event
type BaseDomainEvent struct {
	ID      uuid.UUID `json:"event_id"`
	Type    string    `json:"event_type"`
	At      time.Time `json:"occurred_at"`
	Subject uuid.UUID `json:"aggregate_id"`
	Kind    string    `json:"aggregate_type"`
}

// NewBaseDomainEvent stamps an event of eventType raised by the aggregate
// aggType/aggID
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:      uuid.New(),
		Type:    eventType,
		At:      time.Now(),
		Subject: aggID,
		Kind:    aggType,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Subject }
func (e *BaseDomainEvent) AggregateType() string  { return e.Kind }

// EventHandler reacts to published events. An empty EventTypes means all events.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what application services depend on. Every subscribed
// handler runs and the returned error joins their failures.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is the publisher plus subscription and lifecycle
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
