package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/petstore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// HandlerFunc adapts a plain function to shared.EventHandler
type HandlerFunc struct {
	types []string
	fn    func(ctx context.Context, event shared.DomainEvent) error
}

// NewHandlerFunc wraps fn for the given event types, or for every event
// when none are given
func NewHandlerFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *HandlerFunc {
	return &HandlerFunc{types: eventTypes, fn: fn}
}

func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

func (h *HandlerFunc) EventTypes() []string { return h.types }

type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{} // nil matches everything
}

func (s subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// InMemoryEventBus dispatches domain events synchronously, inside the
// publishing request, to subscribers in the order they subscribed.
type InMemoryEventBus struct {
	mu      sync.RWMutex
	subs    []subscription
	logger  *zap.Logger
	running atomic.Bool
}

// NewInMemoryEventBus creates an empty bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{logger: logger.Named("event_bus")}
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used; an empty list subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	sub := subscription{handler: handler}
	if len(eventTypes) > 0 {
		sub.types = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe drops every subscription of handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.handler == handler })
}

// Subscribers returns the number of live subscriptions
func (b *InMemoryEventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []shared.EventHandler
	for _, s := range b.subs {
		if s.matches(eventType) {
			out = append(out, s.handler)
		}
	}
	return out
}

// Publish delivers each event to its handlers. A failing handler does not
// stop the others; failures are joined into the returned error.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error
	for _, evt := range events {
		for _, h := range b.handlersFor(evt.EventType()) {
			err := b.dispatch(ctx, h, evt)
			if err == nil {
				continue
			}
			b.logger.Error("handler failed to process event",
				zap.String("event_type", evt.EventType()),
				zap.String("event_id", evt.EventID().String()),
				zap.String("aggregate_type", evt.AggregateType()),
				zap.String("aggregate_id", evt.AggregateID().String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", evt.EventType(), err))
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, h shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, evt)
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started", zap.Int("subscribers", b.Subscribers()))
	return nil
}

// Stop marks the bus as stopped. Nothing is queued, so there is nothing to drain.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) Running() bool { return b.running.Load() }

var _ shared.EventBus = (*InMemoryEventBus)(nil)
