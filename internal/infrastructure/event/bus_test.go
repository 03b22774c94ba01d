package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Order", uuid.New())}
}

type recorder struct {
	seen []string
}

func (r *recorder) handler(name string, err error, types ...string) *HandlerFunc {
	return NewHandlerFunc(func(ctx context.Context, e shared.DomainEvent) error {
		r.seen = append(r.seen, name+":"+e.EventType())
		return err
	}, types...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	rec := &recorder{}

	bus.Subscribe(rec.handler("stock", nil, "OrderCancelled", "OrderReturned"))
	bus.Subscribe(rec.handler("audit", nil))
	bus.Subscribe(rec.handler("explicit", nil), "ReceiptPosted")

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("OrderCancelled"),
		newTestEvent("ReceiptPosted"),
		newTestEvent("OrderCreated"),
	))

	assert.Equal(t, []string{
		"stock:OrderCancelled", "audit:OrderCancelled",
		"audit:ReceiptPosted", "explicit:ReceiptPosted",
		"audit:OrderCreated",
	}, rec.seen)
}

func TestInMemoryEventBus_ErrorsAreJoined(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	rec := &recorder{}
	boom := errors.New("insufficient stock")

	bus.Subscribe(rec.handler("failing", boom, "OrderReturned"))
	bus.Subscribe(rec.handler("after", nil, "OrderReturned"))
	bus.Subscribe(NewHandlerFunc(func(ctx context.Context, e shared.DomainEvent) error {
		panic("nil map")
	}, "OrderReturned"))

	err := bus.Publish(context.Background(), newTestEvent("OrderReturned"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "handler panicked: nil map")
	assert.Equal(t, []string{"failing:OrderReturned", "after:OrderReturned"}, rec.seen)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	rec := &recorder{}
	h := rec.handler("stock", nil, "OrderCancelled")
	w := rec.handler("all", nil)

	bus.Subscribe(h)
	bus.Subscribe(w)
	bus.Unsubscribe(h)
	bus.Unsubscribe(w)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderCancelled")))
	assert.Empty(t, rec.seen)
	assert.Zero(t, bus.Subscribers())
}

func TestInMemoryEventBus_Lifecycle(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.False(t, bus.Running())
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.Running())
}

func TestInMemoryEventBus_MultiTypeHandlerRunsOncePerEvent(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	rec := &recorder{}
	bus.Subscribe(rec.handler("multi", nil, "A", "B"))

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("C")))
	assert.Equal(t, []string{"multi:A"}, rec.seen)
	assert.Equal(t, 1, bus.Subscribers())
}
