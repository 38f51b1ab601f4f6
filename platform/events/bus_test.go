package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"sales_pricing_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestInMemoryBus_PublishReachesEveryHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var handled atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 2; i++ {
		bus.Subscribe("orders.changed", HandlerFunc(func(context.Context, Event) error {
			if handled.Add(1) == 2 {
				close(done)
			}
			return nil
		}))
	}

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "orders.changed"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected both handlers to run, got %d", handled.Load())
	}
}

func TestInMemoryBus_PublishIgnoresUnsubscribedEvents(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	bus.Subscribe("orders.changed", HandlerFunc(func(context.Context, Event) error {
		t.Error("handler for a different event must not run")
		return nil
	}))
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "promotions.applied"})

	// Async dispatch: give a misrouted handler a moment to surface.
	time.Sleep(50 * time.Millisecond)
}

func TestInMemoryBus_PublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	failure := errors.New("handler failed")
	bus.Subscribe("orders.changed", HandlerFunc(func(context.Context, Event) error {
		return failure
	}))
	var ran bool
	bus.Subscribe("orders.changed", HandlerFunc(func(context.Context, Event) error {
		ran = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "orders.changed"})
	if !errors.Is(err, failure) {
		t.Fatalf("expected the handler error to surface, got %v", err)
	}
	if !ran {
		t.Fatal("a failing handler must not stop the others")
	}
}

func TestInMemoryBus_AsyncHandlerFailureDoesNotPropagate(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	done := make(chan struct{})
	bus.Subscribe("orders.changed", HandlerFunc(func(context.Context, Event) error {
		defer close(done)
		return errors.New("handler failed")
	}))

	// Publish never blocks or fails on handler errors; they are logged.
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "orders.changed"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}
