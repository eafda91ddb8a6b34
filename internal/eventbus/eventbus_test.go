package eventbus

import (
	"testing"

	"planera/core/events"
)

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[events.Placement]()
	ch := bus.Subscribe()
	bus.Publish(events.Placement{EventID: 7, Method: "determinate_single"})
	got := <-ch
	if got.EventID != 7 {
		t.Fatalf("expected event 7 got %v", got)
	}
	bus.Unsubscribe(ch)
}

func TestTypedBusNonBlocking(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.SubscribeBuf(1)
	bus.Publish(1)
	bus.Publish(2) // dropped, subscriber buffer full
	if v := <-ch; v != 1 {
		t.Fatalf("expected 1 got %d", v)
	}
	select {
	case v := <-ch:
		t.Fatalf("expected drop, got %d", v)
	default:
	}
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	bus.Publish(1) // must not panic
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
