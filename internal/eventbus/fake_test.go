package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestFakeBus_PublishInvokesRegisteredHandler(t *testing.T) {
	bus := NewFakeBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 1)
	go func() {
		_ = bus.Subscribe(ctx, StreamBookingEvents, "group", "consumer-1", func(ctx context.Context, event Event) error {
			received <- event
			return nil
		})
	}()

	// give the goroutine a moment to register before publishing
	time.Sleep(10 * time.Millisecond)

	event, err := NewEvent("evt-1", EventBookingCreated, "tenant-1", time.Now(), map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if err := bus.Publish(ctx, StreamBookingEvents, event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-received:
		if got.ID != "evt-1" {
			t.Fatalf("unexpected event id: %q", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("handler was not invoked")
	}

	if len(bus.Published(StreamBookingEvents)) != 1 {
		t.Fatalf("expected 1 published event to be recorded")
	}
}
