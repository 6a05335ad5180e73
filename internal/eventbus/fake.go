package eventbus

import (
	"context"
	"sync"
)

// FakeBus is an in-process double for Bus, used by service tests that need
// to assert an event was published or drive a consumer handler directly
// without a Redis server. Generalized from the teacher's
// internal/persistence/sqlite/sqlite.go pattern of a mutex-guarded
// in-memory map standing in for a real backing store.
type FakeBus struct {
	mu        sync.Mutex
	published map[Stream][]Event
	handlers  map[Stream][]Handler
}

// NewFakeBus constructs an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{
		published: make(map[Stream][]Event),
		handlers:  make(map[Stream][]Handler),
	}
}

// Publish records event and immediately invokes every handler registered
// via Subscribe on stream, synchronously, in registration order. This
// trades the real bus's asynchrony for deterministic tests.
func (b *FakeBus) Publish(ctx context.Context, stream Stream, event Event) error {
	b.mu.Lock()
	b.published[stream] = append(b.published[stream], event)
	handlers := append([]Handler(nil), b.handlers[stream]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers handler to run synchronously on every future Publish
// to stream. group and consumer are accepted to satisfy the Bus interface
// but are not distinguished: FakeBus delivers to every registered handler,
// since tests typically register exactly one handler per stream.
func (b *FakeBus) Subscribe(ctx context.Context, stream Stream, group, consumer string, handler Handler) error {
	b.mu.Lock()
	b.handlers[stream] = append(b.handlers[stream], handler)
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

// Published returns the events recorded for stream, for test assertions.
func (b *FakeBus) Published(stream Stream) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.published[stream]...)
}
