package eventbus

import "context"

// Handler processes one delivered Event. Handlers must be idempotent: the
// at-least-once delivery contract means the same Event.ID can arrive more
// than once after a consumer crash-and-reclaim cycle.
type Handler func(ctx context.Context, event Event) error

// Publisher appends events onto a stream.
type Publisher interface {
	Publish(ctx context.Context, stream Stream, event Event) error
}

// Subscriber runs handler for every event delivered to a named consumer
// group on a stream, blocking until ctx is cancelled. Implementations must
// reclaim any message left pending by a previous consumer instance under
// the same group before entering the normal read loop.
type Subscriber interface {
	Subscribe(ctx context.Context, stream Stream, group, consumer string, handler Handler) error
}

// Bus combines Publisher and Subscriber, the interface domain services
// depend on so tests can substitute the in-process fake in fake.go.
type Bus interface {
	Publisher
	Subscriber
}
