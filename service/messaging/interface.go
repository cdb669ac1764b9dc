package messaging

import (
	"context"
)

// Queue represents an abstract message queue for any payload type. The
// scheduler uses one to collect job completion events from the waiter
// goroutines; delivery is at-most-once to a single consumer, so payloads are
// handed over directly rather than wrapped in acknowledgeable envelopes.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue, blocking until one
	// is available or the context ends
	Consume(ctx context.Context) (*T, error)

	// Size returns the number of messages currently queued
	Size() int
}
