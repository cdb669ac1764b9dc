package memory

import (
	"context"

	"github.com/procbatch/procbatch/service/messaging"
)

const defaultBuffer = 100

// Queue implements an in-memory messaging.Queue backed by a buffered
// channel.
type Queue[T any] struct {
	messages chan *T
}

// NewQueue creates a new in-memory queue with the given buffer capacity.
func NewQueue[T any](buffer int) *Queue[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Queue[T]{messages: make(chan *T, buffer)}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		select {
		case q.messages <- t:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (*T, error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
