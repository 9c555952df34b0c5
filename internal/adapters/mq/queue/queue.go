// Package queue buffers accepted activities between ingestion and the workers.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/shelf/internal/domain/model"
	"github.com/okian/shelf/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Activity is the payload flowing through the queue.
type Activity = model.Activity

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an activity without blocking. It returns ErrQueueFull or
	// ErrClosed when the activity was not accepted.
	Enqueue(ctx context.Context, a Activity) error

	// Dequeue returns the channel activities are delivered on. It is closed
	// once the queue is closed and drained.
	Dequeue() <-chan Activity

	Len() int
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	activities chan Activity
	capacity   int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.activities = make(chan Activity, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an activity to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Activity) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	select {
	case q.activities <- a:
		metrics.UpdateQueueSize(len(q.activities))
		return nil
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan Activity {
	return q.activities
}

// Len returns the current number of queued activities.
func (q *InMemoryQueue) Len() int {
	size := len(q.activities)
	metrics.UpdateQueueSize(size)
	return size
}

// Cap returns the configured capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close stops accepting activities. Buffered activities remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.activities)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
