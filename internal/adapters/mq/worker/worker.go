// Package worker applies queued activities with one owner per user.
package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/shelf/internal/domain/model"
	"github.com/okian/shelf/pkg/logger"
	"github.com/okian/shelf/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	defaultWorkerBuffer     = 64
	poolShutdownTimeout     = 30 * time.Second
)

// Handler applies one activity. Calls for the same user never overlap.
type Handler interface {
	Handle(ctx context.Context, a model.Activity) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, a model.Activity) error

func (f HandlerFunc) Handle(ctx context.Context, a model.Activity) error { return f(ctx, a) }

// Source is where the pool reads activities from.
type Source interface {
	Dequeue() <-chan model.Activity
}

// InMemoryWorker processes the activities routed to it, in arrival order.
type InMemoryWorker struct {
	name    string
	inbox   chan model.Activity
	handler Handler
	buffer  int
	done    chan struct{}
	logger  logger.Logger
}

// NewInMemoryWorker creates a worker that feeds handler.
func NewInMemoryWorker(handler Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		name:    "worker",
		handler: handler,
		buffer:  defaultWorkerBuffer,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	w.inbox = make(chan model.Activity, w.buffer)
	return w
}

// Run processes the inbox until it is closed. Cancelling ctx aborts in-flight
// handler calls but the loop still drains so the dispatcher never blocks.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	for a := range w.inbox {
		w.process(ctx, a)
	}
}

func (w *InMemoryWorker) process(ctx context.Context, a model.Activity) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		w.logger.Warn(ctx, "dropping activity after cancellation",
			logger.String("activity_id", a.ID),
			logger.String("user_id", a.UserID),
		)
		return
	}
	if err := w.handler.Handle(ctx, a); err != nil {
		metrics.RecordErrorByComponent("worker", "handle")
		w.logger.Error(ctx, "activity processing failed",
			logger.String("activity_id", a.ID),
			logger.String("user_id", a.UserID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordActivityProcessed(string(a.Kind))
}

// Pool routes activities to a fixed set of workers by user id so each user
// has exactly one writer.
type Pool struct {
	workers []*InMemoryWorker
	source  Source

	startOnce  sync.Once
	dispatched chan struct{}
	logger     logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one picks a
// default based on the CPU count.
func NewPool(workerCount int, source Source, handler Handler, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers:    make([]*InMemoryWorker, workerCount),
		source:     source,
		dispatched: make(chan struct{}),
		logger:     logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(handler, workerOpts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Partition returns the index of the worker that owns userID.
func (p *Pool) Partition(userID string) int {
	return Partition(userID, len(p.workers))
}

// Partition maps userID onto one of n partitions.
func Partition(userID string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(n)) //nolint:gosec // n is a small positive worker count
}

// Start launches the workers and the dispatcher. It returns immediately.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for _, w := range p.workers {
			go w.Run(ctx)
		}
		go p.dispatch(ctx)
	})
}

func (p *Pool) dispatch(ctx context.Context) {
	defer close(p.dispatched)
	defer func() {
		for _, w := range p.workers {
			close(w.inbox)
		}
	}()
	for a := range p.source.Dequeue() {
		p.workers[p.Partition(a.UserID)].inbox <- a
	}
	p.logger.Debug(ctx, "source drained")
}

// Wait blocks until the source is closed and every routed activity has been
// processed, or ctx ends.
func (p *Pool) Wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	select {
	case <-p.dispatched:
	case <-waitCtx.Done():
		return fmt.Errorf("waiting for dispatcher: %w", waitCtx.Err())
	}
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-waitCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("waiting for worker %d: %w", i, waitCtx.Err())
		}
	}
	return nil
}

// Shutdown closes the source when it supports Close and waits for the
// workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	return p.Wait(ctx)
}
