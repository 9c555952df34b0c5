// Package service wires ingestion, per-user processing and the read models
// behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/shelf/internal/adapters/leaderboard"
	eventqueue "github.com/okian/shelf/internal/adapters/mq/queue"
	workerpool "github.com/okian/shelf/internal/adapters/mq/worker"
	"github.com/okian/shelf/internal/adapters/notify"
	"github.com/okian/shelf/internal/adapters/repository"
	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/dedupe"
	"github.com/okian/shelf/internal/domain/model"
	"github.com/okian/shelf/internal/domain/streak"
	"github.com/okian/shelf/pkg/logger"
	"github.com/okian/shelf/pkg/metrics"
)

const (
	defaultQueueSize           = 10_000
	defaultDedupeSize          = 50_000
	defaultMaxLeaderboardLimit = 100
)

// Ack acknowledges an accepted activity.
type Ack struct {
	ActivityID string `json:"activityId"`
	Duplicate  bool   `json:"duplicate"`
}

// Service implements the API dependencies for the achievements system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	boards    *leaderboard.Set
	hub       *notify.Hub
	notifier  notify.Notifier
	catalog   *catalog.Catalog
	evaluator *badge.Evaluator
	factory   *badge.Factory
	tracker   *streak.Tracker
	processor *processor

	// Configuration
	workerCount         int
	queueSize           int
	dedupeSize          int
	maxLeaderboardLimit int
	location            *time.Location
	clock               streak.Clock
	extraNotifiers      []notify.Notifier

	// State
	started     bool
	cancel      context.CancelFunc
	ownsStore   bool
	ownsDeduper bool
	closed      bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         runtime.NumCPU() * 2,
		queueSize:           defaultQueueSize,
		dedupeSize:          defaultDedupeSize,
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
		location:            time.UTC,
		hub:                 notify.NewHub(),
		boards:              leaderboard.NewSet(leaderboard.LongestStreak, leaderboard.Badges),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.clock == nil {
		s.clock = streak.NewLocalClock(s.location)
	}
	s.evaluator = badge.NewEvaluator(s.catalog)
	s.factory = badge.NewFactory(s.catalog)
	s.tracker = streak.NewTracker(s.clock)
	return s
}

// Start opens missing components, rebuilds the leaderboards from the store
// and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.closed {
		return ErrClosed
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting achievements service...")

	if s.store == nil {
		store, err := repository.OpenBadger(repository.InMemoryBadgerConfig())
		if err != nil {
			return fmt.Errorf("open default store: %w", err)
		}
		s.store = store
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory badger store")
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
		s.ownsDeduper = true
	}

	notifiers := append([]notify.Notifier{notify.NewLog(s.logger.Named("notify")), s.hub}, s.extraNotifiers...)
	s.notifier = notify.NewMulti(notifiers...)

	if err := s.rebuildLeaderboards(ctx); err != nil {
		return err
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	metrics.UpdateQueueCapacity(s.queue.Cap())

	s.processor = &processor{
		store:     s.store,
		evaluator: s.evaluator,
		factory:   s.factory,
		tracker:   s.tracker,
		location:  s.location,
		boards:    s.boards,
		notifier:  s.notifier,
		logger:    s.logger.Named("processor"),
		now:       time.Now,
	}
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.processor)

	// Workers outlive the Start ctx; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "achievements service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("timezone", s.location.String()),
	)
	return nil
}

func (s *Service) rebuildLeaderboards(ctx context.Context) error {
	s.boards.Reset()
	streaks, _ := s.boards.Board(leaderboard.LongestStreak)
	badges, _ := s.boards.Board(leaderboard.Badges)

	err := s.store.Each(ctx, func(p repository.Profile) error {
		streaks.Set(ctx, p.UserID, int64(p.Streak.LongestStreak))
		badges.Set(ctx, p.UserID, int64(len(p.Badges)))
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild leaderboards: %w", err)
	}
	metrics.UpdateTrackedUsers(streaks.Count(ctx))
	s.logger.Info(ctx, "leaderboards rebuilt", logger.Int("users", streaks.Count(ctx)))
	return nil
}

// Stop drains the queue, waits for the workers and closes the store. A
// service whose store or deduper came from options cannot be started again.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping achievements service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown workers: %w", err))
	}
	s.cancel()

	if closer, ok := s.deduper.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close deduper: %w", err))
		}
		if !s.ownsDeduper {
			s.closed = true
		}
	}
	if s.ownsDeduper {
		s.deduper = nil
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if s.ownsStore {
		s.store = nil
	} else {
		s.closed = true
	}

	s.started = false
	s.logger.Info(ctx, "achievements service stopped")
	return errors.Join(errs...)
}

// RecordActivity validates a and queues it for processing. An activity whose
// id was already accepted is acknowledged as a duplicate and not queued
// again. Activities without an id get a fresh one.
func (s *Service) RecordActivity(ctx context.Context, a model.Activity) (Ack, error) { //nolint:gocritic // hugeParam: activity is queued by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return Ack{}, ErrNotStarted
	}
	if err := a.Validate(); err != nil {
		metrics.RecordActivityRejected("invalid")
		return Ack{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	seen, err := s.deduper.SeenAndRecord(ctx, a.ID)
	if err != nil {
		metrics.RecordErrorByComponent("service", "dedupe")
		return Ack{}, fmt.Errorf("check activity %s: %w", a.ID, err)
	}
	if seen {
		metrics.RecordActivityDuplicate()
		s.logger.Debug(ctx, "duplicate activity skipped",
			logger.String("activity_id", a.ID),
			logger.String("user_id", a.UserID),
		)
		return Ack{ActivityID: a.ID, Duplicate: true}, nil
	}

	if err := s.queue.Enqueue(ctx, a); err != nil {
		if uerr := s.deduper.Unrecord(ctx, a.ID); uerr != nil {
			s.logger.Warn(ctx, "failed to release activity id",
				logger.String("activity_id", a.ID),
				logger.Error(uerr),
			)
		}
		switch {
		case errors.Is(err, eventqueue.ErrQueueFull):
			metrics.RecordActivityRejected("queue_full")
		case errors.Is(err, eventqueue.ErrClosed):
			metrics.RecordActivityRejected("closed")
		default:
			metrics.RecordActivityRejected("canceled")
		}
		return Ack{}, fmt.Errorf("enqueue activity %s: %w", a.ID, err)
	}

	metrics.RecordActivityReceived(string(a.Kind))
	metrics.UpdateQueueSize(s.queue.Len())
	return Ack{ActivityID: a.ID}, nil
}

// Subscribe streams badge events for userID until cancel is called.
func (s *Service) Subscribe(userID string) (<-chan notify.Event, func()) {
	return s.hub.Subscribe(userID)
}

// Healthy reports whether the service is running and its store answers.
func (s *Service) Healthy(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	if pinger, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			return fmt.Errorf("store ping: %w", err)
		}
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"timezone":    s.location.String(),
		"today":       s.tracker.Today().String(),
		"criteria":    s.catalog.Len(),
	}

	if s.started {
		queueLen := s.queue.Len()
		tracked := 0
		if b, err := s.boards.Board(leaderboard.LongestStreak); err == nil {
			tracked = b.Count(ctx)
		}
		stats["queueLength"] = queueLen
		stats["trackedUsers"] = tracked
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTrackedUsers(tracked)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}
