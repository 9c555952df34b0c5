package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/okian/shelf/pkg/logger"
	"github.com/okian/shelf/pkg/metrics"
)

const (
	profilePrefix = "profile/"
	badgerDriver  = "badger"
	lockStripes   = 64
)

// BadgerConfig configures the embedded store.
type BadgerConfig struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	// MaxRetries bounds conflict retries per Update.
	MaxRetries int
	Logger     logger.Logger
}

// DefaultBadgerConfig returns a durable on-disk configuration for path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true, MaxRetries: defaultMaxRetries}
}

// InMemoryBadgerConfig returns a configuration that keeps everything in RAM.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true, MaxRetries: defaultMaxRetries}
}

// badgerLogger routes badger's printf-style logs through slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Infof logs at debug: badger reports compactions and table flushes at info.
func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore keeps profiles as JSON values keyed by user id.
type BadgerStore struct {
	db         *badger.DB
	maxRetries int
	logger     logger.Logger
	// stripes serialize in-process updates per user; badger's optimistic
	// conflict detection still covers anything else writing the same key.
	stripes [lockStripes]sync.Mutex
}

// OpenBadger opens the embedded store described by cfg.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("%w: badger path is required for a persistent store", ErrInvalidConfig)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	log := cfg.Logger
	if log == nil {
		log = logger.Get().Named("store")
	}
	opts = opts.WithLogger(&badgerLogger{logger: log.Slog().With(slog.String("driver", badgerDriver))})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &BadgerStore{db: db, maxRetries: cfg.MaxRetries, logger: log}, nil
}

func profileKey(userID string) []byte {
	return []byte(profilePrefix + userID)
}

func (s *BadgerStore) Get(_ context.Context, userID string) (Profile, error) {
	start := time.Now()
	defer observe(badgerDriver, "get", start)

	var p Profile
	err := s.db.View(func(txn *badger.Txn) error {
		return readProfile(txn, userID, &p)
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func readProfile(txn *badger.Txn, userID string, p *Profile) error {
	item, err := txn.Get(profileKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read profile %s: %w", userID, err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, p); err != nil {
			return fmt.Errorf("decode profile %s: %w", userID, err)
		}
		return nil
	})
}

func (s *BadgerStore) Update(ctx context.Context, userID string, fn UpdateFunc) (Profile, error) {
	start := time.Now()
	defer observe(badgerDriver, "update", start)

	mu := &s.stripes[stripe(userID)]
	mu.Lock()
	defer mu.Unlock()

	var out Profile
	err := retryConflicts(ctx, s.logger, s.maxRetries, func() error {
		err := s.db.Update(func(txn *badger.Txn) error {
			p := Profile{UserID: userID}
			if err := readProfile(txn, userID, &p); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if err := fn(&p); err != nil {
				return err
			}
			p.UserID = userID
			p.Badges = dedupeBadges(p.Badges)

			val, err := json.Marshal(&p)
			if err != nil {
				return fmt.Errorf("encode profile %s: %w", userID, err)
			}
			if err := txn.Set(profileKey(userID), val); err != nil {
				return fmt.Errorf("write profile %s: %w", userID, err)
			}
			out = p
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	})
	if err != nil {
		metrics.RecordErrorByComponent("store", "update")
		return Profile{}, err
	}
	return out, nil
}

func (s *BadgerStore) Each(ctx context.Context, fn func(Profile) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(profilePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p Profile
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("decode profile %s: %w", it.Item().Key(), err)
			}
			if err := fn(p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func stripe(userID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return h.Sum32() % lockStripes
}

func observe(driver, op string, start time.Time) {
	metrics.RecordStoreLatency(driver, op, float64(time.Since(start).Milliseconds()))
}
