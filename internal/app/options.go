package service

import (
	"time"

	"github.com/okian/shelf/internal/adapters/notify"
	"github.com/okian/shelf/internal/adapters/repository"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/dedupe"
	"github.com/okian/shelf/internal/domain/streak"
	"github.com/okian/shelf/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the activity queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the in-memory deduplication cache. It is
// ignored when WithDeduper is used.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the profile store. The service closes it on Stop and
// refuses to start again afterwards.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDeduper replaces the in-memory deduper, for example with a redis one.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithNotifiers adds badge notification channels. The log channel and the
// in-process hub are always present.
func WithNotifiers(notifiers ...notify.Notifier) Option {
	return func(s *Service) {
		s.extraNotifiers = append(s.extraNotifiers, notifiers...)
	}
}

// WithCatalog sets the achievement catalog. Defaults to catalog.Default().
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Service) {
		if cat != nil {
			s.catalog = cat
		}
	}
}

// WithLocation sets the timezone that defines calendar days for streaks.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock overrides the clock used for "today". Mostly for tests.
func WithClock(clock streak.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMaxLeaderboardLimit caps the number of rows a leaderboard query returns.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLeaderboardLimit = limit
		}
	}
}
