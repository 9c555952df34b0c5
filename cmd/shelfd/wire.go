package main

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/shelf/internal/adapters/notify"
	"github.com/okian/shelf/internal/adapters/repository"
	app "github.com/okian/shelf/internal/app"
	"github.com/okian/shelf/internal/config"
	"github.com/okian/shelf/internal/domain/dedupe"
	"github.com/okian/shelf/pkg/logger"
)

// openStore opens the configured profile store.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return repository.OpenPostgres(ctx, cfg.PostgresURL, log.Named("postgres"))
	case config.StoreBadger:
		bcfg := repository.DefaultBadgerConfig(cfg.BadgerPath)
		if cfg.BadgerInMemory {
			bcfg = repository.InMemoryBadgerConfig()
		}
		bcfg.Logger = log.Named("badger")
		return repository.OpenBadger(bcfg)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// openDeduper returns nil for the memory backend so the service builds its
// own bounded cache.
func openDeduper(ctx context.Context, cfg *config.Config) (dedupe.Deduper, error) {
	if cfg.DedupeBackend != config.DedupeRedis {
		return nil, nil
	}
	return dedupe.NewRedisDeduper(ctx, cfg.RedisURL, dedupe.WithTTL(cfg.DedupeTTL()))
}

// openNotifiers returns the optional push channels.
func openNotifiers(ctx context.Context, cfg *config.Config) ([]notify.Notifier, error) {
	if !cfg.FCMEnabled {
		return nil, nil
	}
	fcm, err := notify.NewFCM(ctx, cfg.FCMCredentialsFile, cfg.FCMTopicPrefix)
	if err != nil {
		return nil, err
	}
	return []notify.Notifier{fcm}, nil
}

// closeAll closes every value that is an io.Closer, skipping nil and the rest.
func closeAll(values ...any) {
	for _, v := range values {
		if c, ok := v.(io.Closer); ok && c != nil {
			_ = c.Close()
		}
	}
}

// newService wires the service from cfg. The returned service owns the store.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	deduper, err := openDeduper(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open deduper: %w", err)
	}
	notifiers, err := openNotifiers(ctx, cfg)
	if err != nil {
		closeAll(deduper, store)
		return nil, fmt.Errorf("open notifiers: %w", err)
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.ActivityQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithStore(store),
		app.WithLocation(loc),
		app.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		app.WithNotifiers(notifiers...),
	}
	if deduper != nil {
		opts = append(opts, app.WithDeduper(deduper))
	}
	return app.New(opts...), nil
}
