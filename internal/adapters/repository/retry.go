package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/shelf/pkg/logger"
	"github.com/okian/shelf/pkg/metrics"
)

const (
	defaultMaxRetries     = 5
	defaultRetryInitial   = 5 * time.Millisecond
	defaultRetryMaxElapse = 2 * time.Second
)

// retryConflicts runs op again while it fails with ErrConflict. Any other
// error stops the loop immediately.
func retryConflicts(ctx context.Context, log logger.Logger, maxRetries int, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitial
	b.MaxElapsedTime = defaultRetryMaxElapse

	wrapped := func() error {
		err := op()
		if err == nil || errors.Is(err, ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.RetryNotify(
		wrapped,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx), //nolint:gosec // small positive retry count
		func(err error, d time.Duration) {
			metrics.RecordStoreConflict()
			log.Debug(ctx, "retrying profile update", logger.Error(err), logger.Duration("backoff", d))
		},
	)
}
