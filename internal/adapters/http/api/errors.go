package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/shelf/internal/adapters/leaderboard"
	eventqueue "github.com/okian/shelf/internal/adapters/mq/queue"
	service "github.com/okian/shelf/internal/app"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrRateLimited  = errors.New("rate limited")
)

// wrapKind tags err with the operation and a sentinel kind.
func wrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// statusFor maps domain errors onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidActivity),
		errors.Is(err, leaderboard.ErrInvalidLimit),
		errors.Is(err, catalog.ErrUnknownMetric),
		errors.Is(err, catalog.ErrUnknownTier):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, eventqueue.ErrQueueFull), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, eventqueue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
