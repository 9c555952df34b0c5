// Package notify fans out "badge earned" events to interested channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/pkg/logger"
	"github.com/okian/shelf/pkg/metrics"
)

// Event announces a newly created badge.
type Event struct {
	UserID string      `json:"userId"`
	Badge  badge.Badge `json:"badge"`
}

// Notifier delivers events to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, e Event) error
}

// Multi delivers each event to every notifier. A failing notifier does not
// stop the others.
type Multi struct {
	notifiers []Notifier
}

// NewMulti combines notifiers; nil entries are skipped.
func NewMulti(notifiers ...Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, e); err != nil {
			metrics.RecordNotification(n.Name(), "error")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		metrics.RecordNotification(n.Name(), "ok")
	}
	return errors.Join(errs...)
}

// Log writes each event to a logger.
type Log struct {
	logger logger.Logger
}

// NewLog returns a notifier writing to l.
func NewLog(l logger.Logger) *Log {
	return &Log{logger: l}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Notify(ctx context.Context, e Event) error {
	l.logger.Info(ctx, "badge earned",
		logger.String("user_id", e.UserID),
		logger.String("badge", e.Badge.Key().String()),
		logger.String("title", e.Badge.Title),
		logger.Int64("trigger", e.Badge.TriggerValue),
	)
	return nil
}
