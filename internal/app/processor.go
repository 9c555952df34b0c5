package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/shelf/internal/adapters/leaderboard"
	"github.com/okian/shelf/internal/adapters/notify"
	"github.com/okian/shelf/internal/adapters/repository"
	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/model"
	"github.com/okian/shelf/internal/domain/streak"
	"github.com/okian/shelf/pkg/logger"
	"github.com/okian/shelf/pkg/metrics"
)

// processor applies one activity to its user's profile. The worker pool
// guarantees calls for the same user never overlap.
type processor struct {
	store     repository.Store
	evaluator *badge.Evaluator
	factory   *badge.Factory
	tracker   *streak.Tracker
	location  *time.Location
	boards    *leaderboard.Set
	notifier  notify.Notifier
	logger    logger.Logger
	now       func() time.Time
}

// activityDay is the calendar day an activity counts toward. Timestamps in
// the future count as today.
func (p *processor) activityDay(a model.Activity) streak.Day { //nolint:gocritic // hugeParam: read-only
	day := streak.DayIn(a.OccurredAt, p.location)
	if today := p.tracker.Today(); day > today {
		return today
	}
	return day
}

func (p *processor) Handle(ctx context.Context, a model.Activity) error { //nolint:gocritic // hugeParam: read-only
	day := p.activityDay(a)

	var (
		awarded    []badge.Badge
		transition streak.Transition
	)
	profile, err := p.store.Update(ctx, a.UserID, func(pr *repository.Profile) error {
		// the store may retry, so start clean on every attempt
		awarded, transition = nil, ""

		pr.Tally.Apply(a)
		pr.Activities++
		if a.Kind.Qualifying() {
			pr.Streak, transition = p.tracker.RecordOn(pr.Streak, day)
		}

		snapshot := pr.Tally.Snapshot(streak.Effective(pr.Streak, day))
		awarded = p.factory.Award(p.evaluator, snapshot, pr.Earned())
		pr.Badges = append(pr.Badges, awarded...)
		pr.UpdatedAt = p.now().UTC()
		return nil
	})
	if err != nil {
		return fmt.Errorf("update profile %s: %w", a.UserID, err)
	}

	if transition != "" {
		metrics.RecordStreakTransition(string(transition))
	}
	p.updateBoards(ctx, &profile)

	for i := range awarded {
		b := awarded[i]
		metrics.RecordBadgeAwarded(string(b.Metric), b.Tier.String())
		if err := p.notifier.Notify(ctx, notify.Event{UserID: a.UserID, Badge: b}); err != nil {
			p.logger.Warn(ctx, "badge notification failed",
				logger.String("user_id", a.UserID),
				logger.String("badge", b.Key().String()),
				logger.Error(err),
			)
		}
	}

	p.logger.Debug(ctx, "activity applied",
		logger.String("activity_id", a.ID),
		logger.String("user_id", a.UserID),
		logger.String("kind", string(a.Kind)),
		logger.String("streak_transition", string(transition)),
		logger.Int("badges_awarded", len(awarded)),
	)
	return nil
}

func (p *processor) updateBoards(ctx context.Context, profile *repository.Profile) {
	if b, err := p.boards.Board(leaderboard.LongestStreak); err == nil {
		b.Set(ctx, profile.UserID, int64(profile.Streak.LongestStreak))
		metrics.UpdateTrackedUsers(b.Count(ctx))
	}
	if b, err := p.boards.Board(leaderboard.Badges); err == nil {
		b.Set(ctx, profile.UserID, int64(len(profile.Badges)))
	}
}
