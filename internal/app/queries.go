package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/shelf/internal/adapters/leaderboard"
	"github.com/okian/shelf/internal/adapters/repository"
	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/stats"
	"github.com/okian/shelf/internal/domain/streak"
)

// StreakView is a user's streak as seen today.
type StreakView struct {
	streak.State
	// EffectiveStreak is zero when the streak has lapsed but no activity has
	// arrived yet to reset it.
	EffectiveStreak int        `json:"effectiveStreak"`
	Stale           bool       `json:"stale"`
	Today           streak.Day `json:"today"`
}

// Profile returns the stored profile for userID.
func (s *Service) Profile(ctx context.Context, userID string) (repository.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return repository.Profile{}, ErrNotStarted
	}
	p, err := s.store.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Profile{}, fmt.Errorf("%w: user %s: %w", ErrNotFound, userID, err)
	}
	if err != nil {
		return repository.Profile{}, fmt.Errorf("load profile %s: %w", userID, err)
	}
	return p, nil
}

// Badges returns the badges userID has earned, in award order.
func (s *Service) Badges(ctx context.Context, userID string) ([]badge.Badge, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Badges == nil {
		return []badge.Badge{}, nil
	}
	return p.Badges, nil
}

// Streak returns userID's streak with lazy correction applied for reading.
func (s *Service) Streak(ctx context.Context, userID string) (StreakView, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return StreakView{}, err
	}
	today := s.tracker.Today()
	return StreakView{
		State:           p.Streak,
		EffectiveStreak: streak.Effective(p.Streak, today),
		Stale:           streak.Stale(p.Streak, today),
		Today:           today,
	}, nil
}

// Progress returns, per metric, how close userID is to the next tier.
func (s *Service) Progress(ctx context.Context, userID string) ([]badge.MetricProgress, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	snapshot := p.Tally.Snapshot(streak.Effective(p.Streak, s.tracker.Today()))
	return s.evaluator.Progress(snapshot, p.Earned()), nil
}

// Catalog returns every criterion in catalog order.
func (s *Service) Catalog() []catalog.Criterion {
	return s.catalog.All()
}

// Evaluate reports which criteria snapshot meets given the already earned
// keys, without touching any stored state.
func (s *Service) Evaluate(snapshot stats.Snapshot, earned []catalog.Key) []catalog.Criterion {
	met := s.evaluator.Evaluate(snapshot, badge.NewEarnedSet(earned...))
	if met == nil {
		return []catalog.Criterion{}
	}
	return met
}

// Leaderboard returns the top rows of board. A limit above the configured
// maximum is capped.
func (s *Service) Leaderboard(ctx context.Context, board string, limit int) ([]leaderboard.Entry, error) {
	b, err := s.boards.Board(board)
	if err != nil {
		return nil, fmt.Errorf("%w: leaderboard %q: %w", ErrNotFound, board, err)
	}
	if limit > s.maxLeaderboardLimit {
		limit = s.maxLeaderboardLimit
	}
	return b.TopN(ctx, limit)
}

// Rank returns userID's row on board.
func (s *Service) Rank(ctx context.Context, board, userID string) (leaderboard.Entry, error) {
	b, err := s.boards.Board(board)
	if err != nil {
		return leaderboard.Entry{}, fmt.Errorf("%w: leaderboard %q: %w", ErrNotFound, board, err)
	}
	entry, err := b.Rank(ctx, userID)
	if err != nil {
		return leaderboard.Entry{}, fmt.Errorf("%w: user %s on %s: %w", ErrNotFound, userID, board, err)
	}
	return entry, nil
}

// Leaderboards returns the board names.
func (s *Service) Leaderboards() []string {
	return s.boards.Names()
}

// MaxLeaderboardLimit returns the row cap applied by Leaderboard.
func (s *Service) MaxLeaderboardLimit() int {
	return s.maxLeaderboardLimit
}
