// Package repository persists per-user achievement state.
package repository

import (
	"context"
	"time"

	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/stats"
	"github.com/okian/shelf/internal/domain/streak"
)

// Profile is everything stored for one user.
type Profile struct {
	UserID     string        `json:"userId"`
	Tally      stats.Tally   `json:"tally"`
	Streak     streak.State  `json:"streak"`
	Badges     []badge.Badge `json:"badges"`
	Activities int64         `json:"activities"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Earned returns the keys of every badge in the profile.
func (p *Profile) Earned() badge.EarnedSet {
	set := make(badge.EarnedSet, len(p.Badges))
	for _, b := range p.Badges {
		set.Add(b.Key())
	}
	return set
}

// UpdateFunc mutates a profile inside a store transaction. Returning an error
// aborts the update. It may be called more than once when the store retries.
type UpdateFunc func(p *Profile) error

// Store provides read/write access to profiles.
type Store interface {
	// Get returns the profile for userID, or ErrNotFound.
	Get(ctx context.Context, userID string) (Profile, error)

	// Update atomically reads, mutates and writes the profile for userID,
	// creating an empty one first if needed. Badges are append-only: a badge
	// already stored for the same metric and tier is never written twice.
	Update(ctx context.Context, userID string, fn UpdateFunc) (Profile, error)

	// Each calls fn for every stored profile.
	Each(ctx context.Context, fn func(Profile) error) error

	Close() error
}
