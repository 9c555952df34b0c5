// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind names a reading activity.
type Kind string

// Activity kinds.
const (
	BookFinished    Kind = "book_finished"
	PagesRead       Kind = "pages_read"
	BookAdded       Kind = "book_added"
	ReviewWritten   Kind = "review_written"
	RatingGiven     Kind = "rating_given"
	FriendConnected Kind = "friend_connected"
)

// Kinds lists every known activity kind.
var Kinds = []Kind{BookFinished, PagesRead, BookAdded, ReviewWritten, RatingGiven, FriendConnected} //nolint:gochecknoglobals // enum table

const (
	maxRating = 5
	// maxPagesPerActivity bounds a single pages_read or book_finished report.
	maxPagesPerActivity = 100000
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Qualifying reports whether the kind advances the reading streak.
func (k Kind) Qualifying() bool {
	switch k {
	case BookFinished, PagesRead, ReviewWritten:
		return true
	default:
		return false
	}
}

// Activity is a single user reading event submitted by clients.
type Activity struct {
	ID         string    `json:"id"`     // unique id for idempotency
	UserID     string    `json:"userId"` // subject user
	Kind       Kind      `json:"kind"`
	BookID     string    `json:"bookId,omitempty"`
	Pages      int       `json:"pages,omitempty"`
	Genre      string    `json:"genre,omitempty"`
	Rating     int       `json:"rating,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Validate checks the fields each kind requires.
func (a Activity) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidActivity)
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidActivity, a.Kind)
	}
	if a.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurredAt is required", ErrInvalidActivity)
	}
	if a.Pages < 0 || a.Pages > maxPagesPerActivity {
		return fmt.Errorf("%w: pages %d out of range", ErrInvalidActivity, a.Pages)
	}

	switch a.Kind {
	case BookFinished, BookAdded, ReviewWritten, RatingGiven:
		if a.BookID == "" {
			return fmt.Errorf("%w: %s requires a book id", ErrInvalidActivity, a.Kind)
		}
	case PagesRead:
		if a.Pages == 0 {
			return fmt.Errorf("%w: pages_read requires pages", ErrInvalidActivity)
		}
	}
	if a.Kind == RatingGiven && (a.Rating < 1 || a.Rating > maxRating) {
		return fmt.Errorf("%w: rating must be 1-%d", ErrInvalidActivity, maxRating)
	}
	return nil
}
