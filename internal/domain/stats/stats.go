// Package stats aggregates reading activities into the counters that
// achievement criteria are measured against.
package stats

import (
	"sort"
	"strings"

	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/model"
)

// Tally is the persisted running total for one user.
type Tally struct {
	BooksRead        int64               `json:"booksRead"`
	PagesRead        int64               `json:"pagesRead"`
	ReviewsWritten   int64               `json:"reviewsWritten"`
	RatingsGiven     int64               `json:"ratingsGiven"`
	FriendsConnected int64               `json:"friendsConnected"`
	Library          map[string]struct{} `json:"library,omitempty"`
	Genres           map[string]struct{} `json:"genres,omitempty"`
}

// Apply folds one activity into the tally.
func (t *Tally) Apply(a model.Activity) {
	switch a.Kind {
	case model.BookFinished:
		t.BooksRead++
		t.addBook(a.BookID)
		t.addGenre(a.Genre)
	case model.PagesRead:
		t.PagesRead += int64(a.Pages)
	case model.BookAdded:
		t.addBook(a.BookID)
		t.addGenre(a.Genre)
	case model.ReviewWritten:
		t.ReviewsWritten++
	case model.RatingGiven:
		t.RatingsGiven++
	case model.FriendConnected:
		t.FriendsConnected++
	}
}

func (t *Tally) addBook(id string) {
	if id == "" {
		return
	}
	if t.Library == nil {
		t.Library = make(map[string]struct{})
	}
	t.Library[id] = struct{}{}
}

func (t *Tally) addGenre(genre string) {
	g := strings.ToLower(strings.TrimSpace(genre))
	if g == "" {
		return
	}
	if t.Genres == nil {
		t.Genres = make(map[string]struct{})
	}
	t.Genres[g] = struct{}{}
}

// GenreList returns the explored genres sorted.
func (t Tally) GenreList() []string {
	out := make([]string, 0, len(t.Genres))
	for g := range t.Genres {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the counters as of now, with streak as the reading streak.
func (t Tally) Snapshot(streak int) Snapshot {
	return Snapshot{
		BooksRead:        t.BooksRead,
		PagesRead:        t.PagesRead,
		ReadingStreak:    int64(streak),
		LibrarySize:      int64(len(t.Library)),
		GenresExplored:   int64(len(t.Genres)),
		ReviewsWritten:   t.ReviewsWritten,
		FriendsConnected: t.FriendsConnected,
		RatingsGiven:     t.RatingsGiven,
	}
}

// Snapshot is a point-in-time read of a user's counters.
type Snapshot struct {
	BooksRead        int64 `json:"booksRead" yaml:"booksRead"`
	PagesRead        int64 `json:"pagesRead" yaml:"pagesRead"`
	ReadingStreak    int64 `json:"readingStreak" yaml:"readingStreak"`
	LibrarySize      int64 `json:"librarySize" yaml:"librarySize"`
	GenresExplored   int64 `json:"genresExplored" yaml:"genresExplored"`
	ReviewsWritten   int64 `json:"reviewsWritten" yaml:"reviewsWritten"`
	FriendsConnected int64 `json:"friendsConnected" yaml:"friendsConnected"`
	RatingsGiven     int64 `json:"ratingsGiven" yaml:"ratingsGiven"`
}

// lookups maps each wired metric to its counter. Metrics absent here, such as
// total_pages, are not evaluable from a snapshot.
var lookups = map[catalog.MetricType]func(Snapshot) int64{ //nolint:gochecknoglobals // fixed lookup table
	catalog.BooksRead:        func(s Snapshot) int64 { return s.BooksRead },
	catalog.PagesRead:        func(s Snapshot) int64 { return s.PagesRead },
	catalog.ReadingStreak:    func(s Snapshot) int64 { return s.ReadingStreak },
	catalog.LibrarySize:      func(s Snapshot) int64 { return s.LibrarySize },
	catalog.GenresExplored:   func(s Snapshot) int64 { return s.GenresExplored },
	catalog.ReviewsWritten:   func(s Snapshot) int64 { return s.ReviewsWritten },
	catalog.FriendsConnected: func(s Snapshot) int64 { return s.FriendsConnected },
	catalog.RatingsGiven:     func(s Snapshot) int64 { return s.RatingsGiven },
}

// Counter returns the counter for metric, or false when the metric is not
// wired into snapshots.
func (s Snapshot) Counter(metric catalog.MetricType) (int64, bool) {
	f, ok := lookups[metric]
	if !ok {
		return 0, false
	}
	return f(s), true
}

// Evaluable reports whether metric has a snapshot counter.
func Evaluable(metric catalog.MetricType) bool {
	_, ok := lookups[metric]
	return ok
}
