package catalog

import (
	"fmt"
	"strings"
)

// MetricType names a reading counter that criteria are measured against.
type MetricType string

// Known metric types.
const (
	BooksRead        MetricType = "books_read"
	PagesRead        MetricType = "pages_read"
	ReadingStreak    MetricType = "reading_streak"
	LibrarySize      MetricType = "library_size"
	GenresExplored   MetricType = "genres_explored"
	ReviewsWritten   MetricType = "reviews_written"
	FriendsConnected MetricType = "friends_connected"
	RatingsGiven     MetricType = "ratings_given"
	TotalPages       MetricType = "total_pages"
)

// Metrics lists the known metric types in catalog declaration order.
var Metrics = []MetricType{ //nolint:gochecknoglobals // fixed enum table
	BooksRead,
	PagesRead,
	ReadingStreak,
	LibrarySize,
	GenresExplored,
	ReviewsWritten,
	FriendsConnected,
	RatingsGiven,
	TotalPages,
}

// ParseMetric parses a metric name. It accepts the snake_case form.
func ParseMetric(s string) (MetricType, error) {
	want := MetricType(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Metrics {
		if m == want {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Key identifies a criterion. At most one criterion exists per key.
type Key struct {
	Metric MetricType `json:"metric"`
	Tier   Tier       `json:"tier"`
}

func (k Key) String() string {
	return string(k.Metric) + ":" + k.Tier.String()
}

// ParseKey parses the "metric:tier" form produced by Key.String.
func ParseKey(s string) (Key, error) {
	metric, tier, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q is not metric:tier", ErrUnknownMetric, s)
	}
	m, err := ParseMetric(metric)
	if err != nil {
		return Key{}, err
	}
	t, err := ParseTier(tier)
	if err != nil {
		return Key{}, err
	}
	return Key{Metric: m, Tier: t}, nil
}
