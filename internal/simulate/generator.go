package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/model"
	"github.com/okian/shelf/internal/domain/stats"
	"github.com/okian/shelf/internal/domain/streak"
)

var genres = []string{ //nolint:gochecknoglobals // generator vocabulary
	"fantasy", "science fiction", "mystery", "romance", "history",
	"biography", "poetry", "horror", "philosophy", "travel",
}

// Reader is one simulated user with the outcome the server should reach.
type Reader struct {
	UserID        string
	Activities    []model.Activity
	ExpectedBadge []catalog.Key
	LongestStreak int
}

// Generate builds cfg.Readers reading histories ending on cfg.End.
func Generate(cfg Config, cat *catalog.Catalog) []Reader {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // reproducible test data
	ev := badge.NewEvaluator(cat)

	end := streak.DayOf(cfg.End)
	start := end - streak.Day(cfg.Days-1)

	readers := make([]Reader, cfg.Readers)
	for i := range readers {
		r := Reader{UserID: fmt.Sprintf("sim-%d-%04d", cfg.Seed, i)}
		books := 0
		for d := start; d <= end; d++ {
			if rng.Float64() >= readProbability {
				continue
			}
			r.Activities = append(r.Activities, dayActivities(rng, r.UserID, d, &books)...)
		}
		for j := range r.Activities {
			r.Activities[j].ID = fmt.Sprintf("%s-%05d", r.UserID, j)
		}
		r.ExpectedBadge, r.LongestStreak = expected(ev, r.Activities)
		readers[i] = r
	}
	return readers
}

// dayActivities returns what one reader does on day d, in order.
func dayActivities(rng *rand.Rand, userID string, d streak.Day, books *int) []model.Activity {
	at := d.Time().Add(time.Duration(8+rng.IntN(12)) * time.Hour)
	bookID := func() string { return fmt.Sprintf("%s-book-%d", userID, *books) }

	out := []model.Activity{{
		UserID: userID, Kind: model.PagesRead, Pages: 10 + rng.IntN(90), OccurredAt: at,
	}}
	if rng.IntN(4) == 0 {
		*books++
		out = append(out, model.Activity{
			UserID: userID, Kind: model.BookAdded, BookID: bookID(),
			Genre: genres[rng.IntN(len(genres))], OccurredAt: at.Add(time.Minute),
		})
	}
	if *books > 0 && rng.IntN(3) == 0 {
		out = append(out, model.Activity{
			UserID: userID, Kind: model.BookFinished, BookID: bookID(), Pages: 150 + rng.IntN(400),
			Genre: genres[rng.IntN(len(genres))], OccurredAt: at.Add(2 * time.Minute),
		})
		if rng.IntN(2) == 0 {
			out = append(out, model.Activity{
				UserID: userID, Kind: model.RatingGiven, BookID: bookID(), Rating: 1 + rng.IntN(5),
				OccurredAt: at.Add(3 * time.Minute),
			})
		}
		if rng.IntN(3) == 0 {
			out = append(out, model.Activity{
				UserID: userID, Kind: model.ReviewWritten, BookID: bookID(), OccurredAt: at.Add(4 * time.Minute),
			})
		}
	}
	if rng.IntN(10) == 0 {
		out = append(out, model.Activity{UserID: userID, Kind: model.FriendConnected, OccurredAt: at.Add(5 * time.Minute)})
	}
	return out
}

// expected replays activities through the domain rules in UTC days.
func expected(ev *badge.Evaluator, activities []model.Activity) ([]catalog.Key, int) {
	var (
		tally  stats.Tally
		state  streak.State
		earned = badge.NewEarnedSet()
		keys   []catalog.Key
	)
	for _, a := range activities {
		tally.Apply(a)
		day := streak.DayOf(a.OccurredAt)
		if a.Kind.Qualifying() {
			state, _ = streak.Apply(state, day)
		}
		for _, c := range ev.Evaluate(tally.Snapshot(streak.Effective(state, day)), earned) {
			earned.Add(c.Key())
			keys = append(keys, c.Key())
		}
	}
	return keys, state.LongestStreak
}
