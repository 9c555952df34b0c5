package simulate

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/pkg/logger"
)

// Mismatch describes one reader whose server state differs from the local
// evaluation.
type Mismatch struct {
	UserID         string   `json:"userId"`
	Reason         string   `json:"reason"`
	WantBadges     []string `json:"wantBadges,omitempty"`
	GotBadges      []string `json:"gotBadges,omitempty"`
	WantLongest    int      `json:"wantLongest"`
	GotLongest     int      `json:"gotLongest"`
	WantActivities int      `json:"wantActivities"`
	GotActivities  int64    `json:"gotActivities"`
}

// verify waits for every reader to be fully applied and compares results.
func verify(ctx context.Context, cfg Config, client *Client, readers []Reader, stats *Stats) []Mismatch {
	log := logger.Get().Named("simulate")
	deadline := time.Now().Add(cfg.SettleAfter)

	var (
		mu  sync.Mutex
		out []Mismatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range readers {
		r := &readers[i]
		if len(r.Activities) == 0 {
			continue
		}
		g.Go(func() error {
			m, ok := check(gctx, client, r, deadline)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				stats.Verified++
				return nil
			}
			stats.Mismatched++
			out = append(out, m)
			log.Warn(gctx, "reader mismatch",
				logger.String("user_id", m.UserID),
				logger.String("reason", m.Reason),
			)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(out, func(a, b Mismatch) int {
		switch {
		case a.UserID < b.UserID:
			return -1
		case a.UserID > b.UserID:
			return 1
		}
		return 0
	})
	return out
}

// check polls the reader's profile until all activities are applied or the
// deadline passes, then compares badges and longest streak.
func check(ctx context.Context, client *Client, r *Reader, deadline time.Time) (Mismatch, bool) {
	m := Mismatch{
		UserID:         r.UserID,
		WantBadges:     keyStrings(r.ExpectedBadge),
		WantLongest:    r.LongestStreak,
		WantActivities: len(r.Activities),
	}

	var (
		p     ProfileResponse
		found bool
		err   error
	)
	for {
		p, found, err = client.Profile(ctx, r.UserID)
		if err == nil && found && p.Activities >= int64(len(r.Activities)) {
			break
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			m.Reason = ctx.Err().Error()
			return m, false
		case <-time.After(pollInterval):
		}
	}

	switch {
	case err != nil:
		m.Reason = err.Error()
		return m, false
	case !found:
		m.Reason = "profile not found"
		return m, false
	}

	m.GotActivities = p.Activities
	m.GotLongest = p.Streak.LongestStreak
	for _, b := range p.Badges {
		m.GotBadges = append(m.GotBadges, b.Metric+":"+b.Tier)
	}

	switch {
	case p.Activities != int64(len(r.Activities)):
		m.Reason = "activity count differs"
	case !slices.Equal(m.GotBadges, m.WantBadges):
		m.Reason = "badges differ"
	case m.GotLongest != m.WantLongest:
		m.Reason = "longest streak differs"
	default:
		return m, true
	}
	return m, false
}

func keyStrings(keys []catalog.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}
