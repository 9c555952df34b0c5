package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/model"
	"github.com/okian/shelf/pkg/logger"
)

const (
	directoryPermission = 0o750
	pollInterval        = 250 * time.Millisecond
)

// ErrMismatch is returned when at least one reader ends in a different state
// than the local evaluation predicts.
var ErrMismatch = errors.New("simulation results do not match expectations")

// Report is the outcome of a run.
type Report struct {
	Stats       Stats
	Leaderboard []Entry
	Mismatches  []Mismatch
}

// Run generates reading histories, submits them, waits for the server to
// apply them and checks every reader's badges and longest streak.
func Run(ctx context.Context, cfg Config, cat *catalog.Catalog) (*Report, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("simulate")
	report := &Report{Stats: Stats{StartTime: time.Now()}}

	log.Info(ctx, "starting simulation",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("readers", cfg.Readers),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	readers := Generate(cfg, cat)
	report.Stats.Readers = len(readers)

	if cfg.OutputFile != "" {
		if err := saveActivities(cfg.OutputFile, readers); err != nil {
			log.Warn(ctx, "failed to save activities", logger.Error(err))
		}
	}

	if err := submit(ctx, cfg, client, readers, &report.Stats); err != nil {
		return nil, fmt.Errorf("submit activities: %w", err)
	}

	report.Mismatches = verify(ctx, cfg, client, readers, &report.Stats)

	entries, err := client.Leaderboard(ctx, "longest_streak", cfg.TopN)
	if err != nil {
		log.Warn(ctx, "failed to fetch leaderboard", logger.Error(err))
	} else {
		report.Leaderboard = entries
		report.Stats.LeaderboardEntries = len(entries)
	}

	report.Stats.EndTime = time.Now()
	report.Stats.Duration = report.Stats.EndTime.Sub(report.Stats.StartTime)

	log.Info(ctx, "simulation finished",
		logger.Int("sent", report.Stats.ActivitiesSent),
		logger.Int("accepted", report.Stats.Accepted),
		logger.Int("retries", report.Stats.Retries),
		logger.Int("verified", report.Stats.Verified),
		logger.Int("mismatched", report.Stats.Mismatched),
		logger.String("duration", report.Stats.Duration.String()),
	)

	if len(report.Mismatches) > 0 {
		return report, fmt.Errorf("%w: %d of %d readers", ErrMismatch, len(report.Mismatches), len(readers))
	}
	return report, nil
}

// submit hands whole readers to workers so each reader's activities arrive
// in generation order.
func submit(ctx context.Context, cfg Config, client *Client, readers []Reader, stats *Stats) error {
	log := logger.Get().Named("simulate")
	var sent, accepted, dups, failed, retries atomic.Int64

	jobs := make(chan *Reader)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range readers {
			select {
			case jobs <- &readers[i]:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for range cfg.Workers {
		g.Go(func() error {
			for r := range jobs {
				for j := range r.Activities {
					sent.Add(1)
					ack, n, err := client.Submit(gctx, r.Activities[j])
					retries.Add(int64(n))
					if err != nil {
						failed.Add(1)
						return fmt.Errorf("reader %s: %w", r.UserID, err)
					}
					if ack.Duplicate {
						dups.Add(1)
					} else {
						accepted.Add(1)
					}
				}
				if cfg.Verbose {
					log.Debug(gctx, "reader submitted",
						logger.String("user_id", r.UserID),
						logger.Int("activities", len(r.Activities)),
					)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	stats.ActivitiesSent = int(sent.Load())
	stats.Accepted = int(accepted.Load())
	stats.Duplicates = int(dups.Load())
	stats.Failed = int(failed.Load())
	stats.Retries = int(retries.Load())
	return err
}

// saveActivities writes every generated activity to filename as a JSON array.
func saveActivities(filename string, readers []Reader) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	all := make([]model.Activity, 0, len(readers)*DefaultDays)
	for i := range readers {
		all = append(all, readers[i].Activities...)
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal activities: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}
