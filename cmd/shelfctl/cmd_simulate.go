package main

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/simulate"
)

func newSimulateCmd(out *output) *cobra.Command {
	cfg := simulate.Config{}
	var end string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Post generated reading histories to shelfd and verify the badges",
		Long: `Generates reading histories ending today (UTC), posts every activity to a
running shelfd, waits for them to be applied and checks each reader's badges
and longest streak against a local evaluation.

The server must run in UTC. Its per-client rate limit also applies here;
raise SHELF_RATE_LIMIT_RPS for large runs, throttled requests are retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if end != "" {
				t, err := time.Parse(time.DateOnly, end)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				cfg.End = t
			}
			report, err := simulate.Run(cmd.Context(), cfg, catalog.Default())
			if report != nil {
				printReport(out, report)
			}
			if errors.Is(err, simulate.ErrMismatch) {
				for _, m := range report.Mismatches {
					out.line("%s %s: %s", out.render(styles.Error, "✗"), m.UserID, m.Reason)
					if cfg.Verbose {
						out.line("    badges  want [%s] got [%s]", strings.Join(m.WantBadges, " "), strings.Join(m.GotBadges, " "))
						out.line("    longest want %d got %d", m.WantLongest, m.GotLongest)
					}
				}
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of shelfd")
	f.IntVar(&cfg.Readers, "readers", simulate.DefaultReaders, "Number of simulated readers")
	f.IntVar(&cfg.Days, "days", simulate.DefaultDays, "Days of history per reader")
	f.IntVar(&cfg.TopN, "top", simulate.DefaultTopN, "Leaderboard rows to fetch")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "Concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", simulate.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.SettleAfter, "settle", simulate.DefaultSettleAfter, "How long to wait for activities to be applied")
	f.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "Generator seed") //nolint:gosec // any value is a valid seed
	f.StringVar(&cfg.OutputFile, "output", "", "Write generated activities to this JSON file")
	f.StringVar(&end, "end", "", "Last simulated day as YYYY-MM-DD (default today)")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Print per-reader details")
	return cmd
}

func printReport(out *output, r *simulate.Report) {
	s := r.Stats
	out.title("Simulation")
	out.box(strings.Join([]string{
		fmt.Sprintf("readers      %d", s.Readers),
		fmt.Sprintf("activities   %d sent, %d accepted, %d duplicate, %d failed", s.ActivitiesSent, s.Accepted, s.Duplicates, s.Failed),
		fmt.Sprintf("retries      %d", s.Retries),
		fmt.Sprintf("verified     %d", s.Verified),
		fmt.Sprintf("mismatched   %d", s.Mismatched),
		fmt.Sprintf("duration     %s", s.Duration.Round(time.Millisecond)),
	}, "\n"))
	if len(r.Leaderboard) > 0 {
		out.title("Longest streaks")
		for _, e := range r.Leaderboard {
			out.line("  %3d  %-24s %d", e.Rank, e.UserID, e.Value)
		}
	}
	if s.Mismatched == 0 {
		out.line("%s all readers match", out.render(styles.Success, "✓"))
	}
}
