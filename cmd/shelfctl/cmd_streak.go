package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/shelf/internal/domain/streak"
)

var errNegativeStreak = errors.New("streak counts must not be negative")

// streakResult is what the streak command reports.
type streakResult struct {
	Before     streak.State      `json:"before"`
	Today      streak.Day        `json:"today"`
	Stale      bool              `json:"stale"`
	Effective  int               `json:"effective"`
	Transition streak.Transition `json:"transition"`
	After      streak.State      `json:"after"`
}

func newStreakCmd(out *output) *cobra.Command {
	var (
		last     string
		today    string
		current  int
		longest  int
		timezone string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Apply a qualifying activity to a streak state",
		Long: `Shows how a reading streak changes when the user reads on --today.
Without --last the user has never read before.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			res, err := applyStreak(last, today, timezone, current, longest)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(out.w)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			out.title("Reading streak")
			if res.Stale {
				out.line("before:  %d days (stale, counts as 0 today)", res.Before.CurrentStreak)
			} else {
				out.line("before:  %d days", res.Before.CurrentStreak)
			}
			out.line("today:   %s", res.Today)
			transition := string(res.Transition)
			if res.Transition.Changed() {
				transition = out.render(styles.Success, transition)
			} else {
				transition = out.render(styles.Muted, transition)
			}
			out.line("rule:    %s", transition)
			out.box(formatState(res.After))
			return nil
		},
	}
	cmd.Flags().StringVar(&last, "last", "", "Last qualifying day as YYYY-MM-DD")
	cmd.Flags().StringVar(&today, "today", "", "Day of the new activity as YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&current, "current", 0, "Current streak length")
	cmd.Flags().IntVar(&longest, "longest", 0, "Longest streak so far")
	cmd.Flags().StringVar(&timezone, "timezone", "Local", "IANA zone used when --today is omitted")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func applyStreak(last, today, timezone string, current, longest int) (streakResult, error) {
	if current < 0 || longest < 0 {
		return streakResult{}, errNegativeStreak
	}
	before := streak.State{CurrentStreak: current, LongestStreak: max(longest, current)}
	if last != "" {
		d, err := streak.ParseDay(last)
		if err != nil {
			return streakResult{}, err
		}
		before.LastUpdateDay = &d
	}

	var day streak.Day
	if today == "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return streakResult{}, err
		}
		day = streak.NewLocalClock(loc).Today()
	} else {
		d, err := streak.ParseDay(today)
		if err != nil {
			return streakResult{}, err
		}
		day = d
	}

	after, transition := streak.Apply(before, day)
	return streakResult{
		Before:     before,
		Today:      day,
		Stale:      streak.Stale(before, day),
		Effective:  streak.Effective(before, day),
		Transition: transition,
		After:      after,
	}, nil
}

func formatState(s streak.State) string {
	last := "never"
	if s.LastUpdateDay != nil {
		last = s.LastUpdateDay.String()
	}
	return fmt.Sprintf("current %d  longest %d  last %s", s.CurrentStreak, s.LongestStreak, last)
}
