package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/stats"
)

func newEvaluateCmd(out *output) *cobra.Command {
	var (
		statsFile string
		earned    []string
		progress  bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Show which criteria a stats snapshot newly meets",
		Long: `Reads a stats snapshot from a YAML file, for example

  booksRead: 12
  pagesRead: 3400
  readingStreak: 9

and prints the criteria it meets that are not already earned.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			snapshot, err := loadSnapshot(statsFile)
			if err != nil {
				return err
			}
			set := badge.NewEarnedSet()
			for _, raw := range earned {
				key, err := catalog.ParseKey(raw)
				if err != nil {
					return err
				}
				set.Add(key)
			}

			ev := badge.NewEvaluator(catalog.Default())
			met := ev.Evaluate(snapshot, set)
			// progress treats what was just met as earned
			for _, c := range met {
				set.Add(c.Key())
			}
			if asJSON {
				enc := json.NewEncoder(out.w)
				enc.SetIndent("", "  ")
				if progress {
					return enc.Encode(map[string]any{"met": met, "progress": ev.Progress(snapshot, set)})
				}
				return enc.Encode(met)
			}

			if len(met) == 0 {
				out.line("%s", out.render(styles.Muted, "No new criteria met"))
			} else {
				out.title("Newly met criteria")
				out.criteria(met, nil, "")
			}
			if progress {
				out.title("Progress")
				for _, p := range ev.Progress(snapshot, set) {
					next := out.render(styles.Success, "complete")
					if p.Next != nil {
						next = fmt.Sprintf("%s at %d (%.0f%%)", out.tier(p.Next.Tier), p.Next.RequiredValue, p.Progress*100)
					}
					out.line("  %-18s %8d  %s", p.Metric, p.Value, next)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statsFile, "stats", "", "YAML file holding the stats snapshot")
	cmd.Flags().StringSliceVar(&earned, "earned", nil, "Already earned criteria as metric:tier (repeatable)")
	cmd.Flags().BoolVar(&progress, "progress", false, "Also print progress toward the next tier")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("stats")
	return cmd
}

func loadSnapshot(path string) (stats.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("read stats: %w", err)
	}
	var s stats.Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return stats.Snapshot{}, fmt.Errorf("parse stats %s: %w", path, err)
	}
	return s, nil
}
