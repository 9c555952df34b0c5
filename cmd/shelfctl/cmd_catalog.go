package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/stats"
)

func newCatalogCmd(out *output) *cobra.Command {
	var (
		metric string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List every achievement criterion",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cat := catalog.Default()
			cs := cat.All()
			if metric != "" {
				m, err := catalog.ParseMetric(metric)
				if err != nil {
					return err
				}
				cs = cat.ForMetric(m)
			}
			if asJSON {
				enc := json.NewEncoder(out.w)
				enc.SetIndent("", "  ")
				return enc.Encode(cs)
			}
			out.title("Achievement catalog")
			out.criteria(cs, func(c catalog.Criterion) string {
				if stats.Evaluable(c.Metric) {
					return "yes"
				}
				return out.render(styles.Muted, "no")
			}, "EVALUABLE")
			out.line("%d criteria", len(cs))
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "", "Only show criteria for this metric")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
