package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/okian/shelf/pkg/logger"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	noColor  bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	out := &output{}

	root := &cobra.Command{
		Use:          "shelfctl",
		Short:        "Inspect and exercise the shelf reading achievements engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr()); err != nil {
				return err
			}
			if err := logger.SetLevelString(opts.logLevel); err != nil {
				return err
			}
			out.w = cmd.OutOrStdout()
			out.plain = opts.noColor || !isTerminal(cmd)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newCatalogCmd(out),
		newEvaluateCmd(out),
		newStreakCmd(out),
		newSimulateCmd(out),
	)
	return root
}

// isTerminal reports whether the command writes to an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
