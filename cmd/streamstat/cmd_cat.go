package main

import (
	"github.com/spf13/cobra"

	"github.com/jingkaihe/streamstat/pkg/instrument"
)

var catCmd = &cobra.Command{
	Use:   "cat <path|url>...",
	Short: "Copy files or URLs to stdout through the instrumented layer",
	Example: `  streamstat cat /etc/hostname
  streamstat cat --stats https://example.com/
  STREAMSTAT_DEBUG_FILEIO=20 streamstat cat ./data/a.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCat,
}

func init() {
	catCmd.Flags().String("caller", "", "Caller identifier logged with each operation")
	catCmd.Flags().Bool("stats", false, "Print the counters to stderr when done")

	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	caller, _ := cmd.Flags().GetString("caller")
	showStats, _ := cmd.Flags().GetBool("stats")

	a, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.enable(); err != nil {
		return err
	}

	ctx := instrument.WithCaller(cmd.Context(), caller)
	out := cmd.OutOrStdout()
	for _, target := range args {
		if err := a.copyStream(ctx, out, target); err != nil {
			return err
		}
	}

	if err := a.snapshot(ctx); err != nil {
		a.logger.Warn("snapshot failed", "error", err)
	}
	if showStats {
		return writeStats(cmd, cmd.ErrOrStderr(), a.stats())
	}
	return nil
}
