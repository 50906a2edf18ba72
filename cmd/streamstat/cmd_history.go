package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/streamstat/pkg/config"
	"github.com/jingkaihe/streamstat/pkg/perf"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored counter snapshots",
}

var historyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded runs, newest first",
	RunE:    runHistoryList,
}

var historyTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Sum the final counters of every run",
	RunE:  runHistoryTotals,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent runs",
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "Maximum runs to list (0 = all)")
	historyTotalsCmd.Flags().String("instrument", "file", "Instrument to sum (file or http)")
	historyPruneCmd.Flags().Int("keep", 10, "Runs to keep")

	historyCmd.PersistentFlags().String("db", "", "History database (overrides history.db_path)")

	historyCmd.AddCommand(historyListCmd, historyTotalsCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyBindings = config.FlagBindings{"history.db_path": "db"}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := newApp(cmd, historyBindings)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	table, err := tableOutput(cmd, out)
	if err != nil {
		return err
	}
	if !table {
		return writeJSON(out, runs)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tINSTRUMENT\tTAKEN\tSNAPSHOTS\tMISS\tSTAT\tREAD\tWRITE\tBYTES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.RunID, r.Instrument, r.TakenAt.Local().Format("2006-01-02 15:04:05"), r.Snapshots,
			r.Totals.Miss, r.Totals.Stat, r.Totals.Read, r.Totals.Write, r.Totals.Bytes)
	}
	return tw.Flush()
}

func runHistoryTotals(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("instrument")

	a, err := newApp(cmd, historyBindings)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	totals, err := store.Totals(cmd.Context(), name)
	if err != nil {
		return err
	}
	return writeStats(cmd, cmd.OutOrStdout(), map[string]map[string]perf.Counters{name: totals})
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	keep, _ := cmd.Flags().GetInt("keep")

	a, err := newApp(cmd, historyBindings)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Prune(cmd.Context(), keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d snapshots\n", n)
	return nil
}
