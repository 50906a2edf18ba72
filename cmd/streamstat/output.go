package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jingkaihe/streamstat/internal/errx"
	"github.com/jingkaihe/streamstat/pkg/perf"
)

// tableOutput decides between a table and JSON. "auto" picks the table
// only when w is a terminal.
func tableOutput(cmd *cobra.Command, w io.Writer) (bool, error) {
	mode, _ := cmd.Flags().GetString("output")
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "table":
		return true, nil
	case "json":
		return false, nil
	case "", "auto":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	}
	return false, errx.With(ErrOutputMode, " %q", mode)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeStats prints per-instrument counters tables.
func writeStats(cmd *cobra.Command, w io.Writer, stats map[string]map[string]perf.Counters) error {
	table, err := tableOutput(cmd, w)
	if err != nil {
		return err
	}
	if !table {
		return writeJSON(w, stats)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTRUMENT\tCATEGORY\tMISS\tSTAT\tREAD\tWRITE\tBYTES")
	for _, name := range sortedKeys(stats) {
		for _, category := range sortedKeys(stats[name]) {
			c := stats[name][category]
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
				name, category, c.Miss, c.Stat, c.Read, c.Write, c.Bytes)
		}
	}
	return tw.Flush()
}

func (a *app) stats() map[string]map[string]perf.Counters {
	out := make(map[string]map[string]perf.Counters)
	for _, inst := range a.instruments() {
		out[inst.Name()] = inst.PerfStats()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
