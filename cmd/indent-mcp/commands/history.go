package commands

import (
	"fmt"
	"text/tabwriter"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/report"

	"github.com/spf13/cobra"
)

var (
	histLimit   int
	showFormat  string
	showOut     string
	showLineage bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runs := store.List(histLimit)
		if len(runs) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No runs stored.")
			return err
		}

		wr := report.NewWriter(cfg.ReportDecimals)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tName\tDate\tRecommended\tBase\tCreated")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Name, engine.FormatDay(r.Inputs.CurrentDate),
				wr.Number(r.Totals.TotalRecommended), r.BaseRunID, r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Render a stored run (latest when no ID is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(showFormat)
		if err != nil {
			return err
		}

		var run engine.Run
		var ok bool
		if len(args) == 0 {
			run, ok = store.Latest()
		} else {
			run, ok = store.Get(args[0])
		}
		if !ok {
			return fmt.Errorf("run not found in %s", cfg.HistoryFile)
		}

		out, closeOut, err := openOutput(showOut)
		if err != nil {
			return err
		}
		wr := report.NewWriter(cfg.ReportDecimals)
		if showLineage {
			err = wr.WriteComparison(out, reverse(store.Lineage(run.ID)))
		} else {
			err = wr.Write(out, run, format)
		}
		if err != nil {
			closeOut()
			return err
		}
		return closeOut()
	},
}

// reverse orders a lineage oldest first so the original baseline is the comparison reference.
func reverse(runs []engine.Run) []engine.Run {
	out := make([]engine.Run, len(runs))
	for i, r := range runs {
		out[len(runs)-1-i] = r
	}
	return out
}

func init() {
	historyListCmd.Flags().IntVarP(&histLimit, "limit", "n", 20, "maximum number of runs (0 = all)")

	f := historyShowCmd.Flags()
	f.StringVarP(&showFormat, "format", "f", "text", "output format: text, json, csv or xlsx")
	f.StringVarP(&showOut, "out", "o", "", "output file (default stdout)")
	f.BoolVar(&showLineage, "lineage", false, "compare the run with every run it was derived from")

	historyCmd.AddCommand(historyListCmd, historyShowCmd)
}
