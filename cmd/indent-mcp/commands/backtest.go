package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/ingest"
	"indent-mcp/internal/report"

	"github.com/spf13/cobra"
)

var (
	btData   datasetFlags
	btOpts   optionFlags
	btFrom   string
	btTo     string
	btFormat string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the T+3 arrival projection over past days and measure its error",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := ingest.ParseDate(btFrom, cfg.DateLayouts)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to, err := ingest.ParseDate(btTo, cfg.DateLayouts)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		ds, err := btData.load(cmd.Context())
		if err != nil {
			return err
		}

		res, err := engine.Backtest(ds, engine.BacktestConfig{From: from, To: to, Options: btOpts.options(cmd)})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if btFormat == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		wr := report.NewWriter(cfg.ReportDecimals)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Date\tTarget\tForecast\tActual\tError\t")
		for _, cp := range res.Checkpoints {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
				engine.FormatDay(cp.Date), engine.FormatDay(cp.Target),
				wr.Number(cp.Forecast), wr.Number(cp.Actual), wr.Number(cp.Error))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "\n%s\n", res.Message)
		return err
	},
}

func init() {
	btData.register(backtestCmd)
	btOpts.register(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVar(&btFrom, "from", "", "first checkpoint date")
	f.StringVar(&btTo, "to", "", "last checkpoint date")
	f.StringVarP(&btFormat, "format", "f", "text", "output format: text or json")
	_ = backtestCmd.MarkFlagRequired("from")
	_ = backtestCmd.MarkFlagRequired("to")
}
