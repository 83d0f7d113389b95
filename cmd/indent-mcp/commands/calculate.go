package commands

import (
	"fmt"
	"time"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/ingest"
	"indent-mcp/internal/report"
	"indent-mcp/internal/scenario"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	calcData     datasetFlags
	calcOpts     optionFlags
	calcInputs   engine.Inputs
	calcDate     string
	calcName     string
	calcFormat   string
	calcOut      string
	calcSave     bool
	calcTemplate string
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Compute the recommended indent per center for one day",
	Example: `  indent-mcp calculate --date 2024-05-20 --requirement 42000 --avail-gate 1500
  indent-mcp calculate --date 2024-05-20 --requirement 42000 --format xlsx --out indent.xlsx --save`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(calcFormat)
		if err != nil {
			return err
		}

		in := calcInputs
		if calcDate == "" {
			in.CurrentDate = engine.Day(time.Now())
		} else if in.CurrentDate, err = ingest.ParseDate(calcDate, cfg.DateLayouts); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}

		ds, err := calcData.load(cmd.Context())
		if err != nil {
			return err
		}

		name := calcName
		if name == "" {
			name = "indent " + engine.FormatDay(in.CurrentDate)
		}
		run, err := engine.New(calcOpts.options(cmd)).Calculate(name, ds, in)
		if err != nil {
			return err
		}
		for _, w := range run.Warnings {
			log.Warn().Str("run", run.ID).Msg(w)
		}

		out, closeOut, err := openOutput(calcOut)
		if err != nil {
			return err
		}
		if err := report.NewWriter(cfg.ReportDecimals).Write(out, run, format); err != nil {
			closeOut()
			return err
		}
		if err := closeOut(); err != nil {
			return err
		}

		if calcTemplate != "" {
			if err := scenario.FromRun(run).Write(calcTemplate); err != nil {
				return err
			}
			log.Info().Str("path", calcTemplate).Msg("Scenario template written")
		}
		if calcSave {
			return saveRuns(run)
		}
		return nil
	},
}

func init() {
	calcData.register(calculateCmd)
	calcOpts.register(calculateCmd)

	f := calculateCmd.Flags()
	f.StringVar(&calcDate, "date", "", "current date T (default today)")
	f.Float64Var(&calcInputs.TotalDailyRequirement, "requirement", 0, "total daily plant requirement")
	f.Float64Var(&calcInputs.PlantCapacity, "capacity", 0, "plant capacity (reference only)")
	f.Float64Var(&calcInputs.StandardStockGate, "std-gate", 0, "standard stock at the gate (reference only)")
	f.Float64Var(&calcInputs.StandardStockCentre, "std-centre", 0, "standard stock at the centres (reference only)")
	f.Float64Var(&calcInputs.AvailableStockGate, "avail-gate", 0, "available stock at the gate")
	f.Float64Var(&calcInputs.AvailableStockCentre, "avail-centre", 0, "available stock at the centres")
	f.StringVar(&calcName, "name", "", "run label")
	f.StringVarP(&calcFormat, "format", "f", "text", "output format: text, json, csv or xlsx")
	f.StringVarP(&calcOut, "out", "o", "", "output file (default stdout)")
	f.BoolVar(&calcSave, "save", false, "store the run in the history file")
	f.StringVar(&calcTemplate, "template", "", "also write a scenario YAML seeded with this run's inputs")
	_ = calculateCmd.MarkFlagRequired("requirement")
}
