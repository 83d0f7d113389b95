package commands

import (
	"encoding/json"

	"indent-mcp/internal/report"
	"indent-mcp/internal/scenario"

	"github.com/spf13/cobra"
)

var (
	scenData   datasetFlags
	scenFile   string
	scenFormat string
	scenOut    string
	scenSave   bool
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Evaluate a YAML what-if file and compare every variation with its baseline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := scenario.ReadFile(scenFile)
		if err != nil {
			return err
		}
		ds, err := scenData.load(cmd.Context())
		if err != nil {
			return err
		}

		runner := scenario.NewRunner(newEngine(), cfg.ScenarioWorkers, cfg.DateLayouts)
		res, err := runner.Run(cmd.Context(), ds, f)
		if err != nil {
			return err
		}

		out, closeOut, err := openOutput(scenOut)
		if err != nil {
			return err
		}
		wr := report.NewWriter(cfg.ReportDecimals)
		switch scenFormat {
		case "json":
			views := make([]report.View, 0, len(res.Scenarios)+1)
			for _, r := range res.Runs() {
				views = append(views, wr.Rounded(r))
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			err = enc.Encode(map[string]any{"name": res.Name, "runs": views})
		default:
			err = wr.WriteComparison(out, res.Runs())
		}
		if err != nil {
			closeOut()
			return err
		}
		if err := closeOut(); err != nil {
			return err
		}

		if scenSave {
			return saveRuns(res.Runs()...)
		}
		return nil
	},
}

func init() {
	scenData.register(scenarioCmd)

	f := scenarioCmd.Flags()
	f.StringVar(&scenFile, "file", "", "scenario YAML file")
	f.StringVarP(&scenFormat, "format", "f", "text", "output format: text or json")
	f.StringVarP(&scenOut, "out", "o", "", "output file (default stdout)")
	f.BoolVar(&scenSave, "save", false, "store baseline and scenarios in the history file")
	_ = scenarioCmd.MarkFlagRequired("file")
}
