package mcp

import (
	"bytes"
	"context"
	"fmt"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/ingest"
	"indent-mcp/internal/records"
	"indent-mcp/internal/report"
	"indent-mcp/internal/scenario"
	"indent-mcp/internal/visuals"

	"github.com/rs/zerolog/log"
)

const defaultHistoryLimit = 20

type LoadDatasetArgs struct {
	Bonding   string `json:"bonding"`
	Indents   string `json:"indents"`
	Purchases string `json:"purchases"`
	Mapping   string `json:"mapping,omitempty"`
}

type CalculateArgs struct {
	Name                  string  `json:"name,omitempty"`
	CurrentDate           string  `json:"current_date"`
	PlantCapacity         float64 `json:"plant_capacity,omitempty"`
	TotalDailyRequirement float64 `json:"total_daily_requirement"`
	StandardStockGate     float64 `json:"standard_stock_gate,omitempty"`
	StandardStockCentre   float64 `json:"standard_stock_centre,omitempty"`
	AvailableStockGate    float64 `json:"available_stock_gate,omitempty"`
	AvailableStockCentre  float64 `json:"available_stock_centre,omitempty"`
	LookbackDays          *int    `json:"lookback_days,omitempty"`
	MaturityDays          *int    `json:"maturity_days,omitempty"`
}

type ScenarioArgs struct {
	File                  string   `json:"file,omitempty"`
	BaseRunID             string   `json:"base_run_id,omitempty"`
	Name                  string   `json:"name,omitempty"`
	CurrentDate           string   `json:"current_date,omitempty"`
	PlantCapacity         *float64 `json:"plant_capacity,omitempty"`
	TotalDailyRequirement *float64 `json:"total_daily_requirement,omitempty"`
	StandardStockGate     *float64 `json:"standard_stock_gate,omitempty"`
	StandardStockCentre   *float64 `json:"standard_stock_centre,omitempty"`
	AvailableStockGate    *float64 `json:"available_stock_gate,omitempty"`
	AvailableStockCentre  *float64 `json:"available_stock_centre,omitempty"`
}

type LagProfileArgs struct {
	CurrentDate string `json:"current_date"`
}

type BacktestArgs struct {
	From         string `json:"from"`
	To           string `json:"to"`
	LookbackDays *int   `json:"lookback_days,omitempty"`
	MaturityDays *int   `json:"maturity_days,omitempty"`
}

type ListHistoryArgs struct {
	Limit *int `json:"limit,omitempty"`
}

type GetRunArgs struct {
	ID      string `json:"id,omitempty"`
	Format  string `json:"format,omitempty"`
	Lineage bool   `json:"lineage,omitempty"`
}

func (s *Server) handleLoadDataset(ctx context.Context, args LoadDatasetArgs) (ResponseEnvelope, error) {
	paths := ingest.Paths{
		Bonding:   s.resolvePath(args.Bonding),
		Indents:   s.resolvePath(args.Indents),
		Purchases: s.resolvePath(args.Purchases),
		Mapping:   s.resolvePath(args.Mapping),
	}
	ds, err := s.loader.LoadDataset(ctx, paths)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	if err := ds.Validate(); err != nil {
		return ResponseEnvelope{}, err
	}
	s.setDataset(ds, paths)

	return ResponseEnvelope{
		Data: map[string]any{
			"paths":   paths,
			"summary": ds.Summary(),
		},
		Warnings: datasetWarnings(ds),
	}, nil
}

func (s *Server) handleCalculate(_ context.Context, args CalculateArgs) (ResponseEnvelope, error) {
	ds, err := s.activeDataset()
	if err != nil {
		return ResponseEnvelope{}, err
	}
	in, err := scenario.InputValues{
		CurrentDate:           args.CurrentDate,
		PlantCapacity:         args.PlantCapacity,
		TotalDailyRequirement: args.TotalDailyRequirement,
		StandardStockGate:     args.StandardStockGate,
		StandardStockCentre:   args.StandardStockCentre,
		AvailableStockGate:    args.AvailableStockGate,
		AvailableStockCentre:  args.AvailableStockCentre,
	}.Inputs(s.cfg.DateLayouts)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	name := args.Name
	if name == "" {
		name = "indent " + engine.FormatDay(in.CurrentDate)
	}
	run, err := s.engine.WithOptions(s.withOptions(args.LookbackDays, args.MaturityDays)).Calculate(name, ds, in)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	log.Info().Str("run", run.ID).Int("centers", len(run.Rows)).Float64("totalRecommended", run.Totals.TotalRecommended).Msg("Indent calculated")

	env := ResponseEnvelope{
		Data:     map[string]any{"run": s.reports.Rounded(run)},
		Warnings: append(run.Warnings, s.persist(run)...),
	}
	if s.cfg.EnableMermaidCharts {
		env.Chart = visuals.GenerateRecommendationChart(run)
	}
	return env, nil
}

func (s *Server) handleRunScenario(ctx context.Context, args ScenarioArgs) (ResponseEnvelope, error) {
	ds, err := s.activeDataset()
	if err != nil {
		return ResponseEnvelope{}, err
	}
	if args.File != "" {
		return s.runScenarioFile(ctx, ds, args.File)
	}

	base, err := s.lookupRun(args.BaseRunID)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	ov, err := scenario.Variation{
		Name:                  args.Name,
		CurrentDate:           args.CurrentDate,
		PlantCapacity:         args.PlantCapacity,
		TotalDailyRequirement: args.TotalDailyRequirement,
		StandardStockGate:     args.StandardStockGate,
		StandardStockCentre:   args.StandardStockCentre,
		AvailableStockGate:    args.AvailableStockGate,
		AvailableStockCentre:  args.AvailableStockCentre,
	}.Overrides(s.cfg.DateLayouts)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	if ov.IsZero() {
		return ResponseEnvelope{}, fmt.Errorf("no overrides given: set at least one input to change, or pass 'file'")
	}

	run, err := s.engine.Rerun(base, args.Name, ds, ov)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	return s.scenarioEnvelope(base.Name, []engine.Run{base, run}, []engine.Run{run}, run.Warnings)
}

func (s *Server) runScenarioFile(ctx context.Context, ds records.Dataset, path string) (ResponseEnvelope, error) {
	f, err := scenario.ReadFile(s.resolvePath(path))
	if err != nil {
		return ResponseEnvelope{}, err
	}
	res, err := scenario.NewRunner(s.engine, s.cfg.ScenarioWorkers, s.cfg.DateLayouts).Run(ctx, ds, f)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	runs := res.Runs()
	return s.scenarioEnvelope(res.Name, runs, runs, res.Base.Warnings)
}

// scenarioEnvelope stores the new runs and compares every run in compared against the first.
func (s *Server) scenarioEnvelope(name string, compared, created []engine.Run, warnings []string) (ResponseEnvelope, error) {
	var buf bytes.Buffer
	if err := s.reports.WriteComparison(&buf, compared); err != nil {
		return ResponseEnvelope{}, err
	}

	views := make([]report.View, len(created))
	for i, r := range created {
		views[i] = s.reports.Rounded(r)
	}

	env := ResponseEnvelope{
		Data: map[string]any{
			"name":       name,
			"base_run":   compared[0].ID,
			"runs":       views,
			"comparison": buf.String(),
		},
		Warnings: append(warnings, s.persist(created...)...),
	}
	if s.cfg.EnableMermaidCharts {
		env.Chart = visuals.GenerateScenarioChart(compared)
	}
	return env, nil
}

func (s *Server) handleLagProfile(_ context.Context, args LagProfileArgs) (ResponseEnvelope, error) {
	ds, err := s.activeDataset()
	if err != nil {
		return ResponseEnvelope{}, err
	}
	current, err := s.parseDate("current_date", args.CurrentDate)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	profile, err := s.engine.LagProfile(ds, current)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	env := ResponseEnvelope{Data: map[string]any{"profile": profile}}
	if profile.Eligible == 0 {
		env.Warnings = append(env.Warnings, "No eligible history in the window; every center reports default zero weights.")
	}
	if s.cfg.EnableMermaidCharts {
		env.Chart = visuals.GenerateLagProfileChart(profile)
	}
	return env, nil
}

func (s *Server) handleBacktest(_ context.Context, args BacktestArgs) (ResponseEnvelope, error) {
	ds, err := s.activeDataset()
	if err != nil {
		return ResponseEnvelope{}, err
	}
	from, err := s.parseDate("from", args.From)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	to, err := s.parseDate("to", args.To)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	res, err := engine.Backtest(ds, engine.BacktestConfig{
		From:    from,
		To:      to,
		Options: s.withOptions(args.LookbackDays, args.MaturityDays),
	})
	if err != nil {
		return ResponseEnvelope{}, err
	}

	env := ResponseEnvelope{Data: map[string]any{"accuracy": res}}
	if res.ActualMean == 0 {
		env.Warnings = append(env.Warnings, "No comparable arrivals in the range; errors are measured against zero.")
	}
	if s.cfg.EnableMermaidCharts {
		env.Chart = visuals.GenerateBacktestChart(res)
	}
	return env, nil
}

func (s *Server) handleListHistory(_ context.Context, args ListHistoryArgs) (ResponseEnvelope, error) {
	limit := defaultHistoryLimit
	if args.Limit != nil {
		limit = *args.Limit
	}
	runs := s.history.List(limit)
	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = s.summarize(r)
	}
	return ResponseEnvelope{
		Data: map[string]any{
			"runs":  summaries,
			"total": s.history.Count(),
		},
	}, nil
}

func (s *Server) handleGetRun(_ context.Context, args GetRunArgs) (ResponseEnvelope, error) {
	run, err := s.lookupRun(args.ID)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	format, err := report.ParseFormat(args.Format)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	if args.Format == "" {
		format = report.FormatJSON
	}

	data := map[string]any{"id": run.ID}
	switch format {
	case report.FormatJSON:
		data["run"] = s.reports.Rounded(run)
	case report.FormatXLSX:
		return ResponseEnvelope{}, fmt.Errorf("xlsx is only available from the command line; use json, text or csv")
	default:
		var buf bytes.Buffer
		if err := s.reports.Write(&buf, run, format); err != nil {
			return ResponseEnvelope{}, err
		}
		data["format"] = format
		data["report"] = buf.String()
	}

	if args.Lineage {
		chain := s.history.Lineage(run.ID)
		lineage := make([]RunSummary, len(chain))
		for i, r := range chain {
			lineage[i] = s.summarize(r)
		}
		data["lineage"] = lineage
	}
	return ResponseEnvelope{Data: data, Warnings: run.Warnings}, nil
}
