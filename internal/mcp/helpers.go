package mcp

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/ingest"
	"indent-mcp/internal/records"
)

var errNoDataset = errors.New("no dataset loaded: call 'load_dataset' first")

// RunSummary is the compact form of a run used in listings.
type RunSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	BaseRunID        string    `json:"base_run_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	CurrentDate      string    `json:"current_date"`
	Centers          int       `json:"centers"`
	TotalRecommended float64   `json:"total_recommended"`
	LowConfidence    int       `json:"low_confidence_rows"`
}

func (s *Server) summarize(r engine.Run) RunSummary {
	return RunSummary{
		ID:               r.ID,
		Name:             r.Name,
		BaseRunID:        r.BaseRunID,
		CreatedAt:        r.CreatedAt,
		CurrentDate:      engine.FormatDay(r.Inputs.CurrentDate),
		Centers:          len(r.Rows),
		TotalRecommended: s.reports.Float(r.Totals.TotalRecommended),
		LowConfidence:    r.Totals.LowConfidence,
	}
}

// resolvePath anchors relative paths at the data directory.
func (s *Server) resolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.cfg.DataPath, p)
}

func (s *Server) parseDate(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	d, err := ingest.ParseDate(raw, s.cfg.DateLayouts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return d, nil
}

// withOptions applies per-call history overrides on top of the configured ones.
func (s *Server) withOptions(lookback, maturity *int) engine.Options {
	opts := s.engine.Options()
	if lookback != nil {
		opts.LookbackDays = *lookback
	}
	if maturity != nil {
		opts.MaturityDays = *maturity
	}
	return opts
}

// lookupRun returns the run with the given ID, or the latest one when id is empty.
func (s *Server) lookupRun(id string) (engine.Run, error) {
	if id == "" {
		r, ok := s.history.Latest()
		if !ok {
			return engine.Run{}, errors.New("no runs stored yet: call 'calculate_indent' first")
		}
		return r, nil
	}
	r, ok := s.history.Get(id)
	if !ok {
		return engine.Run{}, fmt.Errorf("run %s not found", id)
	}
	return r, nil
}

// datasetWarnings flags input shapes the engine tolerates but a planner should know about.
func datasetWarnings(ds records.Dataset) []string {
	var warnings []string
	sum := ds.Summary()
	if sum.BondingTotal < 99.5 || sum.BondingTotal > 100.5 {
		warnings = append(warnings, fmt.Sprintf("Bonding percentages sum to %.2f, not 100; shares are used as given.", sum.BondingTotal))
	}
	if sum.PurchaseRecords == 0 {
		warnings = append(warnings, "No purchase history; every center will use default zero weights.")
	}
	return warnings
}
