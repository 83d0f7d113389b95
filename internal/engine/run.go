package engine

import (
	"slices"
	"time"
)

// Row is one center's recommendation. Rows are values; a run never hands out pointers to them.
type Row struct {
	CenterCode    string       `json:"center_code"`
	BondingPct    float64      `json:"bonding_pct"`
	D1            float64      `json:"d1"`
	D2            float64      `json:"d2"`
	D3            float64      `json:"d3"`
	D4            float64      `json:"d4"`
	WeightSource  WeightSource `json:"weight_source"`
	Occurrences   int          `json:"occurrences"`
	ForecastT3    float64      `json:"forecast_t3"`
	Requirement   float64      `json:"requirement"`
	Adjusted      float64      `json:"adjusted_requirement"`
	Net           float64      `json:"net_requirement"`
	Corrected     float64      `json:"corrected_requirement"`
	Recommended   float64      `json:"recommended_indent"`
	LowConfidence bool         `json:"low_confidence"`
	Flags         []Flag       `json:"flags,omitempty"`
}

// HasFlag reports whether the row carries f.
func (r Row) HasFlag(f Flag) bool {
	return slices.Contains(r.Flags, f)
}

// Totals are the plant-level aggregates of a run.
type Totals struct {
	CurrentDate      time.Time `json:"current_date"`
	ForecastDate     time.Time `json:"forecast_date"`
	TotalRequirement float64   `json:"total_requirement"`
	TotalForecast    float64   `json:"total_forecast"`
	TotalRecommended float64   `json:"total_recommended"`
	Overrun          Overrun   `json:"overrun"`
	OverrunApplied   bool      `json:"overrun_applied"`
	LowConfidence    int       `json:"low_confidence_rows"`
}

// Run is an immutable snapshot of one engine invocation.
type Run struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	BaseRunID string        `json:"base_run_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Inputs    Inputs        `json:"inputs"`
	Options   Options       `json:"options"`
	Window    HistoryWindow `json:"history_window"`
	Rows      []Row         `json:"rows"`
	Totals    Totals        `json:"totals"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// Row looks up a center's row.
func (r Run) Row(center string) (Row, bool) {
	for _, row := range r.Rows {
		if row.CenterCode == center {
			return row, true
		}
	}
	return Row{}, false
}

// Clone deep-copies the run so a caller can derive from it without touching the original.
func (r Run) Clone() Run {
	out := r
	out.Rows = make([]Row, len(r.Rows))
	for i, row := range r.Rows {
		row.Flags = slices.Clone(row.Flags)
		out.Rows[i] = row
	}
	out.Warnings = slices.Clone(r.Warnings)
	return out
}
