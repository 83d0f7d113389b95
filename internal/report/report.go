package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"indent-mcp/internal/engine"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the rounding applied when none is configured.
const DefaultDecimals = 2

// Format selects a report writer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (expected text, json, csv or xlsx)", s)
	}
}

// Writer renders runs. Rounding happens here only; runs keep full precision.
type Writer struct {
	places int32
}

// NewWriter creates a writer rounding to the given number of decimals.
func NewWriter(decimals int) *Writer {
	if decimals < 0 {
		decimals = DefaultDecimals
	}
	return &Writer{places: int32(decimals)}
}

// Write renders run in the requested format.
func (wr *Writer) Write(w io.Writer, run engine.Run, format Format) error {
	switch format {
	case FormatText, "":
		return wr.WriteText(w, run)
	case FormatJSON:
		return wr.WriteJSON(w, run)
	case FormatCSV:
		return wr.WriteCSV(w, run)
	case FormatXLSX:
		return wr.WriteXLSX(w, run)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// ErrNotFinite is returned when a run carries NaN or infinite figures.
var ErrNotFinite = errors.New("run contains a non-finite value")

// round reports false for NaN and ±Inf, which decimal cannot represent.
func (wr *Writer) round(v float64) (decimal.Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(v).Round(wr.places), true
}

// Number formats v with the writer's fixed number of decimals.
// Non-finite values are printed as Go formats them.
func (wr *Writer) Number(v float64) string {
	d, ok := wr.round(v)
	if !ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return d.StringFixed(wr.places)
}

// Float rounds v for structured outputs. Non-finite values pass through unchanged.
func (wr *Writer) Float(v float64) float64 {
	d, ok := wr.round(v)
	if !ok {
		return v
	}
	return d.InexactFloat64()
}

// checkFinite names the first figure of run that cannot be rendered.
func checkFinite(run engine.Run) error {
	t := run.Totals
	for name, v := range map[string]float64{
		"total requirement": t.TotalRequirement,
		"total forecast":    t.TotalForecast,
		"total recommended": t.TotalRecommended,
		"overrun":           t.Overrun.Value,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrNotFinite, name, v)
		}
	}
	for _, r := range run.Rows {
		for _, v := range []float64{r.ForecastT3, r.Requirement, r.Adjusted, r.Net, r.Corrected, r.Recommended} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: center %s has %v", ErrNotFinite, r.CenterCode, v)
			}
		}
	}
	return nil
}

func weight(v float64) string {
	return decimal.NewFromFloat(v).Round(4).StringFixed(4)
}

func flags(r engine.Row) string {
	parts := make([]string, len(r.Flags))
	for i, f := range r.Flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// WriteText renders a human-readable table.
func (wr *Writer) WriteText(w io.Writer, run engine.Run) error {
	if err := checkFinite(run); err != nil {
		return err
	}
	t := run.Totals
	fmt.Fprintf(w, "Indent recommendation: %s\n", run.Name)
	fmt.Fprintf(w, "Run %s  created %s\n", run.ID, run.CreatedAt.Format(time.RFC3339))
	if run.BaseRunID != "" {
		fmt.Fprintf(w, "Scenario of run %s\n", run.BaseRunID)
	}
	fmt.Fprintf(w, "Current date %s, forecast for %s\n", engine.FormatDay(t.CurrentDate), engine.FormatDay(t.ForecastDate))
	fmt.Fprintf(w, "History window %s .. %s\n", windowStart(run.Window), engine.FormatDay(run.Window.End))
	fmt.Fprintf(w, "Overrun %s\n\n", wr.overrun(t))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Center\tBonding %\tD1\tD2\tD3\tD4\tSource\tForecast T+3\tRequirement\tNet\tRecommended\tFlags\t")
	for _, r := range run.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.CenterCode, wr.Number(r.BondingPct),
			weight(r.D1), weight(r.D2), weight(r.D3), weight(r.D4),
			r.WeightSource,
			wr.Number(r.ForecastT3), wr.Number(r.Requirement), wr.Number(r.Net), wr.Number(r.Recommended),
			flags(r))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t\t\t\t%s\t%s\t\t%s\t\t\n",
		wr.Number(t.TotalForecast), wr.Number(t.TotalRequirement), wr.Number(t.TotalRecommended))
	if err := tw.Flush(); err != nil {
		return err
	}

	if t.LowConfidence > 0 {
		fmt.Fprintf(w, "\n%d row(s) are low confidence.\n", t.LowConfidence)
	}
	if len(run.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range run.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
	return nil
}

func (wr *Writer) overrun(t engine.Totals) string {
	switch {
	case !t.Overrun.Defined:
		return "undefined (not applied)"
	case !t.OverrunApplied:
		return wr.Number(t.Overrun.Value*100) + "% (not applied)"
	default:
		return wr.Number(t.Overrun.Value*100) + "%"
	}
}

func windowStart(w engine.HistoryWindow) string {
	if w.Start.IsZero() {
		return "(all history)"
	}
	return engine.FormatDay(w.Start)
}

var csvHeader = []string{
	"center_code", "bonding_pct", "d1", "d2", "d3", "d4", "weight_source", "occurrences",
	"forecast_t3", "requirement", "adjusted_requirement", "net_requirement", "corrected_requirement",
	"recommended_indent", "low_confidence", "flags",
}

// WriteCSV writes one line per center followed by a TOTAL line.
func (wr *Writer) WriteCSV(w io.Writer, run engine.Run) error {
	if err := checkFinite(run); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range run.Rows {
		rec := []string{
			r.CenterCode, wr.Number(r.BondingPct),
			weight(r.D1), weight(r.D2), weight(r.D3), weight(r.D4),
			string(r.WeightSource), fmt.Sprint(r.Occurrences),
			wr.Number(r.ForecastT3), wr.Number(r.Requirement), wr.Number(r.Adjusted),
			wr.Number(r.Net), wr.Number(r.Corrected), wr.Number(r.Recommended),
			fmt.Sprint(r.LowConfidence), flags(r),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	t := run.Totals
	total := make([]string, len(csvHeader))
	total[0] = "TOTAL"
	total[8] = wr.Number(t.TotalForecast)
	total[9] = wr.Number(t.TotalRequirement)
	total[13] = wr.Number(t.TotalRecommended)
	if err := cw.Write(total); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ViewRow is a rounded Row.
type ViewRow struct {
	CenterCode    string   `json:"center_code"`
	BondingPct    float64  `json:"bonding_pct"`
	D1            float64  `json:"d1"`
	D2            float64  `json:"d2"`
	D3            float64  `json:"d3"`
	D4            float64  `json:"d4"`
	WeightSource  string   `json:"weight_source"`
	Occurrences   int      `json:"occurrences"`
	ForecastT3    float64  `json:"forecast_t3"`
	Requirement   float64  `json:"requirement"`
	Net           float64  `json:"net_requirement"`
	Corrected     float64  `json:"corrected_requirement"`
	Recommended   float64  `json:"recommended_indent"`
	LowConfidence bool     `json:"low_confidence"`
	Flags         []string `json:"flags,omitempty"`
}

// View is the rounded presentation of a run.
type View struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	BaseRunID        string    `json:"base_run_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	CurrentDate      string    `json:"current_date"`
	ForecastDate     string    `json:"forecast_date"`
	OverrunPct       *float64  `json:"overrun_pct"`
	OverrunApplied   bool      `json:"overrun_applied"`
	TotalRequirement float64   `json:"total_requirement"`
	TotalForecast    float64   `json:"total_forecast"`
	TotalRecommended float64   `json:"total_recommended"`
	Rows             []ViewRow `json:"rows"`
	Warnings         []string  `json:"warnings,omitempty"`
}

// Rounded returns the presentation view of a run used by the JSON writer and the MCP server.
func (wr *Writer) Rounded(run engine.Run) View {
	t := run.Totals
	rep := View{
		ID:               run.ID,
		Name:             run.Name,
		BaseRunID:        run.BaseRunID,
		CreatedAt:        run.CreatedAt,
		CurrentDate:      engine.FormatDay(t.CurrentDate),
		ForecastDate:     engine.FormatDay(t.ForecastDate),
		OverrunApplied:   t.OverrunApplied,
		TotalRequirement: wr.Float(t.TotalRequirement),
		TotalForecast:    wr.Float(t.TotalForecast),
		TotalRecommended: wr.Float(t.TotalRecommended),
		Rows:             make([]ViewRow, 0, len(run.Rows)),
		Warnings:         run.Warnings,
	}
	if t.Overrun.Defined {
		pct := wr.Float(t.Overrun.Value * 100)
		rep.OverrunPct = &pct
	}
	for _, r := range run.Rows {
		row := ViewRow{
			CenterCode:    r.CenterCode,
			BondingPct:    wr.Float(r.BondingPct),
			D1:            decimal.NewFromFloat(r.D1).Round(4).InexactFloat64(),
			D2:            decimal.NewFromFloat(r.D2).Round(4).InexactFloat64(),
			D3:            decimal.NewFromFloat(r.D3).Round(4).InexactFloat64(),
			D4:            decimal.NewFromFloat(r.D4).Round(4).InexactFloat64(),
			WeightSource:  string(r.WeightSource),
			Occurrences:   r.Occurrences,
			ForecastT3:    wr.Float(r.ForecastT3),
			Requirement:   wr.Float(r.Requirement),
			Net:           wr.Float(r.Net),
			Corrected:     wr.Float(r.Corrected),
			Recommended:   wr.Float(r.Recommended),
			LowConfidence: r.LowConfidence,
		}
		for _, f := range r.Flags {
			row.Flags = append(row.Flags, string(f))
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// WriteJSON writes the rounded view as indented JSON.
func (wr *Writer) WriteJSON(w io.Writer, run engine.Run) error {
	if err := checkFinite(run); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wr.Rounded(run))
}
