package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"indent-mcp/internal/engine"

	"github.com/xuri/excelize/v2"
)

func sampleRun() engine.Run {
	current := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	return engine.Run{
		ID:        "run-1",
		Name:      "baseline",
		CreatedAt: time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC),
		Inputs:    engine.Inputs{CurrentDate: current, TotalDailyRequirement: 1000},
		Window:    engine.HistoryWindow{End: current.AddDate(0, 0, -3)},
		Rows: []engine.Row{
			{CenterCode: "A", BondingPct: 60, D1: 0.6, D2: 0.4, WeightSource: engine.SourceCenter, Occurrences: 4,
				Requirement: 600, Net: 600, Corrected: 600, Recommended: 1000.004},
			{CenterCode: "B", BondingPct: 40, WeightSource: engine.SourceDefault, Requirement: 400, Net: 400,
				Corrected: 400, Recommended: 400.125, LowConfidence: true,
				Flags: []engine.Flag{engine.FlagDefaultWeights, engine.FlagD1Fallback}},
		},
		Totals: engine.Totals{
			CurrentDate:      current,
			ForecastDate:     current.AddDate(0, 0, 3),
			TotalRequirement: 1000,
			TotalRecommended: 1400.129,
			Overrun:          engine.Overrun{Value: 0.0512, Defined: true},
			OverrunApplied:   true,
			LowConfidence:    1,
		},
		Warnings: []string{"Bonding percentages sum to 100.00"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestWriter_RoundingIsPresentationOnly(t *testing.T) {
	run := sampleRun()
	wr := NewWriter(2)

	if got := wr.Number(run.Rows[0].Recommended); got != "1000.00" {
		t.Errorf("expected 1000.00, got %s", got)
	}
	if got := wr.Number(run.Rows[1].Recommended); got != "400.13" {
		t.Errorf("expected half-up 400.13, got %s", got)
	}

	var buf bytes.Buffer
	if err := wr.Write(&buf, run, FormatText); err != nil {
		t.Fatal(err)
	}
	if run.Rows[0].Recommended != 1000.004 {
		t.Error("writing a report must not change the run")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(2).WriteText(&buf, sampleRun()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Indent recommendation: baseline",
		"forecast for 2024-05-23",
		"(all history) .. 2024-05-17",
		"Overrun 5.12%",
		"1400.13",
		"default_weights,d1_fallback",
		"1 row(s) are low confidence",
		"Warnings:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(1).WriteCSV(&buf, sampleRun()); err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output is not parseable: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected header + 2 rows + total, got %d lines", len(recs))
	}
	if recs[1][0] != "A" || recs[1][13] != "1000.0" || recs[1][2] != "0.6000" {
		t.Errorf("unexpected row %v", recs[1])
	}
	if recs[3][0] != "TOTAL" || recs[3][13] != "1400.1" {
		t.Errorf("unexpected total line %v", recs[3])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(2).WriteJSON(&buf, sampleRun()); err != nil {
		t.Fatal(err)
	}
	var v View
	if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v.TotalRecommended != 1400.13 || v.Rows[1].Recommended != 400.13 {
		t.Errorf("unexpected rounded values %+v", v)
	}
	if v.OverrunPct == nil || *v.OverrunPct != 5.12 {
		t.Errorf("expected overrun 5.12%%, got %v", v.OverrunPct)
	}

	undefined := sampleRun()
	undefined.Totals.Overrun = engine.Overrun{}
	if NewWriter(2).Rounded(undefined).OverrunPct != nil {
		t.Error("undefined overrun must be null, not 0")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(2).WriteXLSX(&buf, sampleRun()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("workbook not readable: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != rowsSheet || sheets[1] != summarySheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(rowsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "center_code" || rows[2][0] != "B" {
		t.Errorf("unexpected recommendation rows %v", rows)
	}
	name, err := f.GetCellValue(summarySheet, "B1")
	if err != nil || name != "baseline" {
		t.Errorf("expected run name in summary, got %q (%v)", name, err)
	}
}

func TestWriteComparison(t *testing.T) {
	base := sampleRun()
	scen := sampleRun()
	scen.Name = "high demand"
	scen.Totals.TotalRecommended = 2000
	scen.Rows = scen.Rows[:1]

	var buf bytes.Buffer
	if err := NewWriter(2).WriteComparison(&buf, []engine.Run{base, scen}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "+599.87") {
		t.Errorf("expected delta against the first run:\n%s", out)
	}
	if !strings.Contains(out, "-") {
		t.Errorf("expected a dash for a center missing from a run:\n%s", out)
	}

	buf.Reset()
	if err := NewWriter(2).WriteComparison(&buf, nil); err != nil || !strings.Contains(buf.String(), "No runs") {
		t.Errorf("unexpected empty comparison output %q", buf.String())
	}
}

func TestWriters_RejectNonFiniteRuns(t *testing.T) {
	run := sampleRun()
	run.Rows[0].Recommended = math.Inf(1)
	run.Totals.TotalRecommended = math.Inf(1)

	wr := NewWriter(2)
	for _, format := range []Format{FormatText, FormatJSON, FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			err := wr.Write(&buf, run, format)
			if !errors.Is(err, ErrNotFinite) {
				t.Errorf("expected ErrNotFinite, got %v", err)
			}
		})
	}

	var buf bytes.Buffer
	if err := wr.WriteComparison(&buf, []engine.Run{sampleRun(), run}); !errors.Is(err, ErrNotFinite) {
		t.Errorf("comparison: expected ErrNotFinite, got %v", err)
	}
	if got := wr.Number(math.Inf(1)); got != "+Inf" {
		t.Errorf("Number(+Inf) = %q", got)
	}
	if got := wr.Float(math.NaN()); !math.IsNaN(got) {
		t.Errorf("Float(NaN) = %v, want NaN passed through", got)
	}
}
