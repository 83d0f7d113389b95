package scenario

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/records"
)

const sampleYAML = `
name: monsoon week
base:
  current_date: 2024-05-20
  plant_capacity: 5000
  total_daily_requirement: 1000
options:
  lookback_days: 60
  maturity_days: 3
scenarios:
  - name: high demand
    total_daily_requirement: 2000
  - name: stocked gate
    available_stock_gate: 500
  - name: next day
    current_date: 21-05-2024
`

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func dataset() records.Dataset {
	return records.Dataset{
		Bonding: []records.BondingRecord{
			{CenterCode: "A", Percentage: 60},
			{CenterCode: "B", Percentage: 40},
		},
		Indents: []records.IndentRecord{
			{CenterCode: "A", IndentDate: day("2024-05-01"), Quantity: 100},
			{CenterCode: "B", IndentDate: day("2024-05-01"), Quantity: 100},
		},
		Purchases: []records.PurchaseRecord{
			{CenterCode: "A", IndentDate: day("2024-05-01"), PurchaseDate: day("2024-05-01"), Quantity: 60},
			{CenterCode: "A", IndentDate: day("2024-05-01"), PurchaseDate: day("2024-05-02"), Quantity: 40},
			{CenterCode: "B", IndentDate: day("2024-05-01"), PurchaseDate: day("2024-05-01"), Quantity: 50},
			{CenterCode: "B", IndentDate: day("2024-05-01"), PurchaseDate: day("2024-05-05"), Quantity: 50},
		},
	}
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Name != "monsoon week" || len(f.Scenarios) != 3 {
		t.Fatalf("unexpected file %+v", f)
	}
	if f.Options == nil || f.Options.LookbackDays != 60 {
		t.Errorf("expected options block to be parsed, got %+v", f.Options)
	}
	if f.Scenarios[0].TotalDailyRequirement == nil || *f.Scenarios[0].TotalDailyRequirement != 2000 {
		t.Errorf("expected override 2000, got %v", f.Scenarios[0].TotalDailyRequirement)
	}
	if f.Scenarios[1].TotalDailyRequirement != nil {
		t.Error("omitted field must stay nil so the base value is kept")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"NoDate", "base:\n  total_daily_requirement: 10\n", "base.current_date is required"},
		{"UnnamedScenario", "base:\n  current_date: 2024-01-01\nscenarios:\n  - total_daily_requirement: 5\n", "has no name"},
		{"DuplicateName", "base:\n  current_date: 2024-01-01\nscenarios:\n  - name: x\n  - name: x\n", "used twice"},
		{"Malformed", "base: [", "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunner_Run(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	e := engine.New(engine.DefaultOptions())
	res, err := NewRunner(e, 2, nil).Run(context.Background(), dataset(), f)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Base.Options.LookbackDays != 60 {
		t.Errorf("file options must override engine options, got %+v", res.Base.Options)
	}
	if len(res.Scenarios) != 3 || len(res.Runs()) != 4 {
		t.Fatalf("expected 3 scenarios, got %d", len(res.Scenarios))
	}
	for i, want := range []string{"high demand", "stocked gate", "next day"} {
		got := res.Scenarios[i]
		if got.Name != want {
			t.Errorf("scenario %d: expected %q, got %q (file order must be kept)", i, want, got.Name)
		}
		if got.BaseRunID != res.Base.ID {
			t.Errorf("scenario %q not linked to the baseline", got.Name)
		}
	}

	if math.Abs(res.Scenarios[0].Totals.TotalRecommended-2*res.Base.Totals.TotalRecommended) > 1e-9 {
		t.Errorf("doubling demand should double the recommendation: %v vs %v",
			res.Scenarios[0].Totals.TotalRecommended, res.Base.Totals.TotalRecommended)
	}
	if res.Scenarios[1].Totals.TotalRecommended <= res.Base.Totals.TotalRecommended {
		t.Error("adding available gate stock should raise the recommendation")
	}
	if !res.Scenarios[2].Totals.CurrentDate.Equal(day("2024-05-21")) {
		t.Errorf("expected date override, got %v", res.Scenarios[2].Totals.CurrentDate)
	}
	if res.Base.Inputs.TotalDailyRequirement != 1000 {
		t.Error("baseline inputs were modified by a scenario")
	}
}

func TestRunner_FailingScenarioFailsBatch(t *testing.T) {
	f, err := Parse([]byte("base:\n  current_date: 2024-05-20\nscenarios:\n  - name: broken\n    total_daily_requirement: -5\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewRunner(engine.New(engine.DefaultOptions()), 0, nil).Run(context.Background(), dataset(), f)
	if err == nil || !strings.Contains(err.Error(), `scenario "broken"`) {
		t.Errorf("expected scenario error, got %v", err)
	}
}

func TestFromRun_RoundTrip(t *testing.T) {
	e := engine.New(engine.DefaultOptions())
	run, err := e.Calculate("base", dataset(), engine.Inputs{CurrentDate: day("2024-05-20"), TotalDailyRequirement: 750})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := FromRun(run).Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	in, err := f.Base.Inputs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !in.CurrentDate.Equal(run.Inputs.CurrentDate) || in.TotalDailyRequirement != 750 {
		t.Errorf("template did not preserve inputs: %+v", in)
	}
}
