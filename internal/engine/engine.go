package engine

import (
	"fmt"
	"math"
	"time"

	"indent-mcp/internal/records"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// bondingTolerance is how far the bonding total may drift from 100 before a warning is raised.
const bondingTolerance = 0.5

// Engine computes indent recommendations. It holds configuration only and is safe
// for concurrent use; every call works on its own copies of the inputs.
type Engine struct {
	opts  Options
	now   func() time.Time
	newID func() string
}

// New creates an engine with the given history options.
func New(opts Options) *Engine {
	return &Engine{
		opts:  opts,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// WithClock returns a copy of the engine that stamps runs using now.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	cp := *e
	cp.now = now
	return &cp
}

// WithOptions returns a copy of the engine that uses opts for new calculations.
func (e *Engine) WithOptions(opts Options) *Engine {
	cp := *e
	cp.opts = opts
	return &cp
}

// Options returns the engine's history options.
func (e *Engine) Options() Options {
	return e.opts
}

// Calculate runs the full pipeline: normalize, estimate weights and overrun,
// project arrivals and allocate the requirement across bonded centers.
func (e *Engine) Calculate(name string, ds records.Dataset, in Inputs) (Run, error) {
	return e.calculate(name, "", ds, in, e.opts)
}

// Rerun derives a new run from base with some inputs overridden. The base run is
// left untouched and its history options are reused so both runs are comparable.
func (e *Engine) Rerun(base Run, name string, ds records.Dataset, ov Overrides) (Run, error) {
	if name == "" {
		name = base.Name + " (scenario)"
	}
	return e.calculate(name, base.ID, ds, base.Inputs.With(ov), base.Options)
}

func (e *Engine) calculate(name, baseID string, ds records.Dataset, in Inputs, opts Options) (Run, error) {
	if err := in.Validate(); err != nil {
		return Run{}, err
	}
	if err := opts.Validate(); err != nil {
		return Run{}, fmt.Errorf("invalid history options: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return Run{}, err
	}

	current := Day(in.CurrentDate)
	norm := ds.Normalize()
	window := opts.Window(current)

	book := NewIndentBook(norm.Indents)
	eligible := FilterEligible(BuildOccurrences(book, norm.Purchases), window)
	weights := EstimateWeights(eligible)
	overrun := EstimateOverrun(norm.Indents, norm.Purchases, window)

	log.Debug().
		Str("run", name).
		Str("date", FormatDay(current)).
		Int("eligibleOccurrences", len(eligible)).
		Int("centersWithHistory", weights.Centers()).
		Float64("overrun", overrun.Value).
		Bool("overrunDefined", overrun.Defined).
		Msg("Estimated lag weights and overrun")

	run := Run{
		ID:        e.newID(),
		Name:      name,
		BaseRunID: baseID,
		CreatedAt: e.now(),
		Inputs:    in,
		Options:   opts,
		Window:    window,
		Totals: Totals{
			CurrentDate:    current,
			ForecastDate:   AddDays(current, ForecastHorizon),
			Overrun:        overrun,
			OverrunApplied: overrun.Defined && !overrun.Degenerate(),
		},
	}

	centers := BondedCenters(norm.Bonding)
	run.Rows = make([]Row, 0, len(centers))
	for _, c := range centers {
		w := weights.Resolve(c.CenterCode)
		forecast := ProjectArrival(w, book, c.CenterCode, current)
		a := Allocate(in, c.Percentage, forecast, overrun, w.D1)
		if !a.finite() {
			return Run{}, &InputError{Problems: []string{
				fmt.Sprintf("recommendation for center %s exceeds the representable range; inputs are too large", c.CenterCode),
			}}
		}

		row := Row{
			CenterCode:   c.CenterCode,
			BondingPct:   c.Percentage,
			D1:           w.D1,
			D2:           w.D2,
			D3:           w.D3,
			D4:           w.D4,
			WeightSource: w.Source,
			Occurrences:  w.Occurrences,
			ForecastT3:   forecast,
			Requirement:  a.Requirement,
			Adjusted:     a.Adjusted,
			Net:          a.Net,
			Corrected:    a.Corrected,
			Recommended:  a.Recommended,
		}
		switch w.Source {
		case SourcePlant:
			row.Flags = append(row.Flags, FlagPlantWeights)
		case SourceDefault:
			row.Flags = append(row.Flags, FlagDefaultWeights)
		}
		if !run.Totals.OverrunApplied {
			row.Flags = append(row.Flags, FlagOverrunSkipped)
		}
		if a.D1Fallback {
			row.Flags = append(row.Flags, FlagD1Fallback)
			row.LowConfidence = true
			log.Debug().Str("center", c.CenterCode).Msg("D1 weight unusable, recommendation left unscaled")
		}

		run.Totals.TotalRequirement += row.Requirement
		run.Totals.TotalForecast += row.ForecastT3
		run.Totals.TotalRecommended += row.Recommended
		if row.LowConfidence {
			run.Totals.LowConfidence++
		}
		run.Rows = append(run.Rows, row)
	}

	if t := run.Totals; math.IsInf(t.TotalRequirement, 0) || math.IsInf(t.TotalForecast, 0) || math.IsInf(t.TotalRecommended, 0) {
		return Run{}, &InputError{Problems: []string{"plant totals exceed the representable range; inputs are too large"}}
	}

	run.Warnings = runWarnings(in, centers, overrun, weights)
	return run, nil
}

// BondedCenters returns the active center universe in first-appearance order.
// Duplicate entries (typically aliases consolidated by the mapping) are summed.
func BondedCenters(bonding []records.BondingRecord) []records.BondingRecord {
	index := make(map[string]int, len(bonding))
	var out []records.BondingRecord
	for _, b := range bonding {
		if i, ok := index[b.CenterCode]; ok {
			out[i].Percentage += b.Percentage
			continue
		}
		index[b.CenterCode] = len(out)
		out = append(out, b)
	}
	return out
}

func runWarnings(in Inputs, centers []records.BondingRecord, overrun Overrun, weights WeightTable) []string {
	var warnings []string

	if len(centers) == 0 {
		warnings = append(warnings, "Bonding table is empty; no centers to recommend for.")
	}

	total := 0.0
	for _, c := range centers {
		total += c.Percentage
	}
	if len(centers) > 0 && math.Abs(total-100) > bondingTolerance {
		warnings = append(warnings, fmt.Sprintf("Bonding percentages sum to %.2f, not 100; allocations are proportional to the raw values.", total))
	}

	if in.PlantCapacity > 0 && in.TotalDailyRequirement > in.PlantCapacity {
		warnings = append(warnings, fmt.Sprintf("Total daily requirement %.2f exceeds plant capacity %.2f.", in.TotalDailyRequirement, in.PlantCapacity))
	}

	switch {
	case !overrun.Defined:
		warnings = append(warnings, "Overrun is undefined (no indents in the history window); no overrun correction applied.")
	case overrun.Degenerate():
		warnings = append(warnings, fmt.Sprintf("Overrun is %.4f (no deliveries against indents); correction skipped.", overrun.Value))
	}

	if weights.Plant().Source == SourceDefault {
		warnings = append(warnings, "No eligible delivery history in the window; all lag weights are zero and recommendations are unscaled.")
	}
	return warnings
}
