package engine

import (
	"fmt"
	"math"
	"slices"
	"time"

	"indent-mcp/internal/records"

	"gonum.org/v1/gonum/stat"
)

// maxBacktestDays caps the number of checkpoints in one backtest.
const maxBacktestDays = 366

// BacktestConfig defines the range of past dates to replay.
type BacktestConfig struct {
	From    time.Time
	To      time.Time
	Options Options
}

// BacktestCheckpoint compares the T+3 projection made on Date with what actually arrived.
type BacktestCheckpoint struct {
	Date     time.Time `json:"date"`
	Target   time.Time `json:"target"`
	Forecast float64   `json:"forecast"`
	Actual   float64   `json:"actual"`
	Error    float64   `json:"error"` // forecast - actual
}

// BacktestResult aggregates the plant-level accuracy of the arrival projection.
type BacktestResult struct {
	Checkpoints    []BacktestCheckpoint `json:"checkpoints"`
	MeanAbsError   float64              `json:"mean_abs_error"`
	MedianAbsError float64              `json:"median_abs_error"`
	Bias           float64              `json:"bias"`
	ActualMean     float64              `json:"actual_mean"`
	Centers        int                  `json:"centers"`
	Message        string               `json:"validation_message"`
}

// Backtest replays the projection for every day in [From, To]. Each checkpoint only
// sees purchases recorded on or before its date, so weights never use future deliveries.
// The comparable actual is what arrived on d+3 from indents placed on d, d+1 and d+2.
func Backtest(ds records.Dataset, cfg BacktestConfig) (BacktestResult, error) {
	if err := cfg.Options.Validate(); err != nil {
		return BacktestResult{}, fmt.Errorf("invalid history options: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return BacktestResult{}, err
	}
	from, to := Day(cfg.From), Day(cfg.To)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return BacktestResult{}, fmt.Errorf("backtest range must satisfy from <= to, got %s..%s", FormatDay(from), FormatDay(to))
	}
	if days := DaysBetween(from, to) + 1; days > maxBacktestDays {
		return BacktestResult{}, fmt.Errorf("backtest range of %d days exceeds the limit of %d", days, maxBacktestDays)
	}

	norm := ds.Normalize()
	book := NewIndentBook(norm.Indents)

	centers := centerUniverse(norm)
	result := BacktestResult{Centers: len(centers)}

	for d := from; !d.After(to); d = AddDays(d, 1) {
		visible := purchasesUpTo(norm.Purchases, d)
		weights := EstimateWeights(FilterEligible(BuildOccurrences(book, visible), cfg.Options.Window(d)))
		target := AddDays(d, ForecastHorizon)

		cp := BacktestCheckpoint{Date: d, Target: target}
		for _, c := range centers {
			cp.Forecast += ProjectArrival(weights.Resolve(c), book, c, d)
		}
		for _, p := range norm.Purchases {
			if !Day(p.PurchaseDate).Equal(target) || !slices.Contains(centers, p.CenterCode) {
				continue
			}
			if lag := DaysBetween(p.IndentDate, p.PurchaseDate); lag >= 1 && lag <= ForecastHorizon {
				cp.Actual += p.Quantity
			}
		}
		cp.Error = cp.Forecast - cp.Actual
		result.Checkpoints = append(result.Checkpoints, cp)
	}

	errs := make([]float64, len(result.Checkpoints))
	absErrs := make([]float64, len(result.Checkpoints))
	actuals := make([]float64, len(result.Checkpoints))
	for i, cp := range result.Checkpoints {
		errs[i] = cp.Error
		absErrs[i] = math.Abs(cp.Error)
		actuals[i] = cp.Actual
	}
	result.Bias = stat.Mean(errs, nil)
	result.MeanAbsError = stat.Mean(absErrs, nil)
	result.MedianAbsError = median(absErrs)
	result.ActualMean = stat.Mean(actuals, nil)

	result.Message = fmt.Sprintf("%d checkpoints replayed: mean absolute error %.2f, bias %+.2f against a mean arrival of %.2f.",
		len(result.Checkpoints), result.MeanAbsError, result.Bias, result.ActualMean)
	return result, nil
}

// centerUniverse prefers the bonding table and falls back to every center seen in history.
func centerUniverse(ds records.Dataset) []string {
	var centers []string
	for _, b := range BondedCenters(ds.Bonding) {
		centers = append(centers, b.CenterCode)
	}
	if len(centers) > 0 {
		return centers
	}
	seen := make(map[string]bool)
	for _, r := range ds.Indents {
		if !seen[r.CenterCode] {
			seen[r.CenterCode] = true
			centers = append(centers, r.CenterCode)
		}
	}
	slices.Sort(centers)
	return centers
}

func purchasesUpTo(purchases []records.PurchaseRecord, d time.Time) []records.PurchaseRecord {
	out := make([]records.PurchaseRecord, 0, len(purchases))
	for _, p := range purchases {
		if !Day(p.PurchaseDate).After(d) {
			out = append(out, p)
		}
	}
	return out
}

// median is the empirical (lower) median; stat.Quantile needs sorted input.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
