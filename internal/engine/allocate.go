package engine

import "math"

// Flag marks a row whose value depends on a fallback rather than observed history.
type Flag string

const (
	// FlagD1Fallback: D1 weight was 0 (or too small to divide by), the recommendation is emitted unscaled.
	FlagD1Fallback Flag = "d1_fallback"
	// FlagPlantWeights: the center had no eligible history and borrowed plant-wide weights.
	FlagPlantWeights Flag = "plant_weights"
	// FlagDefaultWeights: no eligible history existed at all; weights are zero.
	FlagDefaultWeights Flag = "default_weights"
	// FlagOverrunSkipped: the overrun was undefined or <= -1 and no correction was applied.
	FlagOverrunSkipped Flag = "overrun_skipped"
)

// Allocation carries every intermediate step for one center so reports can show the working.
type Allocation struct {
	Share       float64 `json:"share"`       // bonding % / 100
	Requirement float64 `json:"requirement"` // step 1
	Adjusted    float64 `json:"adjusted"`    // step 2
	Net         float64 `json:"net"`         // step 3
	Corrected   float64 `json:"corrected"`   // step 4
	Recommended float64 `json:"recommended"` // step 5
	D1Fallback  bool    `json:"d1_fallback"`
}

// Allocate turns the plant requirement into a center's recommended indent.
// Results may be negative when the center is already over-supplied.
// A D1 so small that the back-solve leaves float64 range is treated like D1 = 0.
func Allocate(in Inputs, bondingPct, forecast float64, overrun Overrun, d1 float64) Allocation {
	var a Allocation
	a.Share = bondingPct / 100

	a.Requirement = in.TotalDailyRequirement * a.Share
	a.Adjusted = a.Requirement + a.Share*in.AvailableStockGate + a.Share*in.AvailableStockCentre
	a.Net = a.Adjusted - forecast
	a.Corrected = a.Net / (1 + overrun.Effective())

	a.Recommended = a.Corrected
	a.D1Fallback = true
	if d1 > 0 {
		if r := a.Corrected / d1; !math.IsInf(r, 0) && !math.IsNaN(r) {
			a.Recommended = r
			a.D1Fallback = false
		}
	}
	return a
}

// finite reports whether every step of the allocation is a real number.
func (a Allocation) finite() bool {
	for _, v := range []float64{a.Requirement, a.Adjusted, a.Net, a.Corrected, a.Recommended} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
