package engine

import (
	"fmt"
	"time"

	"indent-mcp/internal/records"
)

// LagProfile is the arrival-lag picture as of one date, without any allocation.
type LagProfile struct {
	CurrentDate time.Time       `json:"current_date"`
	Window      HistoryWindow   `json:"history_window"`
	Eligible    int             `json:"eligible_occurrences"`
	Plant       CenterWeights   `json:"plant"`
	Centers     []CenterWeights `json:"centers"`
}

// LagProfile resolves weights for every bonded center (every center with indents
// when the bonding table is empty) using the engine's history options.
func (e *Engine) LagProfile(ds records.Dataset, current time.Time) (LagProfile, error) {
	if current.IsZero() {
		return LagProfile{}, fmt.Errorf("current date is required")
	}
	if err := e.opts.Validate(); err != nil {
		return LagProfile{}, fmt.Errorf("invalid history options: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return LagProfile{}, err
	}

	current = Day(current)
	norm := ds.Normalize()
	window := e.opts.Window(current)
	eligible := FilterEligible(BuildOccurrences(NewIndentBook(norm.Indents), norm.Purchases), window)
	table := EstimateWeights(eligible)

	p := LagProfile{
		CurrentDate: current,
		Window:      window,
		Eligible:    len(eligible),
		Plant:       table.Plant(),
	}
	for _, c := range centerUniverse(norm) {
		p.Centers = append(p.Centers, table.Resolve(c))
	}
	return p, nil
}
