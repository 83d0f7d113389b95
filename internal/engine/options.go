package engine

import (
	"fmt"
	"time"
)

// DefaultMaturityDays is the age at which an indent counts as closed: every lag
// bucket up to D4 (lag >= 3) could have been observed by the current date.
const DefaultMaturityDays = 3

// Options controls which part of the history feeds weight and overrun estimation.
type Options struct {
	// LookbackDays bounds history to [T-LookbackDays, ...]. 0 means no lower bound.
	LookbackDays int `json:"lookback_days" yaml:"lookback_days"`
	// MaturityDays excludes indents younger than T-MaturityDays.
	MaturityDays int `json:"maturity_days" yaml:"maturity_days"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{MaturityDays: DefaultMaturityDays}
}

// Validate rejects negative windows.
func (o Options) Validate() error {
	if o.LookbackDays < 0 {
		return fmt.Errorf("lookback days must be >= 0, got %d", o.LookbackDays)
	}
	if o.MaturityDays < 0 {
		return fmt.Errorf("maturity days must be >= 0, got %d", o.MaturityDays)
	}
	if o.LookbackDays > 0 && o.LookbackDays < o.MaturityDays {
		return fmt.Errorf("lookback days (%d) shorter than maturity days (%d) leaves an empty history window", o.LookbackDays, o.MaturityDays)
	}
	return nil
}

// HistoryWindow is the closed range of indent dates that count as history for date T.
type HistoryWindow struct {
	Start time.Time `json:"start,omitzero"` // zero = unbounded
	End   time.Time `json:"end"`
}

// Window resolves the history window relative to the current date.
func (o Options) Window(current time.Time) HistoryWindow {
	w := HistoryWindow{End: AddDays(current, -o.MaturityDays)}
	if o.LookbackDays > 0 {
		w.Start = AddDays(current, -o.LookbackDays)
	}
	return w
}

// Contains reports whether the indent date falls inside the window.
func (w HistoryWindow) Contains(indentDate time.Time) bool {
	d := Day(indentDate)
	if d.After(w.End) {
		return false
	}
	if !w.Start.IsZero() && d.Before(w.Start) {
		return false
	}
	return true
}
