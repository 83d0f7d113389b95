package engine

import (
	"time"

	"indent-mcp/internal/records"
)

// ForecastHorizon is how far ahead the arrival projection looks.
const ForecastHorizon = 3

type bookKey struct {
	center string
	date   time.Time
}

// IndentBook is a (center, date) -> total indent quantity lookup.
type IndentBook struct {
	qty map[bookKey]float64
}

// NewIndentBook sums indent records per center and calendar date.
func NewIndentBook(indents []records.IndentRecord) IndentBook {
	qty := make(map[bookKey]float64, len(indents))
	for _, r := range indents {
		qty[bookKey{center: r.CenterCode, date: Day(r.IndentDate)}] += r.Quantity
	}
	return IndentBook{qty: qty}
}

// Quantity returns the indented total, or 0 when nothing was indented that day.
func (b IndentBook) Quantity(center string, date time.Time) float64 {
	return b.qty[bookKey{center: center, date: Day(date)}]
}

// ProjectArrival forecasts the quantity arriving at T+3 from indents already placed:
//
//	D2 x indent(T+2) + D3 x indent(T+1) + D4 x indent(T)
func ProjectArrival(w CenterWeights, book IndentBook, center string, current time.Time) float64 {
	return w.D2*book.Quantity(center, AddDays(current, 2)) +
		w.D3*book.Quantity(center, AddDays(current, 1)) +
		w.D4*book.Quantity(center, current)
}
