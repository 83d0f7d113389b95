package engine

import (
	"math"
	"time"
)

// Day normalizes a timestamp to the start of its calendar date.
// The date is read in the timestamp's own location and returned as UTC midnight,
// so records parsed in different zones still land on the same day key.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a date by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the whole number of calendar days from -> to.
// Negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(math.Round(Day(to).Sub(Day(from)).Hours() / 24))
}

// FormatDay renders a date the way it is keyed throughout the engine.
func FormatDay(t time.Time) string {
	return Day(t).Format("2006-01-02")
}
