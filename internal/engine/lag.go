package engine

import (
	"sort"
	"time"

	"indent-mcp/internal/records"
)

// Bucket is one of the four arrival-lag classes.
type Bucket int

const (
	// D1 is a same-day arrival (lag <= 0; negative lags are clamped here).
	D1 Bucket = iota
	// D2 arrives one day after the indent.
	D2
	// D3 arrives two days after the indent.
	D3
	// D4 arrives three or more days after the indent.
	D4
)

// NumBuckets is the number of lag classes.
const NumBuckets = 4

func (b Bucket) String() string {
	switch b {
	case D1:
		return "D1"
	case D2:
		return "D2"
	case D3:
		return "D3"
	case D4:
		return "D4"
	default:
		return "unknown"
	}
}

// ClassifyLag buckets the whole-day gap between an indent and the purchase that fulfilled it.
func ClassifyLag(indentDate, purchaseDate time.Time) Bucket {
	lag := DaysBetween(indentDate, purchaseDate)
	switch {
	case lag <= 0:
		return D1
	case lag == 1:
		return D2
	case lag == 2:
		return D3
	default:
		return D4
	}
}

// Occurrence is the delivery pattern observed for one (center, indent date).
type Occurrence struct {
	Center     string              `json:"center"`
	IndentDate time.Time           `json:"indent_date"`
	IndentQty  float64             `json:"indent_qty"`
	Delivered  float64             `json:"delivered"`
	BucketQty  [NumBuckets]float64 `json:"bucket_qty"`
}

// Shares returns bucket_qty / indent_qty per bucket.
// An occurrence without indent quantity has no defined shares and returns zeros;
// FilterEligible keeps such occurrences out of any average.
func (o Occurrence) Shares() [NumBuckets]float64 {
	var shares [NumBuckets]float64
	if o.IndentQty <= 0 {
		return shares
	}
	for b, qty := range o.BucketQty {
		shares[b] = qty / o.IndentQty
	}
	return shares
}

// BuildOccurrences groups purchases by (center, originating indent date) and attaches
// the summed indent quantity for that key. Output is sorted by center then date.
func BuildOccurrences(book IndentBook, purchases []records.PurchaseRecord) []Occurrence {
	groups := make(map[bookKey]*Occurrence)

	for _, p := range purchases {
		key := bookKey{center: p.CenterCode, date: Day(p.IndentDate)}
		occ, ok := groups[key]
		if !ok {
			occ = &Occurrence{
				Center:     key.center,
				IndentDate: key.date,
				IndentQty:  book.Quantity(key.center, key.date),
			}
			groups[key] = occ
		}
		occ.BucketQty[ClassifyLag(p.IndentDate, p.PurchaseDate)] += p.Quantity
		occ.Delivered += p.Quantity
	}

	out := make([]Occurrence, 0, len(groups))
	for _, occ := range groups {
		out = append(out, *occ)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Center != out[j].Center {
			return out[i].Center < out[j].Center
		}
		return out[i].IndentDate.Before(out[j].IndentDate)
	})
	return out
}

// Eligible is the predicate for the conditional average: the indent quantity
// must be positive (the share is otherwise undefined) and the indent must fall
// inside the history window.
func (w HistoryWindow) Eligible(o Occurrence) bool {
	return o.IndentQty > 0 && w.Contains(o.IndentDate)
}

// FilterEligible keeps the occurrences that satisfy Eligible, preserving order.
func FilterEligible(occs []Occurrence, w HistoryWindow) []Occurrence {
	out := make([]Occurrence, 0, len(occs))
	for _, o := range occs {
		if w.Eligible(o) {
			out = append(out, o)
		}
	}
	return out
}
