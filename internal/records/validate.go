package records

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError lists every structural problem found in a dataset.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid records: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid records (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks the dataset for problems that make a calculation meaningless.
// It returns nil or a *ValidationError.
func (d Dataset) Validate() error {
	verr := &ValidationError{}

	for i, b := range d.Bonding {
		if strings.TrimSpace(b.CenterCode) == "" {
			verr.add("bonding[%d]: center code is empty", i)
		}
		if !finite(b.Percentage) || b.Percentage < 0 || b.Percentage > 100 {
			verr.add("bonding[%d] %s: percentage %v outside 0-100", i, b.CenterCode, b.Percentage)
		}
	}

	for i, r := range d.Indents {
		if strings.TrimSpace(r.CenterCode) == "" {
			verr.add("indents[%d]: center code is empty", i)
		}
		if r.IndentDate.IsZero() {
			verr.add("indents[%d] %s: indent date is missing", i, r.CenterCode)
		}
		if !finite(r.Quantity) || r.Quantity < 0 {
			verr.add("indents[%d] %s: quantity %v must be a non-negative number", i, r.CenterCode, r.Quantity)
		}
		if r.POCount < 0 {
			verr.add("indents[%d] %s: purchase-order count %d is negative", i, r.CenterCode, r.POCount)
		}
	}

	for i, r := range d.Purchases {
		if strings.TrimSpace(r.CenterCode) == "" {
			verr.add("purchases[%d]: center code is empty", i)
		}
		if r.PurchaseDate.IsZero() {
			verr.add("purchases[%d] %s: purchase date is missing", i, r.CenterCode)
		}
		if r.IndentDate.IsZero() {
			verr.add("purchases[%d] %s: indent date is missing", i, r.CenterCode)
		}
		if !finite(r.Quantity) || r.Quantity < 0 {
			verr.add("purchases[%d] %s: quantity %v must be a non-negative number", i, r.CenterCode, r.Quantity)
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
