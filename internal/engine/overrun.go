package engine

import (
	"indent-mcp/internal/records"
)

// Overrun is the plant-wide delivery bias: total purchased / total indented - 1.
// Positive means the plant receives more than it indents.
type Overrun struct {
	Value         float64 `json:"value"`
	Defined       bool    `json:"defined"`
	IndentTotal   float64 `json:"indent_total"`
	PurchaseTotal float64 `json:"purchase_total"`
}

// EstimateOverrun sums indents dated inside the window and the purchases that
// originate from those indents. The ratio is undefined when nothing was indented.
func EstimateOverrun(indents []records.IndentRecord, purchases []records.PurchaseRecord, w HistoryWindow) Overrun {
	var o Overrun
	for _, r := range indents {
		if w.Contains(r.IndentDate) {
			o.IndentTotal += r.Quantity
		}
	}
	for _, p := range purchases {
		if w.Contains(p.IndentDate) {
			o.PurchaseTotal += p.Quantity
		}
	}
	if o.IndentTotal <= 0 {
		return o
	}
	o.Value = o.PurchaseTotal/o.IndentTotal - 1
	o.Defined = true
	return o
}

// Degenerate reports an overrun of -1 or less, i.e. nothing was ever delivered.
func (o Overrun) Degenerate() bool {
	return o.Defined && o.Value <= -1
}

// Effective is the value the allocator divides by (1 + Effective()).
// Undefined and degenerate overruns are treated as 0.
func (o Overrun) Effective() float64 {
	if !o.Defined || o.Value <= -1 {
		return 0
	}
	return o.Value
}
