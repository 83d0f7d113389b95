package records

import (
	"time"
)

// BondingRecord is a center's allocated share of the plant requirement.
type BondingRecord struct {
	CenterCode string  `json:"center_code"`
	Percentage float64 `json:"bonding_pct"` // 0-100, treated as a proportional weight
}

// IndentRecord is an indent placed for a center on a given date.
// Several records may share a (center, date) pair; their quantities are summed.
type IndentRecord struct {
	CenterCode string    `json:"center_code"`
	IndentDate time.Time `json:"indent_date"`
	Quantity   float64   `json:"quantity"`
	POCount    int       `json:"po_count,omitempty"`
}

// PurchaseRecord is a delivery received against the indent placed on IndentDate.
type PurchaseRecord struct {
	CenterCode   string    `json:"center_code"`
	PurchaseDate time.Time `json:"purchase_date"`
	IndentDate   time.Time `json:"indent_date"`
	Quantity     float64   `json:"quantity"`
}

// Dataset is one snapshot of caller-supplied records.
type Dataset struct {
	Bonding   []BondingRecord  `json:"bonding"`
	Indents   []IndentRecord   `json:"indents"`
	Purchases []PurchaseRecord `json:"purchases"`
	Mapping   CenterMapping    `json:"mapping,omitempty"`
}

// Summary describes the shape of a dataset for the CLI and MCP surfaces.
type Summary struct {
	BondingCenters  int       `json:"bonding_centers"`
	IndentRecords   int       `json:"indent_records"`
	PurchaseRecords int       `json:"purchase_records"`
	MappedCodes     int       `json:"mapped_codes"`
	HistoryCenters  int       `json:"history_centers"`
	BondingTotal    float64   `json:"bonding_total_pct"`
	FirstIndentDate time.Time `json:"first_indent_date,omitzero"`
	LastIndentDate  time.Time `json:"last_indent_date,omitzero"`
}

// Normalize returns a copy of the dataset with the mapping applied to every record.
// The returned dataset keeps the mapping so callers can see what was applied.
func (d Dataset) Normalize() Dataset {
	return Dataset{
		Bonding:   NormalizeBonding(d.Mapping, d.Bonding),
		Indents:   NormalizeIndents(d.Mapping, d.Indents),
		Purchases: NormalizePurchases(d.Mapping, d.Purchases),
		Mapping:   d.Mapping,
	}
}

// Summary computes record counts and the indent date range.
func (d Dataset) Summary() Summary {
	s := Summary{
		IndentRecords:   len(d.Indents),
		PurchaseRecords: len(d.Purchases),
		MappedCodes:     d.Mapping.Len(),
	}

	bonded := make(map[string]bool)
	for _, b := range d.Bonding {
		bonded[d.Mapping.Resolve(b.CenterCode)] = true
		s.BondingTotal += b.Percentage
	}
	s.BondingCenters = len(bonded)

	history := make(map[string]bool)
	for _, r := range d.Indents {
		history[d.Mapping.Resolve(r.CenterCode)] = true
		if s.FirstIndentDate.IsZero() || r.IndentDate.Before(s.FirstIndentDate) {
			s.FirstIndentDate = r.IndentDate
		}
		if r.IndentDate.After(s.LastIndentDate) {
			s.LastIndentDate = r.IndentDate
		}
	}
	for _, r := range d.Purchases {
		history[d.Mapping.Resolve(r.CenterCode)] = true
	}
	s.HistoryCenters = len(history)

	return s
}
