package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Inputs are the current-day assumptions for one run.
type Inputs struct {
	CurrentDate           time.Time `json:"current_date"`
	PlantCapacity         float64   `json:"plant_capacity"`
	TotalDailyRequirement float64   `json:"total_daily_requirement"`
	StandardStockGate     float64   `json:"standard_stock_gate"`
	StandardStockCentre   float64   `json:"standard_stock_centre"`
	AvailableStockGate    float64   `json:"available_stock_gate"`
	AvailableStockCentre  float64   `json:"available_stock_centre"`
}

// InputError reports structurally invalid calculation inputs.
type InputError struct {
	Problems []string
}

func (e *InputError) Error() string {
	return "invalid calculation inputs: " + strings.Join(e.Problems, "; ")
}

// Validate requires a current date and finite, non-negative numbers.
func (in Inputs) Validate() error {
	var problems []string
	if in.CurrentDate.IsZero() {
		problems = append(problems, "current date is required")
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"plant_capacity", in.PlantCapacity},
		{"total_daily_requirement", in.TotalDailyRequirement},
		{"standard_stock_gate", in.StandardStockGate},
		{"standard_stock_centre", in.StandardStockCentre},
		{"available_stock_gate", in.AvailableStockGate},
		{"available_stock_centre", in.AvailableStockCentre},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			problems = append(problems, fmt.Sprintf("%s must be a non-negative number, got %v", f.name, f.value))
		}
	}
	if len(problems) == 0 && math.IsInf(in.TotalDailyRequirement+in.AvailableStockGate+in.AvailableStockCentre, 0) {
		problems = append(problems, "total_daily_requirement plus available stock exceeds the representable range")
	}
	if len(problems) > 0 {
		return &InputError{Problems: problems}
	}
	return nil
}

// Overrides replaces selected fields of a prior run's inputs. Nil fields keep the base value.
type Overrides struct {
	CurrentDate           *time.Time `json:"current_date,omitempty"`
	PlantCapacity         *float64   `json:"plant_capacity,omitempty"`
	TotalDailyRequirement *float64   `json:"total_daily_requirement,omitempty"`
	StandardStockGate     *float64   `json:"standard_stock_gate,omitempty"`
	StandardStockCentre   *float64   `json:"standard_stock_centre,omitempty"`
	AvailableStockGate    *float64   `json:"available_stock_gate,omitempty"`
	AvailableStockCentre  *float64   `json:"available_stock_centre,omitempty"`
}

// IsZero reports whether no field is overridden.
func (o Overrides) IsZero() bool {
	return o == Overrides{}
}

// With returns a copy of the inputs with the overrides applied. The receiver is not modified.
func (in Inputs) With(o Overrides) Inputs {
	out := in
	if o.CurrentDate != nil {
		out.CurrentDate = *o.CurrentDate
	}
	if o.PlantCapacity != nil {
		out.PlantCapacity = *o.PlantCapacity
	}
	if o.TotalDailyRequirement != nil {
		out.TotalDailyRequirement = *o.TotalDailyRequirement
	}
	if o.StandardStockGate != nil {
		out.StandardStockGate = *o.StandardStockGate
	}
	if o.StandardStockCentre != nil {
		out.StandardStockCentre = *o.StandardStockCentre
	}
	if o.AvailableStockGate != nil {
		out.AvailableStockGate = *o.AvailableStockGate
	}
	if o.AvailableStockCentre != nil {
		out.AvailableStockCentre = *o.AvailableStockCentre
	}
	return out
}
