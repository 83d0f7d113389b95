package scenario

import (
	"fmt"
	"os"
	"strings"
	"time"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/ingest"

	"gopkg.in/yaml.v3"
)

// File is a what-if batch: one baseline plus named variations of it.
//
//	name: monsoon week
//	base:
//	  current_date: 2024-05-20
//	  total_daily_requirement: 42000
//	options:
//	  maturity_days: 3
//	scenarios:
//	  - name: high demand
//	    total_daily_requirement: 48000
type File struct {
	Name      string          `yaml:"name"`
	Base      InputValues     `yaml:"base"`
	Options   *engine.Options `yaml:"options,omitempty"`
	Scenarios []Variation     `yaml:"scenarios"`
}

// InputValues is the YAML form of engine.Inputs. Dates are strings so any configured layout is accepted.
type InputValues struct {
	CurrentDate           string  `yaml:"current_date"`
	PlantCapacity         float64 `yaml:"plant_capacity"`
	TotalDailyRequirement float64 `yaml:"total_daily_requirement"`
	StandardStockGate     float64 `yaml:"standard_stock_gate"`
	StandardStockCentre   float64 `yaml:"standard_stock_centre"`
	AvailableStockGate    float64 `yaml:"available_stock_gate"`
	AvailableStockCentre  float64 `yaml:"available_stock_centre"`
}

// Variation overrides selected base inputs. Omitted fields keep the base value.
type Variation struct {
	Name                  string   `yaml:"name"`
	CurrentDate           string   `yaml:"current_date,omitempty"`
	PlantCapacity         *float64 `yaml:"plant_capacity,omitempty"`
	TotalDailyRequirement *float64 `yaml:"total_daily_requirement,omitempty"`
	StandardStockGate     *float64 `yaml:"standard_stock_gate,omitempty"`
	StandardStockCentre   *float64 `yaml:"standard_stock_centre,omitempty"`
	AvailableStockGate    *float64 `yaml:"available_stock_gate,omitempty"`
	AvailableStockCentre  *float64 `yaml:"available_stock_centre,omitempty"`
}

// ReadFile reads and unmarshals a scenario YAML file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals scenario YAML and checks it for structural problems.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal scenario file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate requires a base date and unique, non-empty scenario names.
func (f *File) Validate() error {
	var problems []string
	if strings.TrimSpace(f.Base.CurrentDate) == "" {
		problems = append(problems, "base.current_date is required")
	}
	seen := make(map[string]bool, len(f.Scenarios))
	for i, v := range f.Scenarios {
		name := strings.TrimSpace(v.Name)
		switch {
		case name == "":
			problems = append(problems, fmt.Sprintf("scenarios[%d] has no name", i))
		case seen[name]:
			problems = append(problems, fmt.Sprintf("scenario name %q is used twice", name))
		}
		seen[name] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid scenario file: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Write marshals the file to YAML.
func (f *File) Write(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Inputs converts the base block.
func (s InputValues) Inputs(layouts []string) (engine.Inputs, error) {
	d, err := ingest.ParseDate(strings.TrimSpace(s.CurrentDate), layouts)
	if err != nil {
		return engine.Inputs{}, fmt.Errorf("base.current_date: %w", err)
	}
	return engine.Inputs{
		CurrentDate:           d,
		PlantCapacity:         s.PlantCapacity,
		TotalDailyRequirement: s.TotalDailyRequirement,
		StandardStockGate:     s.StandardStockGate,
		StandardStockCentre:   s.StandardStockCentre,
		AvailableStockGate:    s.AvailableStockGate,
		AvailableStockCentre:  s.AvailableStockCentre,
	}, nil
}

// Overrides converts the variation into engine overrides.
func (v Variation) Overrides(layouts []string) (engine.Overrides, error) {
	ov := engine.Overrides{
		PlantCapacity:         v.PlantCapacity,
		TotalDailyRequirement: v.TotalDailyRequirement,
		StandardStockGate:     v.StandardStockGate,
		StandardStockCentre:   v.StandardStockCentre,
		AvailableStockGate:    v.AvailableStockGate,
		AvailableStockCentre:  v.AvailableStockCentre,
	}
	if raw := strings.TrimSpace(v.CurrentDate); raw != "" {
		d, err := ingest.ParseDate(raw, layouts)
		if err != nil {
			return engine.Overrides{}, fmt.Errorf("scenario %q current_date: %w", v.Name, err)
		}
		ov.CurrentDate = &d
	}
	return ov, nil
}

// FromRun builds a single-variation file from a stored run, handy as a starting template.
func FromRun(r engine.Run) *File {
	in := r.Inputs
	opts := r.Options
	return &File{
		Name: r.Name,
		Base: InputValues{
			CurrentDate:           in.CurrentDate.Format(time.DateOnly),
			PlantCapacity:         in.PlantCapacity,
			TotalDailyRequirement: in.TotalDailyRequirement,
			StandardStockGate:     in.StandardStockGate,
			StandardStockCentre:   in.StandardStockCentre,
			AvailableStockGate:    in.AvailableStockGate,
			AvailableStockCentre:  in.AvailableStockCentre,
		},
		Options: &opts,
	}
}
