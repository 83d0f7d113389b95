package engine

import (
	"gonum.org/v1/gonum/stat"
)

// WeightSource records which tier of the fallback chain produced a center's weights.
type WeightSource string

const (
	// SourceCenter means the center had eligible history of its own.
	SourceCenter WeightSource = "center"
	// SourcePlant means the plant-wide average was borrowed.
	SourcePlant WeightSource = "plant"
	// SourceDefault means no history existed anywhere; all weights are zero.
	SourceDefault WeightSource = "default"
)

// CenterWeights is a center's empirical arrival-lag profile.
// D1-D4 are independent frequencies in [0,1] and need not sum to 1.
type CenterWeights struct {
	Center      string       `json:"center"`
	D1          float64      `json:"d1"`
	D2          float64      `json:"d2"`
	D3          float64      `json:"d3"`
	D4          float64      `json:"d4"`
	Source      WeightSource `json:"source"`
	Occurrences int          `json:"occurrences"`
}

// Of returns the weight for a bucket.
func (w CenterWeights) Of(b Bucket) float64 {
	switch b {
	case D1:
		return w.D1
	case D2:
		return w.D2
	case D3:
		return w.D3
	case D4:
		return w.D4
	}
	return 0
}

func (w *CenterWeights) set(values [NumBuckets]float64) {
	w.D1, w.D2, w.D3, w.D4 = values[D1], values[D2], values[D3], values[D4]
}

// WeightTable holds per-center averages and the plant-wide average.
// It is built once per run and read-only afterwards.
type WeightTable struct {
	centers map[string]CenterWeights
	plant   CenterWeights
	pooled  int
}

// EstimateWeights averages per-occurrence bucket shares. The input must already
// be filtered with FilterEligible.
func EstimateWeights(eligible []Occurrence) WeightTable {
	perCenter := make(map[string][]Occurrence)
	for _, o := range eligible {
		perCenter[o.Center] = append(perCenter[o.Center], o)
	}

	table := WeightTable{
		centers: make(map[string]CenterWeights, len(perCenter)),
		pooled:  len(eligible),
	}
	for center, occs := range perCenter {
		w := CenterWeights{Center: center, Source: SourceCenter, Occurrences: len(occs)}
		w.set(meanShares(occs))
		table.centers[center] = w
	}

	table.plant = CenterWeights{Source: SourcePlant, Occurrences: len(eligible)}
	if len(eligible) > 0 {
		table.plant.set(meanShares(eligible))
	} else {
		table.plant.Source = SourceDefault
	}
	return table
}

// meanShares is the conditional average: each occurrence is one observation.
func meanShares(occs []Occurrence) [NumBuckets]float64 {
	var out [NumBuckets]float64
	if len(occs) == 0 {
		return out
	}
	series := make([]float64, len(occs))
	for b := range NumBuckets {
		for i, o := range occs {
			series[i] = o.Shares()[b]
		}
		out[b] = clampUnit(stat.Mean(series, nil))
	}
	return out
}

func clampUnit(v float64) float64 {
	if v != v || v < 0 { // NaN or negative
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Resolve walks the fallback chain center -> plant -> zero and reports the tier used.
func (t WeightTable) Resolve(center string) CenterWeights {
	if w, ok := t.centers[center]; ok {
		return w
	}
	w := t.plant
	w.Center = center
	if t.pooled == 0 {
		w = CenterWeights{Center: center, Source: SourceDefault}
	}
	return w
}

// Plant returns the plant-wide average profile.
func (t WeightTable) Plant() CenterWeights {
	return t.plant
}

// Centers returns the number of centers with their own eligible history.
func (t WeightTable) Centers() int {
	return len(t.centers)
}
