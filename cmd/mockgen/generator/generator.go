package generator

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"indent-mcp/internal/records"
)

// Scenarios lists the supported shapes of synthetic history.
var Scenarios = []string{"steady", "sparse", "drift"}

// File names written by Save.
const (
	BondingFile   = "bonding.csv"
	IndentsFile   = "indents.csv"
	PurchasesFile = "purchases.csv"
	MappingFile   = "mapping.csv"
)

type GeneratorConfig struct {
	Scenario string
	Centers  int
	Days     int // days of history before Now
	Seed     uint64
	Now      time.Time
	Aliases  bool // record the first center under a legacy code for the older half of history
}

// Generate builds a dataset whose last indent date is Now+2, so the T+3 projection
// has every indent it needs. Purchases never fall after Now.
//
//   - steady: every center indents daily with a stable lag profile and ~2% overrun
//   - sparse: centers skip most days and the last center has no history at all
//   - drift:  deliveries slow down over time, D1 share halves across the range
func Generate(cfg GeneratorConfig) (records.Dataset, error) {
	if !slices.Contains(Scenarios, cfg.Scenario) {
		return records.Dataset{}, fmt.Errorf("unknown scenario %q (expected one of %v)", cfg.Scenario, Scenarios)
	}
	if cfg.Centers <= 0 {
		cfg.Centers = 5
	}
	if cfg.Days <= 0 {
		cfg.Days = 120
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	now := time.Date(cfg.Now.Year(), cfg.Now.Month(), cfg.Now.Day(), 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	var ds records.Dataset
	codes := make([]string, cfg.Centers)
	profiles := make([]float64, cfg.Centers) // base D1 share per center
	shares := make([]float64, cfg.Centers)
	total := 0.0
	for i := range codes {
		codes[i] = fmt.Sprintf("C%02d", i+1)
		profiles[i] = 0.45 + 0.2*rng.Float64()
		shares[i] = 1 + 2*rng.Float64()
		total += shares[i]
	}
	assigned := 0.0
	for i, code := range codes {
		pct := round2(shares[i] / total * 100)
		if i == len(codes)-1 {
			pct = round2(100 - assigned)
		}
		assigned += pct
		ds.Bonding = append(ds.Bonding, records.BondingRecord{CenterCode: code, Percentage: pct})
	}

	legacy := codes[0] + "-OLD"
	if cfg.Aliases {
		ds.Mapping = records.NewCenterMapping(map[string]string{legacy: codes[0]})
	}

	for offset := -cfg.Days; offset <= 2; offset++ {
		day := now.AddDate(0, 0, offset)
		progress := float64(offset+cfg.Days) / float64(cfg.Days+2)

		for i, code := range codes {
			if cfg.Scenario == "sparse" && (i == len(codes)-1 || rng.Float64() < 0.6) {
				continue
			}
			qty := math.Round(1000 * ds.Bonding[i].Percentage / 100 * (0.85 + 0.3*rng.Float64()))
			if qty <= 0 {
				continue
			}
			recorded := code
			if cfg.Aliases && i == 0 && offset < -cfg.Days/2 {
				recorded = legacy
			}
			ds.Indents = append(ds.Indents, records.IndentRecord{
				CenterCode: recorded,
				IndentDate: day,
				Quantity:   qty,
				POCount:    1 + rng.IntN(4),
			})

			d1 := profiles[i]
			if cfg.Scenario == "drift" {
				d1 *= 1 - 0.5*progress
			}
			rest := 1 - d1
			lagShares := [4]float64{d1, rest * 0.5, rest * 0.3, rest * 0.2}
			delivered := qty * (1.02 + 0.04*(rng.Float64()-0.5))

			for lag, share := range lagShares {
				portion := round2(delivered * share)
				if portion <= 0 {
					continue
				}
				days := lag
				if lag == 3 {
					days += rng.IntN(3) // long tail lands in D4 too
				}
				arrived := day.AddDate(0, 0, days)
				if arrived.After(now) {
					continue
				}
				ds.Purchases = append(ds.Purchases, records.PurchaseRecord{
					CenterCode:   recorded,
					PurchaseDate: arrived,
					IndentDate:   day,
					Quantity:     portion,
				})
			}
		}
	}
	return ds, nil
}

// Save writes the dataset as CSV files into outDir. The mapping file is only
// written when the dataset carries one.
func Save(outDir string, ds records.Dataset) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	bonding := [][]string{{"center_code", "bonding_pct"}}
	for _, b := range ds.Bonding {
		bonding = append(bonding, []string{b.CenterCode, formatFloat(b.Percentage)})
	}
	indents := [][]string{{"center_code", "indent_date", "quantity", "po_count"}}
	for _, r := range ds.Indents {
		indents = append(indents, []string{r.CenterCode, r.IndentDate.Format(time.DateOnly), formatFloat(r.Quantity), strconv.Itoa(r.POCount)})
	}
	purchases := [][]string{{"center_code", "indent_date", "purchase_date", "quantity"}}
	for _, p := range ds.Purchases {
		purchases = append(purchases, []string{p.CenterCode, p.IndentDate.Format(time.DateOnly), p.PurchaseDate.Format(time.DateOnly), formatFloat(p.Quantity)})
	}

	files := map[string][][]string{
		BondingFile:   bonding,
		IndentsFile:   indents,
		PurchasesFile: purchases,
	}
	if ds.Mapping.Len() > 0 {
		mapping := [][]string{{"source_code", "target_code"}}
		pairs := ds.Mapping.Pairs()
		sources := make([]string, 0, len(pairs))
		for src := range pairs {
			sources = append(sources, src)
		}
		slices.Sort(sources)
		for _, src := range sources {
			mapping = append(mapping, []string{src, pairs[src]})
		}
		files[MappingFile] = mapping
	}

	for name, rows := range files {
		if err := writeCSV(filepath.Join(outDir, name), rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
