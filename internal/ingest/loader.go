package ingest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"indent-mcp/internal/records"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultDateLayouts are tried in order when no layouts are configured.
var DefaultDateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// Paths names the files that make up one dataset. Mapping is optional.
type Paths struct {
	Bonding   string `json:"bonding"`
	Indents   string `json:"indents"`
	Purchases string `json:"purchases"`
	Mapping   string `json:"mapping,omitempty"`
}

// Validate requires the three mandatory files.
func (p Paths) Validate() error {
	var missing []string
	if p.Bonding == "" {
		missing = append(missing, "bonding")
	}
	if p.Indents == "" {
		missing = append(missing, "indents")
	}
	if p.Purchases == "" {
		missing = append(missing, "purchases")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing file path(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// Loader reads record files into a records.Dataset.
type Loader struct {
	layouts []string
}

// NewLoader creates a loader that accepts the given date layouts (DefaultDateLayouts when empty).
func NewLoader(layouts []string) *Loader {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return &Loader{layouts: layouts}
}

// LoadDataset reads all files concurrently. Any failure aborts the whole load;
// a partially read dataset is never returned.
func (l *Loader) LoadDataset(ctx context.Context, p Paths) (records.Dataset, error) {
	if err := p.Validate(); err != nil {
		return records.Dataset{}, err
	}

	var ds records.Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		ds.Bonding, err = l.LoadBonding(ctx, p.Bonding)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Indents, err = l.LoadIndents(ctx, p.Indents)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Purchases, err = l.LoadPurchases(ctx, p.Purchases)
		return err
	})
	if p.Mapping != "" {
		g.Go(func() error {
			var err error
			ds.Mapping, err = l.LoadMapping(ctx, p.Mapping)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return records.Dataset{}, err
	}

	log.Info().
		Int("bonding", len(ds.Bonding)).
		Int("indents", len(ds.Indents)).
		Int("purchases", len(ds.Purchases)).
		Int("mapped", ds.Mapping.Len()).
		Msg("Dataset loaded")
	return ds, nil
}

// LoadBonding reads center_code, bonding_pct.
func (l *Loader) LoadBonding(ctx context.Context, path string) ([]records.BondingRecord, error) {
	t, err := open(ctx, path, "center_code", "bonding_pct")
	if err != nil {
		return nil, err
	}
	var out []records.BondingRecord
	err = t.each(func(row []string) error {
		code, err := requiredText(t, row, "center_code")
		if err != nil {
			return err
		}
		pct, err := number(t, row, "bonding_pct")
		if err != nil {
			return err
		}
		out = append(out, records.BondingRecord{CenterCode: code, Percentage: pct})
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", t.name).Int("rows", len(out)).Msg("Loaded bonding table")
	return out, nil
}

// LoadIndents reads center_code, indent_date, quantity and an optional po_count.
func (l *Loader) LoadIndents(ctx context.Context, path string) ([]records.IndentRecord, error) {
	t, err := open(ctx, path, "center_code", "indent_date", "quantity")
	if err != nil {
		return nil, err
	}
	var out []records.IndentRecord
	err = t.each(func(row []string) error {
		code, err := requiredText(t, row, "center_code")
		if err != nil {
			return err
		}
		d, err := l.date(t, row, "indent_date")
		if err != nil {
			return err
		}
		qty, err := number(t, row, "quantity")
		if err != nil {
			return err
		}
		rec := records.IndentRecord{CenterCode: code, IndentDate: d, Quantity: qty}
		if t.has("po_count") && t.cell(row, "po_count") != "" {
			n, err := number(t, row, "po_count")
			if err != nil {
				return err
			}
			rec.POCount = int(math.Round(n))
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", t.name).Int("rows", len(out)).Msg("Loaded indents")
	return out, nil
}

// LoadPurchases reads center_code, purchase_date, indent_date, quantity.
func (l *Loader) LoadPurchases(ctx context.Context, path string) ([]records.PurchaseRecord, error) {
	t, err := open(ctx, path, "center_code", "purchase_date", "indent_date", "quantity")
	if err != nil {
		return nil, err
	}
	var out []records.PurchaseRecord
	err = t.each(func(row []string) error {
		code, err := requiredText(t, row, "center_code")
		if err != nil {
			return err
		}
		pd, err := l.date(t, row, "purchase_date")
		if err != nil {
			return err
		}
		id, err := l.date(t, row, "indent_date")
		if err != nil {
			return err
		}
		qty, err := number(t, row, "quantity")
		if err != nil {
			return err
		}
		out = append(out, records.PurchaseRecord{CenterCode: code, PurchaseDate: pd, IndentDate: id, Quantity: qty})
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", t.name).Int("rows", len(out)).Msg("Loaded purchases")
	return out, nil
}

// LoadMapping reads source_code, target_code pairs. A source listed twice is an error.
func (l *Loader) LoadMapping(ctx context.Context, path string) (records.CenterMapping, error) {
	t, err := open(ctx, path, "source_code", "target_code")
	if err != nil {
		return records.CenterMapping{}, err
	}
	pairs := make(map[string]string)
	err = t.each(func(row []string) error {
		src, err := requiredText(t, row, "source_code")
		if err != nil {
			return err
		}
		dst, err := requiredText(t, row, "target_code")
		if err != nil {
			return err
		}
		if prev, ok := pairs[src]; ok && prev != dst {
			return fmt.Errorf("source code %q mapped to both %q and %q", src, prev, dst)
		}
		pairs[src] = dst
		return nil
	})
	if err != nil {
		return records.CenterMapping{}, err
	}
	if cyclic := records.Cycles(pairs); len(cyclic) > 0 {
		return records.CenterMapping{}, fmt.Errorf("%s: center mapping cycles through %s", t.name, strings.Join(cyclic, ", "))
	}
	return records.NewCenterMapping(pairs), nil
}

func open(ctx context.Context, path string, required ...string) (*table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(required...); err != nil {
		return nil, err
	}
	return t, nil
}

func requiredText(t *table, row []string, col string) (string, error) {
	v := t.cell(row, col)
	if v == "" {
		return "", fmt.Errorf("%s is empty", col)
	}
	return v, nil
}

// number parses a decimal that may carry thousands separators.
func number(t *table, row []string, col string) (float64, error) {
	raw := t.cell(row, col)
	if raw == "" {
		return 0, fmt.Errorf("%s is empty", col)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", col, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", col, raw)
	}
	return v, nil
}

// date tries each layout and then an Excel serial day number.
func (l *Loader) date(t *table, row []string, col string) (time.Time, error) {
	raw := t.cell(row, col)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is empty", col)
	}
	d, err := ParseDate(raw, l.layouts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", col, err)
	}
	return d, nil
}

// ParseDate parses a calendar date using the layouts in order. Plain numbers are
// treated as Excel serial dates (1900 system). Empty layouts fall back to DefaultDateLayouts.
func ParseDate(raw string, layouts []string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	for _, layout := range layouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		d, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q does not match any of %s", raw, strings.Join(layouts, ", "))
}
