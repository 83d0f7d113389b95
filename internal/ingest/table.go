package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// table is a header-addressed view over the rows of one CSV file or XLSX sheet.
type table struct {
	name    string
	columns map[string]int
	rows    [][]string
}

// readTable loads a file by extension. XLSX files are read from their first sheet.
func readTable(path string) (*table, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	case ".csv", ".txt", "":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q for %s (expected .csv or .xlsx)", filepath.Ext(path), path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty: a header row is required", filepath.Base(path))
	}

	t := &table{
		name:    filepath.Base(path),
		columns: make(map[string]int, len(rows[0])),
	}
	for i, h := range rows[0] {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := t.columns[key]; dup {
			return nil, fmt.Errorf("%s: duplicate column %q", t.name, h)
		}
		t.columns[key] = i
	}
	t.rows = rows[1:]
	return t, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV %s: %w", filepath.Base(path), err)
		}
		rows = append(rows, rec)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	// Raw values keep date cells as serial numbers so they parse regardless of display format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], filepath.Base(path), err)
	}
	return rows, nil
}

// require checks that every named column is present.
func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required column(s) %s", t.name, strings.Join(missing, ", "))
	}
	return nil
}

func (t *table) has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

// cell returns the trimmed value of col in row, or "" when the row is short.
func (t *table) cell(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// each visits non-blank data rows. Errors are prefixed with the file's line number (header is 1).
func (t *table) each(fn func(row []string) error) error {
	for i, row := range t.rows {
		if blank(row) {
			continue
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("%s row %d: %w", t.name, i+2, err)
		}
	}
	return nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var headerAliases = map[string]string{
	"center":         "center_code",
	"centre":         "center_code",
	"centre_code":    "center_code",
	"bonding":        "bonding_pct",
	"bonding_%":      "bonding_pct",
	"percentage":     "bonding_pct",
	"qty":            "quantity",
	"po":             "po_count",
	"no_of_po":       "po_count",
	"source":         "source_code",
	"target":         "target_code",
	"date_of_indent": "indent_date",
}

// normalizeHeader lowercases, joins words with underscores and resolves common aliases.
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.Join(strings.Fields(h), "_")
	h = strings.ReplaceAll(h, "-", "_")
	if canonical, ok := headerAliases[h]; ok {
		return canonical
	}
	return h
}
