package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func writeWorkbook(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

func TestLoadBonding_CSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bonding.csv", "\ufeffBonding %,Centre Code\n60,A\n\n40,B\n")

	got, err := NewLoader(nil).LoadBonding(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadBonding failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows (blank line skipped), got %d", len(got))
	}
	if got[0].CenterCode != "A" || got[0].Percentage != 60 || got[1].CenterCode != "B" {
		t.Errorf("unexpected records %+v", got)
	}
}

func TestLoadIndents_DateLayouts(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "indents.csv",
		"center_code,indent_date,quantity,po_count\n"+
			"A,2024-01-15,\"1,200\",3\n"+
			"A,16-01-2024,50,\n"+
			"B,17/01/2024,75.5,1\n")

	got, err := NewLoader(nil).LoadIndents(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadIndents failed: %v", err)
	}
	want := []struct {
		date string
		qty  float64
		po   int
	}{
		{"2024-01-15", 1200, 3},
		{"2024-01-16", 50, 0},
		{"2024-01-17", 75.5, 1},
	}
	for i, w := range want {
		if got[i].IndentDate.Format("2006-01-02") != w.date || got[i].Quantity != w.qty || got[i].POCount != w.po {
			t.Errorf("row %d: got %+v, want %+v", i, got[i], w)
		}
	}
}

func TestLoadPurchases_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "MissingColumn",
			content: "center_code,purchase_date,quantity\nA,2024-01-01,10\n",
			wantErr: "missing required column(s) indent_date",
		},
		{
			name:    "BadQuantity",
			content: "center_code,purchase_date,indent_date,quantity\nA,2024-01-02,2024-01-01,10\nA,2024-01-02,2024-01-01,ten\n",
			wantErr: "row 3: invalid quantity",
		},
		{
			name:    "BadDate",
			content: "center_code,purchase_date,indent_date,quantity\nA,Jan 2,2024-01-01,10\n",
			wantErr: "row 2: invalid purchase_date",
		},
		{
			name:    "EmptyCenter",
			content: "center_code,purchase_date,indent_date,quantity\n,2024-01-02,2024-01-01,10\n",
			wantErr: "row 2: center_code is empty",
		},
		{
			name:    "Empty",
			content: "",
			wantErr: "header row is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "purchases.csv", tt.content)
			_, err := NewLoader(nil).LoadPurchases(context.Background(), path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadPurchases_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "purchases.xlsx", [][]interface{}{
		{"Center Code", "Purchase Date", "Indent Date", "Quantity"},
		{"A", "2024-03-02", "2024-03-01", 40},
		{"B", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "2024-03-01", 12.5},
	})

	got, err := NewLoader(nil).LoadPurchases(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPurchases failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Quantity != 40 || got[0].PurchaseDate.Format("2006-01-02") != "2024-03-02" {
		t.Errorf("unexpected first row %+v", got[0])
	}
	if got[1].PurchaseDate.Format("2006-01-02") != "2024-03-05" {
		t.Errorf("expected serial date cell to parse as 2024-03-05, got %v", got[1].PurchaseDate)
	}
}

func TestLoadMapping_Conflict(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mapping.csv", "source_code,target_code\nX,A\nX,B\n")
	_, err := NewLoader(nil).LoadMapping(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "mapped to both") {
		t.Errorf("expected conflicting mapping error, got %v", err)
	}
}

func TestLoadMapping_Chains(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mapping.csv", "source_code,target_code\nOLD,MID\nMID,NEW\n")
	m, err := NewLoader(nil).LoadMapping(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Resolve("OLD") != "NEW" {
		t.Errorf("expected OLD to resolve through MID to NEW, got %s", m.Resolve("OLD"))
	}

	path = writeFile(t, dir, "cycle.csv", "source_code,target_code\nA,B\nB,A\n")
	_, err = NewLoader(nil).LoadMapping(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "cycles through A, B") {
		t.Errorf("expected cycle error, got %v", err)
	}
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Bonding:   writeFile(t, dir, "bonding.csv", "center_code,bonding_pct\nA,100\n"),
		Indents:   writeFile(t, dir, "indents.csv", "center_code,indent_date,quantity\nA,2024-01-01,100\nA-OLD,2024-01-02,50\n"),
		Purchases: writeFile(t, dir, "purchases.csv", "center_code,purchase_date,indent_date,quantity\nA,2024-01-01,2024-01-01,100\n"),
		Mapping:   writeFile(t, dir, "mapping.csv", "source_code,target_code\nA-OLD,A\n"),
	}

	ds, err := NewLoader(nil).LoadDataset(context.Background(), paths)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if len(ds.Bonding) != 1 || len(ds.Indents) != 2 || len(ds.Purchases) != 1 {
		t.Errorf("unexpected record counts %d/%d/%d", len(ds.Bonding), len(ds.Indents), len(ds.Purchases))
	}
	if ds.Mapping.Resolve("A-OLD") != "A" {
		t.Error("expected mapping to be loaded")
	}
	if s := ds.Summary(); s.HistoryCenters != 1 {
		t.Errorf("expected aliases to collapse to 1 history center, got %d", s.HistoryCenters)
	}
}

func TestLoadDataset_FailsAtomically(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Bonding:   writeFile(t, dir, "bonding.csv", "center_code,bonding_pct\nA,100\n"),
		Indents:   writeFile(t, dir, "indents.csv", "center_code,indent_date,quantity\nA,2024-01-01,100\n"),
		Purchases: filepath.Join(dir, "missing.csv"),
	}

	ds, err := NewLoader(nil).LoadDataset(context.Background(), paths)
	if err == nil {
		t.Fatal("expected error for missing purchases file")
	}
	if len(ds.Bonding) != 0 || len(ds.Indents) != 0 {
		t.Error("a failed load must not return partial records")
	}

	if _, err := NewLoader(nil).LoadDataset(context.Background(), Paths{Bonding: paths.Bonding}); err == nil {
		t.Error("expected error when required paths are missing")
	}
}

func TestReadTable_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bonding.json", "{}")
	if _, err := readTable(path); err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Errorf("expected unsupported file type error, got %v", err)
	}
}

func TestParseDate_CustomLayouts(t *testing.T) {
	d, err := ParseDate("2024.02.29", []string{"2006.01.02"})
	if err != nil || d.Format("2006-01-02") != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %v (%v)", d, err)
	}
	if _, err := ParseDate("2024-02-29", []string{"2006.01.02"}); err == nil {
		t.Error("expected layout mismatch to be rejected")
	}
}
