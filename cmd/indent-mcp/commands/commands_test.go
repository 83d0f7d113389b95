package commands

import (
	"os"
	"path/filepath"
	"testing"

	"indent-mcp/internal/config"
	"indent-mcp/internal/engine"

	"github.com/spf13/cobra"
)

func TestDatasetFlags_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg = &config.AppConfig{DataPath: dir}

	var f datasetFlags
	p := f.paths()
	if p.Bonding != filepath.Join(dir, "bonding.csv") || p.Mapping != "" {
		t.Errorf("unexpected defaults %+v", p)
	}

	if err := os.WriteFile(filepath.Join(dir, "mapping.csv"), []byte("source_code,target_code\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f.indents = "/tmp/other.xlsx"
	p = f.paths()
	if p.Mapping != filepath.Join(dir, "mapping.csv") || p.Indents != "/tmp/other.xlsx" {
		t.Errorf("expected mapping.csv to be picked up and explicit paths kept, got %+v", p)
	}
}

func TestOptionFlags_OnlyChangedOverride(t *testing.T) {
	cfg = &config.AppConfig{History: engine.Options{LookbackDays: 90, MaturityDays: 5}}

	cmd := &cobra.Command{Use: "x"}
	var f optionFlags
	f.register(cmd)
	if err := cmd.ParseFlags([]string{"--maturity", "2"}); err != nil {
		t.Fatal(err)
	}

	opts := f.options(cmd)
	if opts.LookbackDays != 90 || opts.MaturityDays != 2 {
		t.Errorf("expected configured lookback and flag maturity, got %+v", opts)
	}
}

func TestReverse(t *testing.T) {
	runs := []engine.Run{{ID: "c"}, {ID: "b"}, {ID: "a"}}
	got := reverse(runs)
	if got[0].ID != "a" || got[2].ID != "c" || runs[0].ID != "c" {
		t.Errorf("unexpected order %v", got)
	}
}
