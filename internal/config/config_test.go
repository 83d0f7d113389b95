package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
)

var configKeys = []string{
	"DATA_PATH", "LOGS_FOLDER", "HISTORY_FILE", "DATE_LAYOUTS", "LOOKBACK_DAYS", "MATURITY_DAYS",
	"ENABLE_MERMAID_CHARTS", "SCENARIO_WORKERS", "REPORT_DECIMALS",
}

// clearEnv blanks every key so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := FromEnv(dir)
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.DataPath != dir || cfg.LogDir != filepath.Join(dir, "logs") {
		t.Errorf("unexpected paths %+v", cfg)
	}
	if cfg.HistoryFile != filepath.Join(dir, "history", "runs.jsonl") {
		t.Errorf("unexpected history file %s", cfg.HistoryFile)
	}
	if cfg.History.LookbackDays != 0 || cfg.History.MaturityDays != 3 {
		t.Errorf("unexpected history options %+v", cfg.History)
	}
	if cfg.ScenarioWorkers != 4 || cfg.ReportDecimals != 2 || cfg.EnableMermaidCharts {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if len(cfg.DateLayouts) != 3 {
		t.Errorf("expected default date layouts, got %v", cfg.DateLayouts)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("LOOKBACK_DAYS", "90")
	t.Setenv("MATURITY_DAYS", "5")
	t.Setenv("DATE_LAYOUTS", "2006/01/02, 02.01.2006 ,")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")
	t.Setenv("SCENARIO_WORKERS", "8")
	t.Setenv("REPORT_DECIMALS", "nope")

	cfg, err := FromEnv("")
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.History.LookbackDays != 90 || cfg.History.MaturityDays != 5 {
		t.Errorf("unexpected history options %+v", cfg.History)
	}
	if strings.Join(cfg.DateLayouts, "|") != "2006/01/02|02.01.2006" {
		t.Errorf("unexpected layouts %q", cfg.DateLayouts)
	}
	if !cfg.EnableMermaidCharts || cfg.ScenarioWorkers != 8 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.ReportDecimals != 2 {
		t.Errorf("non-integer REPORT_DECIMALS should fall back to 2, got %d", cfg.ReportDecimals)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"NegativeMaturity", "MATURITY_DAYS", "-1"},
		{"LookbackShorterThanMaturity", "LOOKBACK_DAYS", "2"},
		{"ZeroWorkers", "SCENARIO_WORKERS", "0"},
		{"TooManyDecimals", "REPORT_DECIMALS", "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATA_PATH", t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(""); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestGodotenvQuoting(t *testing.T) {
	content := `DATE_LAYOUTS='2006-01-02,"02 Jan 2006"'`
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `2006-01-02,"02 Jan 2006"`
	if env["DATE_LAYOUTS"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["DATE_LAYOUTS"])
	}
}
