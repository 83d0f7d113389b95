package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/ingest"
	"indent-mcp/internal/report"
	"indent-mcp/internal/scenario"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	HistoryFile         string
	DateLayouts         []string
	History             engine.Options
	EnableMermaidCharts bool
	ScenarioWorkers     int
	ReportDecimals      int
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnv(exeDir)
}

// FromEnv builds the configuration from the process environment only.
// exeDir is the fallback data directory when DATA_PATH is unset.
func FromEnv(exeDir string) (*AppConfig, error) {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	historyFile := getEnv("HISTORY_FILE", filepath.Join(dataPath, "history", "runs.jsonl"))

	if err := os.MkdirAll(filepath.Dir(historyFile), 0755); err != nil {
		log.Warn().Err(err).Str("path", historyFile).Msg("Failed to create history directory")
	}

	cfg := &AppConfig{
		DataPath:    dataPath,
		LogDir:      logDir,
		HistoryFile: historyFile,
		DateLayouts: getEnvList("DATE_LAYOUTS", ingest.DefaultDateLayouts),
		History: engine.Options{
			LookbackDays: getEnvInt("LOOKBACK_DAYS", 0),
			MaturityDays: getEnvInt("MATURITY_DAYS", engine.DefaultMaturityDays),
		},
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
		ScenarioWorkers:     getEnvInt("SCENARIO_WORKERS", scenario.DefaultWorkers),
		ReportDecimals:      getEnvInt("REPORT_DECIMALS", report.DefaultDecimals),
	}

	if err := cfg.History.Validate(); err != nil {
		return nil, fmt.Errorf("invalid LOOKBACK_DAYS/MATURITY_DAYS: %w", err)
	}
	if cfg.ScenarioWorkers < 1 {
		return nil, fmt.Errorf("SCENARIO_WORKERS must be >= 1, got %d", cfg.ScenarioWorkers)
	}
	if cfg.ReportDecimals < 0 || cfg.ReportDecimals > 8 {
		return nil, fmt.Errorf("REPORT_DECIMALS must be between 0 and 8, got %d", cfg.ReportDecimals)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Int("fallback", fallback).Msg("Ignoring non-integer setting")
		return fallback
	}
	return n
}

// getEnvList splits a comma separated value. Layouts themselves must not contain commas.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
