package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesBothSinks(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	logger, err := New(Options{Verbose: true, Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug().Str("center", "A").Msg("weights resolved")

	if !strings.Contains(console.String(), "weights resolved") {
		t.Errorf("console sink missing message: %q", console.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"center":"A"`) {
		t.Errorf("file sink should hold JSON lines, got %q", string(data))
	}
}

func TestNew_InfoLevelByDefault(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var console bytes.Buffer
	logger, err := New(Options{Dir: t.TempDir(), Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	if strings.Contains(console.String(), "hidden") || !strings.Contains(console.String(), "shown") {
		t.Errorf("unexpected console output %q", console.String())
	}
}
