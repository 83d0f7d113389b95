package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/ingest"
	"indent-mcp/internal/records"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// datasetFlags locate the record files. Empty flags fall back to well-known names in DATA_PATH.
type datasetFlags struct {
	bonding   string
	indents   string
	purchases string
	mapping   string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.bonding, "bonding", "", "bonding file (default <DATA_PATH>/bonding.csv)")
	cmd.Flags().StringVar(&f.indents, "indents", "", "indent file (default <DATA_PATH>/indents.csv)")
	cmd.Flags().StringVar(&f.purchases, "purchases", "", "purchase file (default <DATA_PATH>/purchases.csv)")
	cmd.Flags().StringVar(&f.mapping, "mapping", "", "center code mapping file (default <DATA_PATH>/mapping.csv when present)")
}

func (f *datasetFlags) paths() ingest.Paths {
	p := ingest.Paths{
		Bonding:   orDefault(f.bonding, "bonding.csv"),
		Indents:   orDefault(f.indents, "indents.csv"),
		Purchases: orDefault(f.purchases, "purchases.csv"),
		Mapping:   f.mapping,
	}
	if p.Mapping == "" {
		candidate := filepath.Join(cfg.DataPath, "mapping.csv")
		if _, err := os.Stat(candidate); err == nil {
			p.Mapping = candidate
		}
	}
	return p
}

func (f *datasetFlags) load(ctx context.Context) (records.Dataset, error) {
	ds, err := ingest.NewLoader(cfg.DateLayouts).LoadDataset(ctx, f.paths())
	if err != nil {
		return records.Dataset{}, err
	}
	if err := ds.Validate(); err != nil {
		return records.Dataset{}, err
	}
	return ds, nil
}

func orDefault(path, name string) string {
	if path != "" {
		return path
	}
	return filepath.Join(cfg.DataPath, name)
}

// optionFlags override the configured history window for one command.
type optionFlags struct {
	lookback int
	maturity int
}

func (f *optionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.lookback, "lookback", 0, "limit history to the last N days (0 = all; default from LOOKBACK_DAYS)")
	cmd.Flags().IntVar(&f.maturity, "maturity", engine.DefaultMaturityDays, "ignore indents younger than N days (default from MATURITY_DAYS)")
}

func (f *optionFlags) options(cmd *cobra.Command) engine.Options {
	opts := cfg.History
	if cmd.Flags().Changed("lookback") {
		opts.LookbackDays = f.lookback
	}
	if cmd.Flags().Changed("maturity") {
		opts.MaturityDays = f.maturity
	}
	return opts
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

// saveRuns appends runs to the history file.
func saveRuns(runs ...engine.Run) error {
	store.Append(runs...)
	if err := store.Save(cfg.HistoryFile); err != nil {
		return err
	}
	log.Info().Int("runs", len(runs)).Str("path", cfg.HistoryFile).Msg("Runs saved to history")
	return nil
}

func newEngine() *engine.Engine {
	return engine.New(cfg.History)
}
