package commands

import (
	"indent-mcp/internal/config"
	"indent-mcp/internal/history"
	"indent-mcp/internal/logging"
	"indent-mcp/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	store   *history.Store
)

var rootCmd = &cobra.Command{
	Use:   "indent-mcp",
	Short: "indent-mcp recommends daily indents per collection center",
	Long: `Forecasts how much of the already placed indents will arrive at the plant on T+3, learns
per-center delivery-lag weights from purchase history, and turns the plant requirement into a
recommended indent per bonded center.

Without a subcommand the binary runs as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		store = history.NewStore()
		if err := store.Load(cfg.HistoryFile); err != nil {
			log.Warn().Err(err).Str("path", cfg.HistoryFile).Msg("Run history not loaded")
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("dataPath", cfg.DataPath).
			Msg("indent-mcp starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Msg("MCP Server starting Stdio loop")
		mcp.Version = Version
		return mcp.NewServer(cfg, store).Start()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(calculateCmd, scenarioCmd, backtestCmd, historyCmd)
}
