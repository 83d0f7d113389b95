package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"indent-mcp/internal/config"
	"indent-mcp/internal/engine"
	"indent-mcp/internal/history"
	"indent-mcp/internal/ingest"
	"indent-mcp/internal/records"
	"indent-mcp/internal/report"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Version is reported during the MCP handshake. The command layer sets it from build flags.
var Version = "dev"

// ResponseEnvelope wraps every tool result.
type ResponseEnvelope struct {
	Data     any      `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
	Chart    string   `json:"chart,omitempty"`
}

// Server holds the state for the MCP server.
type Server struct {
	cfg     *config.AppConfig
	engine  *engine.Engine
	loader  *ingest.Loader
	reports *report.Writer
	history *history.Store
	sdk     *mcp.Server

	mu      sync.RWMutex
	dataset *records.Dataset
	paths   ingest.Paths
}

// NewServer creates a new MCP server. store may already hold runs loaded from disk.
func NewServer(cfg *config.AppConfig, store *history.Store) *Server {
	if store == nil {
		store = history.NewStore()
	}
	s := &Server{
		cfg:     cfg,
		engine:  engine.New(cfg.History),
		loader:  ingest.NewLoader(cfg.DateLayouts),
		reports: report.NewWriter(cfg.ReportDecimals),
		history: store,
	}
	s.sdk = mcp.NewServer(&mcp.Implementation{Name: "indent-mcp", Version: Version}, nil)
	s.registerTools()
	return s
}

// Start runs the MCP loop over stdio until the client disconnects.
func (s *Server) Start() error {
	return s.Run(context.Background(), &mcp.StdioTransport{})
}

// Run serves a single session on the given transport.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	log.Info().Int("storedRuns", s.history.Count()).Msg("MCP server ready")
	return s.sdk.Run(ctx, t)
}

// activeDataset returns the dataset set by load_dataset.
func (s *Server) activeDataset() (records.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return records.Dataset{}, errNoDataset
	}
	return *s.dataset, nil
}

func (s *Server) setDataset(ds records.Dataset, p ingest.Paths) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = &ds
	s.paths = p
}

// persist records new runs and writes the history file. A failed write is
// reported as a warning: the runs stay available for the session.
func (s *Server) persist(runs ...engine.Run) []string {
	s.history.Append(runs...)
	if s.cfg.HistoryFile == "" {
		return nil
	}
	if err := s.history.Save(s.cfg.HistoryFile); err != nil {
		log.Error().Err(err).Str("path", s.cfg.HistoryFile).Msg("Failed to save run history")
		return []string{"run history could not be saved: " + err.Error()}
	}
	return nil
}

func (s *Server) formatResult(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(out), nil
}
