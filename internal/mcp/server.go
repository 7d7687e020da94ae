// Package mcp exposes the tie engine as MCP (Model Context Protocol) tools
// over stdio.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/tie-engine/internal/engine"
	"github.com/nvandessel/tie-engine/internal/logging"
	"github.com/nvandessel/tie-engine/internal/ratelimit"
	"github.com/nvandessel/tie-engine/internal/sequence"
)

// Server wraps the MCP SDK server and provides tie-specific functionality.
type Server struct {
	server       *sdk.Server
	engine       *engine.Engine
	seqOpts      sequence.Options
	allowedDirs  []string
	auditLogger  *AuditLogger
	toolLimiters ratelimit.ToolLimiters
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "tie")
	Version string // Server version

	// Engine runs the analyses. Required.
	Engine *engine.Engine

	// Sequence controls cleaning and the size limit for every input.
	Sequence sequence.Options

	// AllowedDirs bounds the FASTA paths clients may name.
	AllowedDirs []string

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	Logger *slog.Logger
}

// NewServer creates a new MCP server with tie tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Engine == nil {
		return nil, errors.New("mcp: engine is required")
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		server:       mcpServer,
		engine:       cfg.Engine,
		seqOpts:      cfg.Sequence,
		allowedDirs:  cfg.AllowedDirs,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	s.logger.Info("mcp server listening on stdio", "tools", 3)
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
