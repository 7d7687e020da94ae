package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tie-engine/internal/config"
	"github.com/nvandessel/tie-engine/internal/mcp"
	"github.com/nvandessel/tie-engine/internal/pathutil"
	"github.com/nvandessel/tie-engine/internal/sequence"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the engine as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing:

  tie_analyze   full correlation and structural analysis
  tie_scaffold  structural program only
  tie_isa       the instruction table

Tools accept inline sequence text or a FASTA path. Paths must lie inside
mcp.allowed_dirs (the working directory when unset). Every call is
recorded in ~/.tie/audit.jsonl without sequence content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// stdout carries the protocol, so the engine logs to stderr only.
			e, logger, cleanup, err := newEngine(cmd, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			workDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			auditDir, err := config.Dir()
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "tie",
				Version: version,
				Engine:  e,
				Sequence: sequence.Options{
					Strict:   cfg.Sequence.Strict,
					MaxBytes: cfg.Sequence.MaxBytes,
				},
				AllowedDirs: pathutil.AllowedInputDirs(cfg.MCP.AllowedDirs, workDir),
				AuditDir:    auditDir,
				Logger:      logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if err := server.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
