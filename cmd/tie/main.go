package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tie-engine/internal/config"
	"github.com/nvandessel/tie-engine/internal/engine"
	"github.com/nvandessel/tie-engine/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tie",
		Short: "Codon microcode simulation and signal analysis",
		Long: `tie decodes nucleotide sequences into 3-bit microcode, runs the
structural program through an eight-instruction accumulator machine, and
correlates windowed stability against label entropy.

Sequences are read from FASTA files (plain or gzip) or stdin ("-").`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.tie/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAnalyzeCmd(),
		newScaffoldCmd(),
		newISACmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves --config and --log-level on top of the file and
// environment layers, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.TieConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.TieConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEngine builds an engine from cfg. Operational logs go to the
// command's stderr; stage events go to ~/.tie/runs.jsonl at debug level
// and above. The returned cleanup closes the stage log.
func newEngine(cmd *cobra.Command, cfg *config.TieConfig) (*engine.Engine, *slog.Logger, func(), error) {
	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr(), false)

	var stages *logging.StageLogger
	if dir, err := config.Dir(); err == nil {
		stages = logging.NewStageLogger(dir, cfg.Logging.Level)
	}

	opts := append(engine.FromConfig(cfg),
		engine.WithLogger(logger),
		engine.WithStageLogger(stages),
	)
	e, err := engine.New(nil, opts...)
	if err != nil {
		stages.Close()
		return nil, nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return e, logger, stages.Close, nil
}

// signalContext returns a context cancelled on the first interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	notifySignals(ch)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
