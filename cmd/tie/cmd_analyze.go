package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tie-engine/internal/engine"
	"github.com/nvandessel/tie-engine/internal/export"
	"github.com/nvandessel/tie-engine/internal/sequence"
)

// Output formats accepted by --format.
const (
	formatText  = "text"
	formatJSON  = "json"
	formatArrow = "arrow"
)

// runOutput is the JSON document printed by analyze and scaffold.
type runOutput struct {
	Source *sequence.Source `json:"source"`
	*engine.Report
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <fasta|->",
		Short: "Correlate windowed stability against density and trace the structural program",
		Long: `Run the full pipeline over one sequence:

  - encode every codon into per-letter opcodes
  - window the opcode streams into stability (T bit weight) and density
    (entropy of the A/C/G labels) and correlate them
  - execute the T program, smooth its energy and flag volatility peaks

Examples:
  tie analyze genome.fa
  tie analyze genome.fa.gz --format json
  curl -s https://example.org/seq.fa | tie analyze -
  tie analyze genome.fa --format arrow --table windows -o windows.arrows`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args[0], engine.ModeAnalyze)
		},
	}
	addRunFlags(cmd, export.TableWindows)
	return cmd
}

func newScaffoldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scaffold <fasta|->",
		Short: "Run only the structural program: trajectory, energy and volatility peaks",
		Long: `Execute the T-channel program through the instruction table and report
the accumulator trajectory, its smoothed structural energy, volatility and
the positions where volatility exceeds the configured percentile.

Examples:
  tie scaffold genome.fa
  tie scaffold genome.fa --format arrow -o trajectory.arrows`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args[0], engine.ModeScaffold)
		},
	}
	addRunFlags(cmd, export.TableTrajectory)
	return cmd
}

func addRunFlags(cmd *cobra.Command, defaultTable export.Table) {
	cmd.Flags().String("format", formatText, "Output format: text, json or arrow")
	cmd.Flags().String("table", string(defaultTable), "Arrow table to write: windows or trajectory")
	cmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().Bool("strict", false, "Reject symbols outside ACGT instead of dropping them")
}

func runPipeline(cmd *cobra.Command, input string, mode engine.Mode) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	format, _ := cmd.Flags().GetString("format")
	tableName, _ := cmd.Flags().GetString("table")
	outPath, _ := cmd.Flags().GetString("output")
	strict, _ := cmd.Flags().GetBool("strict")

	if jsonOut {
		format = formatJSON
	}
	switch format {
	case formatText, formatJSON, formatArrow:
	default:
		return fmt.Errorf("unknown format %q (valid: text, json, arrow)", format)
	}
	table, err := export.ParseTable(tableName)
	if err != nil {
		return err
	}
	if format == formatArrow && mode == engine.ModeScaffold && table == export.TableWindows {
		return errors.New("scaffold runs have no window table; use --table trajectory")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if strict {
		cfg.Sequence.Strict = true
	}

	e, logger, cleanup, err := newEngine(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	src, err := loadSource(cmd, input, sequence.Options{
		Strict:   cfg.Sequence.Strict,
		MaxBytes: cfg.Sequence.MaxBytes,
	})
	if err != nil {
		return err
	}
	if src.Dropped > 0 {
		logger.Info("dropped non-nucleotide symbols", "count", src.Dropped, "source", src.Name)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var report *engine.Report
	if mode == engine.ModeAnalyze {
		report, err = e.Analyze(ctx, src.Sequence)
	} else {
		report, err = e.Scaffold(ctx, src.Sequence)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", mode, err)
	}

	if outPath == "" {
		return writeReport(cmd.OutOrStdout(), format, table, src, report)
	}

	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeReport(f, format, table, src, report); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}

func writeReport(w io.Writer, format string, table export.Table, src *sequence.Source, report *engine.Report) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runOutput{Source: src, Report: report})
	case formatArrow:
		return export.WriteReport(w, report, table)
	default:
		renderReport(w, src, report)
		return nil
	}
}

// loadSource reads input, taking "-" from the command's stdin.
func loadSource(cmd *cobra.Command, input string, opts sequence.Options) (*sequence.Source, error) {
	if input != sequence.Stdin {
		return sequence.Load(input, opts)
	}

	src, err := sequence.ReadFASTA(cmd.InOrStdin(), opts)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	src.Name = sequence.Stdin
	return src, nil
}
