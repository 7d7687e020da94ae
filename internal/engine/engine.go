// Package engine runs the codon microcode pipeline end to end: it builds the
// opcode stream, computes the windowed stability/density pair, simulates the
// structural program and derives energy, volatility, correlation and peaks.
//
// Every stage is wrapped in an OpenTelemetry span and, when a StageLogger is
// configured, recorded as one JSONL event tagged with the run ID.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nvandessel/tie-engine/internal/analysis"
	"github.com/nvandessel/tie-engine/internal/constants"
	"github.com/nvandessel/tie-engine/internal/isa"
	"github.com/nvandessel/tie-engine/internal/logging"
	"github.com/nvandessel/tie-engine/internal/microcode"
	"github.com/nvandessel/tie-engine/internal/models"
	"github.com/nvandessel/tie-engine/internal/sequence"
	"github.com/nvandessel/tie-engine/internal/signal"
)

const tracerName = "tie"

// ErrInvalidOption is returned by New for out-of-range settings.
var ErrInvalidOption = errors.New("invalid engine option")

// Engine holds run parameters. It is immutable after New and safe for
// concurrent use.
type Engine struct {
	sim            *isa.Simulator
	window         signal.WindowOptions
	smoothing      int
	peakPercentile float64
	policy         analysis.Policy

	logger *slog.Logger
	stages *logging.StageLogger
	tracer trace.Tracer
	newID  func() string
}

// New creates an Engine over table. A nil table selects isa.Default().
func New(table *isa.Table, opts ...Option) (*Engine, error) {
	e := &Engine{
		sim:            isa.NewSimulator(table),
		window:         signal.DefaultWindowOptions(),
		smoothing:      constants.DefaultSmoothingWidth,
		peakPercentile: constants.DefaultPeakPercentile,
		policy:         analysis.DefaultPolicy(),
		logger:         logging.Discard(),
		tracer:         otel.Tracer(tracerName),
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.window.Width <= 0 || e.window.Stride <= 0 {
		return nil, fmt.Errorf("%w: window %d stride %d", ErrInvalidOption, e.window.Width, e.window.Stride)
	}
	if e.smoothing <= 0 {
		return nil, fmt.Errorf("%w: smoothing width %d", ErrInvalidOption, e.smoothing)
	}
	if !(e.peakPercentile >= 0 && e.peakPercentile <= 100) {
		return nil, fmt.Errorf("%w: peak percentile %g", ErrInvalidOption, e.peakPercentile)
	}
	if !(e.policy.MaxCoefficient >= -1 && e.policy.MaxCoefficient <= 1) || !(e.policy.Alpha > 0 && e.policy.Alpha < 1) {
		return nil, fmt.Errorf("%w: policy coefficient %g alpha %g", ErrInvalidOption, e.policy.MaxCoefficient, e.policy.Alpha)
	}
	return e, nil
}

// Table returns the instruction table the engine simulates with.
func (e *Engine) Table() *isa.Table {
	return e.sim.Table()
}

// Analyze runs every stage over seq: windows, correlation and verdict as well
// as the structural scaffold.
func (e *Engine) Analyze(ctx context.Context, seq string) (*Report, error) {
	return e.run(ctx, seq, ModeAnalyze)
}

// Scaffold runs only the structural program over seq: trajectory, energy,
// volatility, peaks and instruction mix.
func (e *Engine) Scaffold(ctx context.Context, seq string) (*Report, error) {
	return e.run(ctx, seq, ModeScaffold)
}

func (e *Engine) run(ctx context.Context, seq string, mode Mode) (*Report, error) {
	report := &Report{
		RunID:          e.newID(),
		Mode:           mode,
		SequenceLength: len(seq),
		Codons:         microcode.CodonCount(len(seq)),
		Checksum:       sequence.Checksum(seq),
	}
	logger := e.logger.With("run_id", report.RunID, "mode", string(mode))

	ctx, span := e.tracer.Start(ctx, "tie."+string(mode),
		trace.WithAttributes(
			attribute.String("run_id", report.RunID),
			attribute.Int("sequence_length", report.SequenceLength),
		),
	)
	defer span.End()

	logger.Info("run started", "bases", report.SequenceLength, "codons", report.Codons)
	start := time.Now()

	if err := e.pipeline(ctx, seq, report, logger); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
		logger.Error("run failed", "error", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("codons", report.Codons),
		attribute.Int("peaks", len(report.Peaks.Positions)),
	)
	if report.Verdict != "" {
		span.SetAttributes(attribute.String("verdict", string(report.Verdict)))
	}
	logger.Info("run complete",
		"duration", time.Since(start),
		"peaks", len(report.Peaks.Positions),
		"verdict", string(report.Verdict),
	)
	return report, nil
}

func (e *Engine) pipeline(ctx context.Context, seq string, report *Report, logger *slog.Logger) error {
	tracked := models.StructuralOnly
	if report.Mode == ModeAnalyze {
		tracked = models.AllLetters
	}

	var stream *models.Stream
	if err := e.stage(ctx, report.RunID, "encode", func(context.Context) (int, error) {
		var err error
		stream, err = microcode.Build(seq, tracked)
		if err != nil {
			return 0, err
		}
		return stream.Len(), nil
	}); err != nil {
		return err
	}

	if report.Mode == ModeAnalyze {
		var windows models.WindowedSignals
		if err := e.stage(ctx, report.RunID, "windows", func(ctx context.Context) (int, error) {
			var err error
			windows, err = signal.Windows(ctx, stream, e.window)
			return windows.Len(), err
		}); err != nil {
			return err
		}
		report.Windows = &windows

		if err := e.stage(ctx, report.RunID, "correlate", func(context.Context) (int, error) {
			result := analysis.Pearson(windows.Stability, windows.Density)
			report.Correlation = &result
			report.Verdict = e.policy.Judge(result)
			return result.N, nil
		}); err != nil {
			return err
		}
		if !report.Correlation.Defined() {
			logger.Warn("correlation undefined", "windows", windows.Len())
		}
	}

	if err := e.stage(ctx, report.RunID, "simulate", func(context.Context) (int, error) {
		program, err := stream.Channel(e.window.Structural)
		if err != nil {
			return 0, err
		}
		if report.Trajectory, err = e.sim.Run(program); err != nil {
			return 0, err
		}
		if report.InstructionMix, err = e.sim.Mix(program); err != nil {
			return 0, err
		}
		report.TrajectoryPositions = report.Trajectory.Positions()
		return len(report.Trajectory), nil
	}); err != nil {
		return err
	}
	logger.Log(ctx, logging.LevelTrace, "instruction mix", "mix", report.InstructionMix)

	if err := e.stage(ctx, report.RunID, "transform", func(context.Context) (int, error) {
		var err error
		if report.StructuralEnergy, err = signal.StructuralEnergy(report.Trajectory, e.smoothing); err != nil {
			return 0, err
		}
		if report.Volatility, err = signal.Volatility(report.Trajectory, e.smoothing); err != nil {
			return 0, err
		}
		return len(report.Volatility), nil
	}); err != nil {
		return err
	}

	return e.stage(ctx, report.RunID, "peaks", func(context.Context) (int, error) {
		peaks, err := analysis.Peaks(report.TrajectoryPositions, report.Volatility, e.peakPercentile)
		if err != nil {
			return 0, err
		}
		report.Peaks = peaks
		return len(peaks.Positions), nil
	})
}

// stage runs fn inside a child span and records its outcome. fn returns the
// number of items it produced.
func (e *Engine) stage(ctx context.Context, runID, name string, fn func(context.Context) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := e.tracer.Start(ctx, "tie.stage."+name)
	defer span.End()

	start := time.Now()
	items, err := fn(ctx)
	elapsed := time.Since(start)

	span.SetAttributes(attribute.Int("items", items))
	ev := logging.StageEvent{
		RunID:      runID,
		Stage:      name,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
		Items:      items,
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
		ev.Error = err.Error()
		err = fmt.Errorf("%s: %w", name, err)
	}
	e.stages.Log(ev)
	e.logger.Debug("stage complete", "run_id", runID, "stage", name, "items", items, "duration", elapsed)
	return err
}
