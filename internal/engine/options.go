package engine

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/nvandessel/tie-engine/internal/analysis"
	"github.com/nvandessel/tie-engine/internal/config"
	"github.com/nvandessel/tie-engine/internal/logging"
)

// Option configures an Engine.
type Option func(*Engine)

// WithWindow sets the window width and stride in codons.
func WithWindow(width, stride int) Option {
	return func(e *Engine) {
		e.window.Width = width
		e.window.Stride = stride
	}
}

// WithWorkers bounds parallel window evaluation.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.window.Workers = n }
}

// WithSmoothing sets the moving-average width used for energy and volatility.
func WithSmoothing(m int) Option {
	return func(e *Engine) { e.smoothing = m }
}

// WithPeakPercentile sets the volatility percentile above which samples are peaks.
func WithPeakPercentile(q float64) Option {
	return func(e *Engine) { e.peakPercentile = q }
}

// WithPolicy replaces the verdict thresholds.
func WithPolicy(p analysis.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStageLogger records one event per pipeline stage. A nil logger is allowed.
func WithStageLogger(sl *logging.StageLogger) Option {
	return func(e *Engine) { e.stages = sl }
}

// WithTracerProvider overrides the global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithIDGenerator replaces the run ID source, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// FromConfig translates a loaded configuration into options.
func FromConfig(cfg *config.TieConfig) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithWindow(cfg.Analysis.WindowSize, cfg.Analysis.WindowStride),
		WithWorkers(cfg.Analysis.Workers),
		WithSmoothing(cfg.Analysis.SmoothingWidth),
		WithPeakPercentile(cfg.Analysis.PeakPercentile),
		WithPolicy(analysis.Policy{
			MaxCoefficient: cfg.Verdict.MaxCoefficient,
			Alpha:          cfg.Verdict.Alpha,
		}),
	}
}
