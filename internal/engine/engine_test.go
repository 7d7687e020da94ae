package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/tie-engine/internal/analysis"
	"github.com/nvandessel/tie-engine/internal/config"
	"github.com/nvandessel/tie-engine/internal/isa"
	"github.com/nvandessel/tie-engine/internal/logging"
	"github.com/nvandessel/tie-engine/internal/models"
)

func fixedID() string { return "run-1" }

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero width", WithWindow(0, 1)},
		{"zero stride", WithWindow(10, 0)},
		{"zero smoothing", WithSmoothing(0)},
		{"percentile out of range", WithPeakPercentile(120)},
		{"percentile NaN", WithPeakPercentile(math.NaN())},
		{"alpha NaN", WithPolicy(analysis.Policy{MaxCoefficient: -0.5, Alpha: math.NaN()})},
		{"alpha zero", WithPolicy(analysis.Policy{MaxCoefficient: -0.5, Alpha: 0})},
		{"coefficient NaN", WithPolicy(analysis.Policy{MaxCoefficient: math.NaN(), Alpha: 0.01})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, tt.opt)
			require.ErrorIs(t, err, ErrInvalidOption)
		})
	}

	e, err := New(nil)
	require.NoError(t, err)
	assert.Same(t, isa.Default(), e.Table())
}

func TestScaffold(t *testing.T) {
	e, err := New(nil, WithSmoothing(1), WithPeakPercentile(50), WithIDGenerator(fixedID))
	require.NoError(t, err)

	// T-programs: AAA=000 wait, ATT=011 compress_strong, TTG=110 extend_strong.
	report, err := e.Scaffold(context.Background(), "AAAATTTTG")
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, ModeScaffold, report.Mode)
	assert.Equal(t, 9, report.SequenceLength)
	assert.Equal(t, 3, report.Codons)
	assert.Nil(t, report.Windows)
	assert.Nil(t, report.Correlation)
	assert.Empty(t, report.Verdict)

	assert.Equal(t, models.Trajectory{0, 0, -2, 0}, report.Trajectory)
	assert.Equal(t, []int{0, 3, 6, 9}, report.TrajectoryPositions)
	assert.Equal(t, []float64{0, 0, 2, 0}, report.StructuralEnergy)
	assert.Equal(t, []float64{0, 0, 2, 2}, report.Volatility)
	assert.Equal(t, 0, report.FinalAccumulator())

	assert.Equal(t, map[isa.Action]int{
		isa.ActionWait:           1,
		isa.ActionCompressStrong: 1,
		isa.ActionExtendStrong:   1,
	}, report.InstructionMix)

	// Median of [0,0,2,2] is 1; samples at 6 and 9 lie above it.
	assert.InDelta(t, 1.0, report.Peaks.Threshold, 1e-12)
	assert.Equal(t, []int{6, 9}, report.Peaks.Positions)
}

func TestAnalyze(t *testing.T) {
	e, err := New(nil, WithWindow(2, 1), WithSmoothing(3), WithIDGenerator(fixedID))
	require.NoError(t, err)

	seq := "ACTGGTTACATTGACCTGATTTGCA"
	report, err := e.Analyze(context.Background(), seq)
	require.NoError(t, err)

	require.NotNil(t, report.Windows)
	require.NotNil(t, report.Correlation)
	assert.Equal(t, 8, report.Codons)
	assert.Equal(t, 7, report.Windows.Len())
	assert.Equal(t, []int{0, 3, 6, 9, 12, 15, 18}, report.Windows.Positions)

	want := analysis.Pearson(report.Windows.Stability, report.Windows.Density)
	assert.Equal(t, want.N, report.Correlation.N)
	assert.Equal(t, analysis.DefaultPolicy().Judge(want), report.Verdict)

	assert.Len(t, report.Trajectory, report.Codons+1)
	assert.Len(t, report.StructuralEnergy, len(report.Trajectory))
	assert.Len(t, report.Volatility, len(report.Trajectory))
}

func TestAnalyze_ConstantDensityIsUndefined(t *testing.T) {
	e, err := New(nil, WithWindow(1, 1), WithSmoothing(1))
	require.NoError(t, err)

	// One-codon windows always hold three distinct labels, so density is flat.
	report, err := e.Analyze(context.Background(), "AAAATTTTG")
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 2, 2}, report.Windows.Stability)
	assert.False(t, report.Correlation.Defined())
	assert.Equal(t, models.VerdictUndefined, report.Verdict)
}

func TestAnalyze_ShortSequence(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	report, err := e.Analyze(context.Background(), "AC")
	require.NoError(t, err)

	assert.Equal(t, 0, report.Codons)
	assert.Equal(t, 0, report.Windows.Len())
	assert.Equal(t, models.Trajectory{0}, report.Trajectory)
	assert.Equal(t, models.VerdictUndefined, report.Verdict)
	assert.Empty(t, report.Peaks.Positions)
}

func TestAnalyze_InvalidSymbol(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	_, err = e.Analyze(context.Background(), "ACTNNN")
	require.ErrorIs(t, err, models.ErrInvalidSymbol)
	assert.True(t, strings.HasPrefix(err.Error(), "encode:"), err.Error())
}

func TestAnalyze_Cancelled(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Analyze(ctx, "ACTGACTGA")
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_ParallelMatchesSequential(t *testing.T) {
	seq := strings.Repeat("ACTGGTTACATTGACCTGATTTGCAGGT", 20)

	seqEngine, err := New(nil, WithWindow(10, 3), WithIDGenerator(fixedID))
	require.NoError(t, err)
	parEngine, err := New(nil, WithWindow(10, 3), WithWorkers(4), WithIDGenerator(fixedID))
	require.NoError(t, err)

	a, err := seqEngine.Analyze(context.Background(), seq)
	require.NoError(t, err)
	b, err := parEngine.Analyze(context.Background(), seq)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCustomTable(t *testing.T) {
	var instructions []isa.Instruction
	for _, in := range isa.Default().Instructions() {
		in.Delta = isa.Add(1)
		instructions = append(instructions, in)
	}
	table, err := isa.NewTable(instructions...)
	require.NoError(t, err)

	e, err := New(table, WithSmoothing(1))
	require.NoError(t, err)

	report, err := e.Scaffold(context.Background(), "TTTAAAGGGCCC")
	require.NoError(t, err)
	assert.Equal(t, models.Trajectory{0, 1, 2, 3, 4}, report.Trajectory)
}

func TestStageEvents(t *testing.T) {
	dir := t.TempDir()
	sl := logging.NewStageLogger(dir, "debug")
	require.NotNil(t, sl)

	e, err := New(nil, WithWindow(2, 1), WithStageLogger(sl), WithIDGenerator(fixedID))
	require.NoError(t, err)

	_, err = e.Analyze(context.Background(), "ACTGGTTACATTGAC")
	require.NoError(t, err)
	sl.Close()

	f, err := os.Open(filepath.Join(dir, logging.RunsFile))
	require.NoError(t, err)
	defer f.Close()

	var stages []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev logging.StageEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		assert.Equal(t, "run-1", ev.RunID)
		assert.Empty(t, ev.Error)
		stages = append(stages, ev.Stage)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"encode", "windows", "correlate", "simulate", "transform", "peaks"}, stages)
}

func TestInstructionMixLoggedAtTrace(t *testing.T) {
	for _, tt := range []struct {
		level string
		want  bool
	}{
		{"trace", true},
		{"debug", false},
	} {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			e, err := New(nil, WithSmoothing(1), WithLogger(logging.NewLogger(tt.level, &buf, false)))
			require.NoError(t, err)

			_, err = e.Scaffold(context.Background(), "AAAATTTTG")
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.Contains(buf.String(), "instruction mix"))
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.WindowSize = 7
	cfg.Analysis.WindowStride = 2
	cfg.Analysis.Workers = 3
	cfg.Analysis.SmoothingWidth = 11
	cfg.Analysis.PeakPercentile = 90
	cfg.Verdict.Alpha = 0.05

	e, err := New(nil, FromConfig(cfg)...)
	require.NoError(t, err)

	assert.Equal(t, 7, e.window.Width)
	assert.Equal(t, 2, e.window.Stride)
	assert.Equal(t, 3, e.window.Workers)
	assert.Equal(t, 11, e.smoothing)
	assert.Equal(t, 90.0, e.peakPercentile)
	assert.Equal(t, 0.05, e.policy.Alpha)
	assert.Nil(t, FromConfig(nil))
}

func TestReportJSON_UndefinedCorrelationIsNull(t *testing.T) {
	e, err := New(nil, WithWindow(1, 1), WithSmoothing(1))
	require.NoError(t, err)

	report, err := e.Analyze(context.Background(), "AAAATTTTG")
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"coefficient":null`)
	assert.Contains(t, string(data), `"verdict":"undefined"`)
}
