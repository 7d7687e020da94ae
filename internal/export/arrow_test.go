package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/tie-engine/internal/engine"
)

func runReport(t *testing.T, scaffold bool) *engine.Report {
	t.Helper()
	e, err := engine.New(nil,
		engine.WithWindow(1, 1),
		engine.WithSmoothing(1),
		engine.WithPeakPercentile(50),
		engine.WithIDGenerator(func() string { return "run-x" }),
	)
	require.NoError(t, err)

	run := e.Analyze
	if scaffold {
		run = e.Scaffold
	}
	report, err := run(context.Background(), "AAAATTTTG")
	require.NoError(t, err)
	return report
}

func TestParseTable(t *testing.T) {
	tbl, err := ParseTable("windows")
	require.NoError(t, err)
	assert.Equal(t, TableWindows, tbl)

	_, err = ParseTable("bogus")
	require.Error(t, err)
}

func TestWindowRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec, err := WindowRecord(mem, runReport(t, false))
	require.NoError(t, err)
	defer rec.Release()

	assert.EqualValues(t, 3, rec.NumRows())
	assert.EqualValues(t, 3, rec.NumCols())
	assert.Equal(t, []int64{0, 3, 6}, rec.Column(0).(*array.Int64).Int64Values())
	assert.Equal(t, []float64{0, 2, 2}, rec.Column(1).(*array.Float64).Float64Values())

	md := rec.Schema().Metadata()
	idx := md.FindKey("verdict")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "undefined", md.Values()[idx])
	assert.Equal(t, "run-x", md.Values()[md.FindKey("run_id")])
}

func TestWindowRecord_Scaffold(t *testing.T) {
	_, err := WindowRecord(memory.DefaultAllocator, runReport(t, true))
	require.ErrorIs(t, err, ErrNoWindows)
}

func TestTrajectoryRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec, err := TrajectoryRecord(mem, runReport(t, true))
	require.NoError(t, err)
	defer rec.Release()

	assert.EqualValues(t, 4, rec.NumRows())
	assert.Equal(t, []int64{0, 3, 6, 9}, rec.Column(0).(*array.Int64).Int64Values())
	assert.Equal(t, []int64{0, 0, -2, 0}, rec.Column(1).(*array.Int64).Int64Values())
	assert.Equal(t, []float64{0, 0, 2, 2}, rec.Column(3).(*array.Float64).Float64Values())

	peak := rec.Column(4).(*array.Boolean)
	got := make([]bool, peak.Len())
	for i := range got {
		got[i] = peak.Value(i)
	}
	assert.Equal(t, []bool{false, false, true, true}, got)

	assert.Less(t, rec.Schema().Metadata().FindKey("verdict"), 0, "scaffold has no verdict")
}

func TestWriteIPC_RoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec, err := TrajectoryRecord(mem, runReport(t, true))
	require.NoError(t, err)
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteIPC(&buf, mem, rec))

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	got := r.Record()
	assert.True(t, got.Schema().Equal(rec.Schema()))
	assert.Equal(t, rec.NumRows(), got.NumRows())
	assert.Equal(t, []int64{0, 0, -2, 0}, got.Column(1).(*array.Int64).Int64Values())
	assert.False(t, r.Next())
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, runReport(t, false), TableWindows))
	assert.NotZero(t, buf.Len())

	buf.Reset()
	require.ErrorIs(t, WriteReport(&buf, runReport(t, true), TableWindows), ErrNoWindows)
}
