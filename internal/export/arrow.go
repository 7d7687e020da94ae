// Package export converts engine reports into Apache Arrow records so
// plotting and notebook tools can consume them without re-parsing JSON.
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/nvandessel/tie-engine/internal/engine"
)

// ErrNoWindows is returned when a window table is requested from a scaffold report.
var ErrNoWindows = errors.New("report has no windowed signals")

// Table selects which per-sample table to export.
type Table string

const (
	TableWindows    Table = "windows"
	TableTrajectory Table = "trajectory"
)

// ParseTable validates a table name.
func ParseTable(s string) (Table, error) {
	switch Table(s) {
	case TableWindows, TableTrajectory:
		return Table(s), nil
	default:
		return "", fmt.Errorf("unknown table %q (valid: windows, trajectory)", s)
	}
}

// WindowSchema is one row per window.
var WindowSchema = arrow.NewSchema([]arrow.Field{
	{Name: "position", Type: arrow.PrimitiveTypes.Int64},
	{Name: "stability", Type: arrow.PrimitiveTypes.Float64},
	{Name: "density", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// TrajectorySchema is one row per trajectory sample.
var TrajectorySchema = arrow.NewSchema([]arrow.Field{
	{Name: "position", Type: arrow.PrimitiveTypes.Int64},
	{Name: "accumulator", Type: arrow.PrimitiveTypes.Int64},
	{Name: "structural_energy", Type: arrow.PrimitiveTypes.Float64},
	{Name: "volatility", Type: arrow.PrimitiveTypes.Float64},
	{Name: "peak", Type: arrow.FixedWidthTypes.Boolean},
}, nil)

// metadata carries run-level fields that do not fit a per-row column.
func metadata(r *engine.Report) arrow.Metadata {
	keys := []string{"run_id", "mode", "checksum", "codons"}
	values := []string{r.RunID, string(r.Mode), r.Checksum, strconv.Itoa(r.Codons)}
	if r.Correlation != nil {
		keys = append(keys, "coefficient", "p_value", "verdict")
		values = append(values,
			strconv.FormatFloat(float64(r.Correlation.Coefficient), 'g', -1, 64),
			strconv.FormatFloat(float64(r.Correlation.PValue), 'g', -1, 64),
			string(r.Verdict),
		)
	}
	return arrow.NewMetadata(keys, values)
}

func withMetadata(s *arrow.Schema, md arrow.Metadata) *arrow.Schema {
	return arrow.NewSchema(s.Fields(), &md)
}

// WindowRecord builds the window table. The caller must Release the record.
func WindowRecord(mem memory.Allocator, r *engine.Report) (arrow.Record, error) {
	if r.Windows == nil {
		return nil, ErrNoWindows
	}
	w := r.Windows

	b := array.NewRecordBuilder(mem, withMetadata(WindowSchema, metadata(r)))
	defer b.Release()

	pos := b.Field(0).(*array.Int64Builder)
	pos.Reserve(w.Len())
	for _, p := range w.Positions {
		pos.UnsafeAppend(int64(p))
	}
	b.Field(1).(*array.Float64Builder).AppendValues(w.Stability, nil)
	b.Field(2).(*array.Float64Builder).AppendValues(w.Density, nil)

	return b.NewRecord(), nil
}

// TrajectoryRecord builds the trajectory table. The caller must Release the record.
func TrajectoryRecord(mem memory.Allocator, r *engine.Report) (arrow.Record, error) {
	n := len(r.Trajectory)
	if len(r.StructuralEnergy) != n || len(r.Volatility) != n || len(r.TrajectoryPositions) != n {
		return nil, fmt.Errorf("trajectory columns differ in length: %d/%d/%d/%d",
			len(r.TrajectoryPositions), n, len(r.StructuralEnergy), len(r.Volatility))
	}

	peaks := make(map[int]struct{}, len(r.Peaks.Positions))
	for _, p := range r.Peaks.Positions {
		peaks[p] = struct{}{}
	}

	b := array.NewRecordBuilder(mem, withMetadata(TrajectorySchema, metadata(r)))
	defer b.Release()

	pos := b.Field(0).(*array.Int64Builder)
	acc := b.Field(1).(*array.Int64Builder)
	peak := b.Field(4).(*array.BooleanBuilder)
	pos.Reserve(n)
	acc.Reserve(n)
	peak.Reserve(n)
	for i, p := range r.TrajectoryPositions {
		pos.UnsafeAppend(int64(p))
		acc.UnsafeAppend(int64(r.Trajectory[i]))
		_, ok := peaks[p]
		peak.UnsafeAppend(ok)
	}
	b.Field(2).(*array.Float64Builder).AppendValues(r.StructuralEnergy, nil)
	b.Field(3).(*array.Float64Builder).AppendValues(r.Volatility, nil)

	return b.NewRecord(), nil
}

// Record builds the selected table.
func Record(mem memory.Allocator, r *engine.Report, t Table) (arrow.Record, error) {
	switch t {
	case TableWindows:
		return WindowRecord(mem, r)
	case TableTrajectory:
		return TrajectoryRecord(mem, r)
	default:
		return nil, fmt.Errorf("unknown table %q", t)
	}
}

// WriteIPC writes rec to w as an Arrow IPC stream.
func WriteIPC(w io.Writer, mem memory.Allocator, rec arrow.Record) error {
	iw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := iw.Write(rec); err != nil {
		iw.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("closing arrow stream: %w", err)
	}
	return nil
}

// WriteReport builds the selected table from r and streams it to w.
func WriteReport(w io.Writer, r *engine.Report, t Table) error {
	mem := memory.DefaultAllocator
	rec, err := Record(mem, r, t)
	if err != nil {
		return err
	}
	defer rec.Release()
	return WriteIPC(w, mem, rec)
}
