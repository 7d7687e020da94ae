package signal

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/tie-engine/internal/constants"
	"github.com/nvandessel/tie-engine/internal/models"
)

// ErrInvalidWindow is returned for non-positive window widths or strides.
var ErrInvalidWindow = errors.New("invalid window")

// WindowOptions configures the discrete sliding window.
type WindowOptions struct {
	// Width is the number of codons per window.
	Width int

	// Stride is the distance in codons between consecutive window starts.
	Stride int

	// Workers bounds parallel window evaluation. Values below 2 run sequentially.
	Workers int

	// Structural is the letter whose opcode weights are summed for stability.
	Structural models.Letter

	// Informational are the letters whose labelled opcodes feed the entropy.
	Informational []models.Letter
}

// DefaultWindowOptions returns the standard 100-codon window at stride 10.
func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		Width:         constants.DefaultWindowSize,
		Stride:        constants.DefaultWindowStride,
		Workers:       constants.DefaultWorkers,
		Structural:    constants.StructuralLetter,
		Informational: append([]models.Letter(nil), constants.InformationalLetters...),
	}
}

// Validate checks the options against a stream.
func (o WindowOptions) Validate(tracked models.LetterSet) error {
	if o.Width <= 0 {
		return fmt.Errorf("%w: width %d", ErrInvalidWindow, o.Width)
	}
	if o.Stride <= 0 {
		return fmt.Errorf("%w: stride %d", ErrInvalidWindow, o.Stride)
	}
	if !tracked.Has(o.Structural) {
		return fmt.Errorf("structural channel: %w: %s", models.ErrLetterNotTracked, o.Structural)
	}
	for _, l := range o.Informational {
		if !tracked.Has(l) {
			return fmt.Errorf("informational channel: %w: %s", models.ErrLetterNotTracked, l)
		}
	}
	return nil
}

// WindowStarts returns the codon index of every window start for a stream of
// n records: 0, S, 2S, ... while start+W <= n.
func WindowStarts(n, width, stride int) []int {
	if width <= 0 || stride <= 0 || n < width {
		return nil
	}
	starts := make([]int, 0, (n-width)/stride+1)
	for i := 0; i+width <= n; i += stride {
		starts = append(starts, i)
	}
	return starts
}

// label is one element of the density multiset: a channel letter and the
// opcode it carried, the pair rendered elsewhere as e.g. "A_010".
type label struct {
	letter models.Letter
	opcode models.Opcode
}

// Windows computes the paired stability and density signals over stream.
// Output is ordered by window start regardless of Workers.
func Windows(ctx context.Context, stream *models.Stream, opts WindowOptions) (models.WindowedSignals, error) {
	if err := opts.Validate(stream.Tracked); err != nil {
		return models.WindowedSignals{}, err
	}

	starts := WindowStarts(stream.Len(), opts.Width, opts.Stride)
	out := models.WindowedSignals{
		Positions: make([]int, len(starts)),
		Stability: make([]float64, len(starts)),
		Density:   make([]float64, len(starts)),
	}

	eval := func(j int) {
		start := starts[j]
		window := stream.Records[start : start+opts.Width]
		out.Positions[j] = models.BaseOffset(start)
		out.Stability[j] = float64(stability(window, opts.Structural))
		out.Density[j] = density(window, opts.Informational)
	}

	if opts.Workers < 2 {
		for j := range starts {
			if err := ctx.Err(); err != nil {
				return models.WindowedSignals{}, err
			}
			eval(j)
		}
		return out, nil
	}

	// Each goroutine owns slot j of the preallocated slices.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for j := range starts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			eval(j)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.WindowedSignals{}, err
	}
	return out, nil
}

// stability sums the Hamming weights of the structural channel.
func stability(window []models.OpcodeRecord, l models.Letter) int {
	total := 0
	for _, rec := range window {
		op, _ := rec.Opcode(l)
		total += op.Weight()
	}
	return total
}

// density is the entropy of the labelled informational opcodes.
func density(window []models.OpcodeRecord, letters []models.Letter) float64 {
	counts := make(map[label]int, len(letters)*models.OpcodeCount)
	total := 0
	for _, l := range letters {
		for _, rec := range window {
			op, _ := rec.Opcode(l)
			counts[label{letter: l, opcode: op}]++
			total++
		}
	}
	return entropyOfCounts(counts, total)
}
