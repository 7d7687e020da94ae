package signal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/nvandessel/tie-engine/internal/models"
)

// ErrInvalidWidth is returned for a non-positive moving-average width.
var ErrInvalidWidth = errors.New("moving average width must be positive")

// MovingAverage returns the centered box-filter average of x with width m,
// using "same" convolution semantics: out[k] is the sum of
// x[k-m/2 .. k+m-1-m/2] (indices outside x contribute zero) divided by m.
// The output always has len(x) elements, also when len(x) < m.
func MovingAverage(x []float64, m int) ([]float64, error) {
	if m <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, m)
	}
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out, nil
	}

	// prefix[i] = x[0] + ... + x[i-1]
	prefix := make([]float64, len(x)+1)
	floats.CumSum(prefix[1:], x)

	left := m / 2
	right := m - 1 - left
	n := len(x)
	for k := range out {
		lo := max(k-left, 0)
		hi := min(k+right, n-1)
		out[k] = (prefix[hi+1] - prefix[lo]) / float64(m)
	}
	return out, nil
}

// StructuralEnergy is the moving average of |trajectory|.
func StructuralEnergy(traj models.Trajectory, m int) ([]float64, error) {
	abs := traj.Floats()
	for i, v := range abs {
		abs[i] = math.Abs(v)
	}
	return MovingAverage(abs, m)
}

// FirstDifference returns |x[i] - x[i-1]| with an implicit x[-1] = 0, so the
// result has the same length as x.
func FirstDifference(traj models.Trajectory) []float64 {
	out := make([]float64, len(traj))
	prev := 0
	for i, v := range traj {
		out[i] = math.Abs(float64(v - prev))
		prev = v
	}
	return out
}

// Volatility is the moving average of the absolute first difference.
func Volatility(traj models.Trajectory, m int) ([]float64, error) {
	return MovingAverage(FirstDifference(traj), m)
}
