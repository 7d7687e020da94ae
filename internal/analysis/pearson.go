// Package analysis compares the structural and informational signals and
// flags outliers in the volatility signal.
package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nvandessel/tie-engine/internal/models"
)

var (
	// ErrEmptySignal is returned when a signal has no samples.
	ErrEmptySignal = errors.New("empty signal")

	// ErrLengthMismatch is returned when paired inputs differ in length where
	// truncation is not the documented policy.
	ErrLengthMismatch = errors.New("length mismatch")
)

// Align truncates x and y to their shared minimum length. Values beyond the
// shorter input are discarded; nothing is interpolated.
func Align(x, y []float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	return x[:n], y[:n]
}

// Pearson computes the product-moment correlation of x and y after Align, and
// its two-sided p-value under the null hypothesis of no linear correlation.
// With fewer than two samples or a constant input the result is undefined:
// both fields are NaN.
func Pearson(x, y []float64) models.CorrelationResult {
	x, y = Align(x, y)
	n := len(x)
	undefined := models.CorrelationResult{
		Coefficient: models.NullableFloat(math.NaN()),
		PValue:      models.NullableFloat(math.NaN()),
		N:           n,
	}
	if n < 2 || constant(x) || constant(y) {
		return undefined
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return undefined
	}
	r = math.Max(-1, math.Min(1, r))

	return models.CorrelationResult{
		Coefficient: models.NullableFloat(r),
		PValue:      models.NullableFloat(pValue(r, n)),
		N:           n,
	}
}

// pValue uses t = r*sqrt((n-2)/(1-r^2)) with n-2 degrees of freedom.
func pValue(r float64, n int) float64 {
	if n == 2 {
		// Two points always lie on a line.
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := math.Abs(r) * math.Sqrt(df/((1-r)*(1+r)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-t)
	return math.Max(0, math.Min(1, p))
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
