package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/nvandessel/tie-engine/internal/constants"
	"github.com/nvandessel/tie-engine/internal/models"
)

// ErrPercentileRange is returned for a percentile outside [0, 100].
var ErrPercentileRange = errors.New("percentile must be within [0, 100]")

// Percentile returns the q-th percentile of x using linear interpolation
// between the closest ranks of the sorted values: rank = q/100 * (n-1).
func Percentile(x []float64, q float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptySignal
	}
	if q < 0 || q > 100 || math.IsNaN(q) {
		return 0, fmt.Errorf("%w: %g", ErrPercentileRange, q)
	}

	sorted := slices.Clone(x)
	slices.Sort(sorted)

	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

// PeakReport lists the samples strictly above a percentile threshold.
type PeakReport struct {
	Percentile float64 `json:"percentile"`
	Threshold  float64 `json:"threshold"`
	Positions  []int   `json:"positions"`
}

// Peaks flags every sample of values strictly greater than its q-th
// percentile and returns the matching entries of positions.
func Peaks(positions []int, values []float64, q float64) (PeakReport, error) {
	if len(positions) != len(values) {
		return PeakReport{}, fmt.Errorf("%w: %d positions, %d values", ErrLengthMismatch, len(positions), len(values))
	}
	threshold, err := Percentile(values, q)
	if err != nil {
		return PeakReport{}, err
	}

	report := PeakReport{Percentile: q, Threshold: threshold, Positions: []int{}}
	for i, v := range values {
		if v > threshold {
			report.Positions = append(report.Positions, positions[i])
		}
	}
	return report, nil
}

// Policy is the decision rule applied to a correlation result.
type Policy struct {
	// MaxCoefficient is the value the coefficient must fall strictly below.
	MaxCoefficient float64 `json:"max_coefficient" yaml:"max_coefficient"`

	// Alpha is the value the p-value must fall strictly below.
	Alpha float64 `json:"alpha" yaml:"alpha"`
}

// DefaultPolicy returns r < -0.5 and p < 0.001.
func DefaultPolicy() Policy {
	return Policy{
		MaxCoefficient: constants.DefaultMaxCoefficient,
		Alpha:          constants.DefaultSignificanceAlpha,
	}
}

// Judge applies the policy. Undefined correlations get their own verdict so
// they are never confused with a computed but weak result.
func (p Policy) Judge(r models.CorrelationResult) models.Verdict {
	if !r.Defined() {
		return models.VerdictUndefined
	}
	if float64(r.Coefficient) < p.MaxCoefficient && float64(r.PValue) < p.Alpha {
		return models.VerdictSignificantInverse
	}
	return models.VerdictInconclusive
}
