package models

import (
	"encoding/json"
	"math"
)

// Trajectory is the accumulator history of a simulator run. Element 0 is the
// state before the first instruction, so len == program length + 1.
type Trajectory []int

// Floats converts the trajectory for the continuous transforms.
func (t Trajectory) Floats() []float64 {
	out := make([]float64, len(t))
	for i, v := range t {
		out[i] = float64(v)
	}
	return out
}

// Positions returns the genomic base offset of every trajectory sample.
func (t Trajectory) Positions() []int {
	out := make([]int, len(t))
	for i := range t {
		out[i] = BaseOffset(i)
	}
	return out
}

// WindowedSignals is the paired output of the discrete windowing stage.
// All three slices have the same length.
type WindowedSignals struct {
	Positions []int     `json:"positions"`
	Stability []float64 `json:"stability"`
	Density   []float64 `json:"density"`
}

// Len returns the number of windows.
func (w WindowedSignals) Len() int {
	return len(w.Positions)
}

// NullableFloat marshals NaN and infinities as JSON null.
type NullableFloat float64

// MarshalJSON implements json.Marshaler.
func (f NullableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (f *NullableFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullableFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullableFloat(v)
	return nil
}

// CorrelationResult is a Pearson coefficient with its two-sided p-value.
// Both are NaN when the correlation is undefined (fewer than two samples or a
// constant input).
type CorrelationResult struct {
	Coefficient NullableFloat `json:"coefficient"`
	PValue      NullableFloat `json:"p_value"`
	N           int           `json:"n"`
}

// Defined reports whether a coefficient could be computed.
func (c CorrelationResult) Defined() bool {
	return !math.IsNaN(float64(c.Coefficient))
}

// Verdict is the textual outcome of the decision rule.
type Verdict string

const (
	VerdictSignificantInverse Verdict = "significant inverse correlation"
	VerdictInconclusive       Verdict = "inconclusive"
	VerdictUndefined          Verdict = "undefined"
)
