package engine

import (
	"github.com/nvandessel/tie-engine/internal/analysis"
	"github.com/nvandessel/tie-engine/internal/isa"
	"github.com/nvandessel/tie-engine/internal/models"
)

// Mode names which pipeline produced a report.
type Mode string

const (
	// ModeAnalyze runs every stage including the windowed correlation.
	ModeAnalyze Mode = "analyze"

	// ModeScaffold runs only the structural program and its transforms.
	ModeScaffold Mode = "scaffold"
)

// Report is the full result of one run. Every per-sample slice carries its
// own positions so presentation needs no further computation.
type Report struct {
	RunID          string `json:"run_id"`
	Mode           Mode   `json:"mode"`
	SequenceLength int    `json:"sequence_length"`
	Codons         int    `json:"codons"`
	Checksum       string `json:"checksum"`

	// Windows is nil in scaffold mode.
	Windows     *models.WindowedSignals   `json:"windows,omitempty"`
	Correlation *models.CorrelationResult `json:"correlation,omitempty"`
	Verdict     models.Verdict            `json:"verdict,omitempty"`

	Trajectory          models.Trajectory   `json:"trajectory"`
	TrajectoryPositions []int               `json:"trajectory_positions"`
	StructuralEnergy    []float64           `json:"structural_energy"`
	Volatility          []float64           `json:"volatility"`
	Peaks               analysis.PeakReport `json:"peaks"`
	InstructionMix      map[isa.Action]int  `json:"instruction_mix"`
}

// FinalAccumulator returns the last trajectory value.
func (r *Report) FinalAccumulator() int {
	if len(r.Trajectory) == 0 {
		return 0
	}
	return r.Trajectory[len(r.Trajectory)-1]
}
