package mcp

// SequenceInput selects the sequence a tool runs over. Exactly one of
// Sequence and Path must be set.
type SequenceInput struct {
	Sequence      string `json:"sequence,omitempty" jsonschema:"Inline nucleotide sequence or FASTA text"`
	Path          string `json:"path,omitempty" jsonschema:"Path to a FASTA file (plain or gzip) inside an allowed directory"`
	IncludeSeries bool   `json:"include_series,omitempty" jsonschema:"Return the full per-window and per-codon series (default: false)"`
}

// AnalyzeOutput defines the output for the tie_analyze tool.
type AnalyzeOutput struct {
	RunID            string         `json:"run_id" jsonschema:"Identifier shared with the run log"`
	Checksum         string         `json:"checksum" jsonschema:"SHA-256 of the cleaned sequence"`
	Header           string         `json:"header,omitempty" jsonschema:"First FASTA header line, sanitized"`
	Bases            int            `json:"bases" jsonschema:"Cleaned sequence length"`
	Dropped          int            `json:"dropped" jsonschema:"Symbols removed during cleaning"`
	Codons           int            `json:"codons" jsonschema:"Number of complete codons"`
	Windows          int            `json:"windows" jsonschema:"Number of stability/density windows"`
	Coefficient      *float64       `json:"coefficient,omitempty" jsonschema:"Pearson r of stability vs density; absent when undefined"`
	PValue           *float64       `json:"p_value,omitempty" jsonschema:"Two-sided p-value; absent when undefined"`
	Verdict          string         `json:"verdict" jsonschema:"significant inverse correlation, inconclusive or undefined"`
	FinalAccumulator int            `json:"final_accumulator" jsonschema:"Last value of the structural trajectory"`
	PeakThreshold    float64        `json:"peak_threshold" jsonschema:"Volatility value at the configured percentile"`
	PeakPositions    []int          `json:"peak_positions" jsonschema:"Base offsets whose smoothed volatility exceeds the threshold"`
	InstructionMix   map[string]int `json:"instruction_mix" jsonschema:"Executed instruction count per action"`
	Series           *Series        `json:"series,omitempty" jsonschema:"Full signals when include_series is set"`
	Message          string         `json:"message" jsonschema:"Human-readable summary"`
}

// ScaffoldOutput defines the output for the tie_scaffold tool.
type ScaffoldOutput struct {
	RunID            string         `json:"run_id" jsonschema:"Identifier shared with the run log"`
	Checksum         string         `json:"checksum" jsonschema:"SHA-256 of the cleaned sequence"`
	Header           string         `json:"header,omitempty" jsonschema:"First FASTA header line, sanitized"`
	Bases            int            `json:"bases" jsonschema:"Cleaned sequence length"`
	Codons           int            `json:"codons" jsonschema:"Number of complete codons"`
	FinalAccumulator int            `json:"final_accumulator" jsonschema:"Last value of the structural trajectory"`
	PeakThreshold    float64        `json:"peak_threshold" jsonschema:"Volatility value at the configured percentile"`
	PeakPositions    []int          `json:"peak_positions" jsonschema:"Base offsets whose smoothed volatility exceeds the threshold"`
	InstructionMix   map[string]int `json:"instruction_mix" jsonschema:"Executed instruction count per action"`
	Series           *Series        `json:"series,omitempty" jsonschema:"Full signals when include_series is set"`
	Message          string         `json:"message" jsonschema:"Human-readable summary"`
}

// Series carries the raw signals.
type Series struct {
	WindowPositions     []int     `json:"window_positions,omitempty"`
	Stability           []float64 `json:"stability,omitempty"`
	Density             []float64 `json:"density,omitempty"`
	TrajectoryPositions []int     `json:"trajectory_positions"`
	Trajectory          []int     `json:"trajectory"`
	StructuralEnergy    []float64 `json:"structural_energy"`
	Volatility          []float64 `json:"volatility"`
}

// ISAInput defines the (empty) input for the tie_isa tool.
type ISAInput struct{}

// ISAOutput defines the output for the tie_isa tool.
type ISAOutput struct {
	Instructions []InstructionInfo `json:"instructions" jsonschema:"The eight instructions in opcode order"`
}

// InstructionInfo describes one instruction.
type InstructionInfo struct {
	Opcode string `json:"opcode" jsonschema:"Three-bit opcode, e.g. 010"`
	Action string `json:"action" jsonschema:"Action label"`
	Delta  string `json:"delta" jsonschema:"Accumulator effect: signed increment or reset"`
}
