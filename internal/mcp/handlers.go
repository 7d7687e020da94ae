package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/tie-engine/internal/engine"
	"github.com/nvandessel/tie-engine/internal/isa"
	"github.com/nvandessel/tie-engine/internal/pathutil"
	"github.com/nvandessel/tie-engine/internal/ratelimit"
	"github.com/nvandessel/tie-engine/internal/sequence"
)

// isaResourceURI serves the instruction table as markdown.
const isaResourceURI = "tie://isa"

var errInputChoice = errors.New("exactly one of sequence or path is required")

// registerTools registers all tie MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolAnalyze,
		Description: "Run the full codon microcode analysis: windowed stability vs density correlation with verdict, structural trajectory, smoothed energy and volatility peaks",
	}, s.handleAnalyze)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolScaffold,
		Description: "Run only the structural (T-channel) program: trajectory, smoothed energy, volatility peaks and instruction mix",
	}, s.handleScaffold)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolISA,
		Description: "List the eight-instruction table the simulator executes",
	}, s.handleISA)
}

// registerResources registers the instruction table resource.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         isaResourceURI,
		Name:        "tie-isa",
		Description: "The opcode to action table used by the structural simulator.",
		MIMEType:    "text/markdown",
	}, s.handleISAResource)
}

// loadInput resolves a SequenceInput into a cleaned sequence.
func (s *Server) loadInput(in SequenceInput) (*sequence.Source, error) {
	switch {
	case (in.Sequence == "") == (in.Path == ""):
		return nil, errInputChoice
	case in.Sequence != "":
		src, err := sequence.ReadFASTA(strings.NewReader(in.Sequence), s.seqOpts)
		if err != nil {
			return nil, fmt.Errorf("reading inline sequence: %w", err)
		}
		src.Name = "inline"
		return src, nil
	default:
		if err := pathutil.ValidateInputFile(in.Path, s.allowedDirs); err != nil {
			return nil, err
		}
		return sequence.Load(in.Path, s.seqOpts)
	}
}

// handleAnalyze implements the tie_analyze tool.
func (s *Server) handleAnalyze(ctx context.Context, req *sdk.CallToolRequest, args SequenceInput) (_ *sdk.CallToolResult, _ AnalyzeOutput, retErr error) {
	start := time.Now()
	var runID string
	defer func() {
		s.auditTool(ratelimit.ToolAnalyze, runID, start, retErr, sanitizeToolParams(args))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolAnalyze); err != nil {
		return nil, AnalyzeOutput{}, err
	}

	src, err := s.loadInput(args)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	report, err := s.engine.Analyze(ctx, src.Sequence)
	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("analysis failed: %w", err)
	}
	runID = report.RunID

	out := AnalyzeOutput{
		RunID:            report.RunID,
		Checksum:         report.Checksum,
		Header:           src.Header,
		Bases:            report.SequenceLength,
		Dropped:          src.Dropped,
		Codons:           report.Codons,
		Windows:          report.Windows.Len(),
		Verdict:          string(report.Verdict),
		FinalAccumulator: report.FinalAccumulator(),
		PeakThreshold:    report.Peaks.Threshold,
		PeakPositions:    report.Peaks.Positions,
		InstructionMix:   mixByName(report.InstructionMix),
	}
	if report.Correlation.Defined() {
		r := float64(report.Correlation.Coefficient)
		p := float64(report.Correlation.PValue)
		out.Coefficient = &r
		out.PValue = &p
		out.Message = fmt.Sprintf("%s (r=%.4f, p=%.3g) over %d windows; %d volatility peaks",
			report.Verdict, r, p, out.Windows, len(out.PeakPositions))
	} else {
		out.Message = fmt.Sprintf("correlation undefined over %d windows; %d volatility peaks",
			out.Windows, len(out.PeakPositions))
	}
	if args.IncludeSeries {
		out.Series = seriesOf(report)
	}
	return nil, out, nil
}

// handleScaffold implements the tie_scaffold tool.
func (s *Server) handleScaffold(ctx context.Context, req *sdk.CallToolRequest, args SequenceInput) (_ *sdk.CallToolResult, _ ScaffoldOutput, retErr error) {
	start := time.Now()
	var runID string
	defer func() {
		s.auditTool(ratelimit.ToolScaffold, runID, start, retErr, sanitizeToolParams(args))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolScaffold); err != nil {
		return nil, ScaffoldOutput{}, err
	}

	src, err := s.loadInput(args)
	if err != nil {
		return nil, ScaffoldOutput{}, err
	}

	report, err := s.engine.Scaffold(ctx, src.Sequence)
	if err != nil {
		return nil, ScaffoldOutput{}, fmt.Errorf("scaffold failed: %w", err)
	}
	runID = report.RunID

	out := ScaffoldOutput{
		RunID:            report.RunID,
		Checksum:         report.Checksum,
		Header:           src.Header,
		Bases:            report.SequenceLength,
		Codons:           report.Codons,
		FinalAccumulator: report.FinalAccumulator(),
		PeakThreshold:    report.Peaks.Threshold,
		PeakPositions:    report.Peaks.Positions,
		InstructionMix:   mixByName(report.InstructionMix),
		Message: fmt.Sprintf("%d codons executed, final accumulator %d, %d volatility peaks above %.4g",
			report.Codons, report.FinalAccumulator(), len(report.Peaks.Positions), report.Peaks.Threshold),
	}
	if args.IncludeSeries {
		out.Series = seriesOf(report)
	}
	return nil, out, nil
}

// handleISA implements the tie_isa tool.
func (s *Server) handleISA(ctx context.Context, req *sdk.CallToolRequest, args ISAInput) (_ *sdk.CallToolResult, _ ISAOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolISA, "", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolISA); err != nil {
		return nil, ISAOutput{}, err
	}

	return nil, ISAOutput{Instructions: describeTable(s.engine.Table())}, nil
}

// handleISAResource renders the instruction table as a markdown table.
func (s *Server) handleISAResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	var sb strings.Builder
	sb.WriteString("# Instruction Set\n\n| Opcode | Action | Delta |\n|---|---|---|\n")
	for _, in := range describeTable(s.engine.Table()) {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", in.Opcode, in.Action, in.Delta)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      isaResourceURI,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

func describeTable(t *isa.Table) []InstructionInfo {
	instructions := t.Instructions()
	out := make([]InstructionInfo, len(instructions))
	for i, in := range instructions {
		out[i] = InstructionInfo{
			Opcode: in.Opcode.String(),
			Action: string(in.Action),
			Delta:  in.Delta.String(),
		}
	}
	return out
}

func mixByName(mix map[isa.Action]int) map[string]int {
	out := make(map[string]int, len(mix))
	for a, n := range mix {
		out[string(a)] = n
	}
	return out
}

// seriesOf copies the report signals. JSON cannot carry NaN, so any
// non-finite sample is replaced by zero.
func seriesOf(r *engine.Report) *Series {
	s := &Series{
		TrajectoryPositions: r.TrajectoryPositions,
		Trajectory:          r.Trajectory,
		StructuralEnergy:    finite(r.StructuralEnergy),
		Volatility:          finite(r.Volatility),
	}
	if r.Windows != nil {
		s.WindowPositions = r.Windows.Positions
		s.Stability = finite(r.Windows.Stability)
		s.Density = finite(r.Windows.Density)
	}
	return s
}

func finite(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}
