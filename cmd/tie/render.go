package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fatih/color"

	"github.com/nvandessel/tie-engine/internal/engine"
	"github.com/nvandessel/tie-engine/internal/isa"
	"github.com/nvandessel/tie-engine/internal/models"
	"github.com/nvandessel/tie-engine/internal/sequence"
)

var (
	headingColor = color.New(color.Bold, color.FgCyan)
	labelColor   = color.New(color.Bold)
	peakColor    = color.New(color.FgRed)
	mutedColor   = color.New(color.FgHiBlack)
)

// maxListedPeaks bounds the peak positions printed in text mode.
const maxListedPeaks = 20

// verdictColor picks the highlight for a verdict.
func verdictColor(v models.Verdict) *color.Color {
	switch v {
	case models.VerdictSignificantInverse:
		return color.New(color.Bold, color.FgGreen)
	case models.VerdictInconclusive:
		return color.New(color.FgYellow)
	default:
		return mutedColor
	}
}

// renderReport prints a human-readable summary of a run.
func renderReport(w io.Writer, src *sequence.Source, r *engine.Report) {
	name := src.Name
	if src.Header != "" {
		name = fmt.Sprintf("%s (%s)", src.Name, src.Header)
	}
	headingColor.Fprintf(w, "tie %s: %s\n", r.Mode, name)

	field := func(label, format string, args ...any) {
		if label != "" {
			label += ":"
		}
		labelColor.Fprintf(w, "  %-13s", label)
		fmt.Fprintf(w, format+"\n", args...)
	}

	field("run", "%s", r.RunID)
	field("checksum", "%s", r.Checksum)
	if src.Dropped > 0 {
		field("bases", "%d (%d symbols dropped)", r.SequenceLength, src.Dropped)
	} else {
		field("bases", "%d", r.SequenceLength)
	}
	field("codons", "%d", r.Codons)

	if r.Windows != nil && r.Correlation != nil {
		field("windows", "%d", r.Windows.Len())
		if r.Correlation.Defined() {
			field("correlation", "r=%.4f p=%.3g n=%d",
				float64(r.Correlation.Coefficient), float64(r.Correlation.PValue), r.Correlation.N)
		} else {
			field("correlation", "%s", mutedColor.Sprintf("undefined (n=%d)", r.Correlation.N))
		}
		field("verdict", "%s", verdictColor(r.Verdict).Sprint(r.Verdict))
	}

	if len(r.Trajectory) > 0 {
		field("trajectory", "final %d, min %d, max %d",
			r.FinalAccumulator(), slices.Min(r.Trajectory), slices.Max(r.Trajectory))
	}

	peaks := r.Peaks.Positions
	summary := fmt.Sprintf("%d above %.4g (p%g volatility)", len(peaks), r.Peaks.Threshold, r.Peaks.Percentile)
	if len(peaks) > 0 {
		summary = peakColor.Sprint(summary)
	}
	field("peaks", "%s", summary)
	if len(peaks) > 0 {
		shown := peaks[:min(len(peaks), maxListedPeaks)]
		line := fmt.Sprint(shown)
		if len(peaks) > len(shown) {
			line += mutedColor.Sprintf(" ... %d more", len(peaks)-len(shown))
		}
		field("", "%s", line)
	}

	if len(r.InstructionMix) > 0 {
		labelColor.Fprintln(w, "  instruction mix:")
		for _, action := range slices.Sorted(maps.Keys(r.InstructionMix)) {
			fmt.Fprintf(w, "    %-16s %d\n", action, r.InstructionMix[action])
		}
	}
}

// renderTable prints the instruction table.
func renderTable(w io.Writer, t *isa.Table) {
	headingColor.Fprintln(w, "OPCODE  ACTION           DELTA")
	for _, in := range t.Instructions() {
		delta := in.Delta.String()
		if in.Delta.IsReset() {
			delta = peakColor.Sprint(delta)
		}
		fmt.Fprintf(w, "%-7s %-16s %s\n", in.Opcode, in.Action, delta)
	}
}
