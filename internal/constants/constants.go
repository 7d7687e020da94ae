// Package constants provides named defaults used throughout the engine.
// This centralizes policy numbers so configuration and tests agree on them.
package constants

import "github.com/nvandessel/tie-engine/internal/models"

// Windowing constants for the stability/density pair.
const (
	// DefaultWindowSize is the window width in codons.
	DefaultWindowSize = 100

	// DefaultWindowStride is the distance between window starts in codons.
	DefaultWindowStride = 10
)

// Continuous transform constants.
const (
	// DefaultSmoothingWidth is the moving-average width in codons (450 bases).
	DefaultSmoothingWidth = 150

	// DefaultPeakPercentile selects the top 2% of smoothed volatility.
	DefaultPeakPercentile = 98.0
)

// Verdict policy. A run is reported as a significant inverse correlation only
// when both conditions hold.
const (
	// DefaultMaxCoefficient is the coefficient the result must fall below.
	DefaultMaxCoefficient = -0.5

	// DefaultSignificanceAlpha is the p-value the result must fall below.
	DefaultSignificanceAlpha = 0.001
)

// Channel assignment.
const (
	// StructuralLetter drives the simulator and the stability count.
	StructuralLetter = models.LetterT
)

// InformationalLetters are the channels whose labelled opcodes feed the
// entropy score. The structural channel is excluded.
var InformationalLetters = []models.Letter{models.LetterA, models.LetterC, models.LetterG}

// Acquisition limits.
const (
	// DefaultMaxSequenceBytes caps the raw (decompressed) input size.
	DefaultMaxSequenceBytes = 256 * 1024 * 1024
)

// Parallelism.
const (
	// DefaultWorkers evaluates windows sequentially.
	DefaultWorkers = 1
)
