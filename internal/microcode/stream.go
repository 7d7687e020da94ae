package microcode

import (
	"errors"
	"fmt"

	"github.com/nvandessel/tie-engine/internal/models"
)

// ErrNoLetters is returned when Build is asked to track nothing.
var ErrNoLetters = errors.New("no tracked letters")

// CodonCount returns the number of whole codons in a sequence of n symbols.
// A trailing partial codon is dropped.
func CodonCount(n int) int {
	return n / models.CodonLength
}

// Build encodes seq codon by codon. Records are ordered by codon index and a
// trailing partial codon (one or two symbols) is ignored, including any
// invalid symbols it may contain.
func Build(seq string, tracked models.LetterSet) (*models.Stream, error) {
	if tracked.Empty() {
		return nil, ErrNoLetters
	}

	n := CodonCount(len(seq))
	stream := &models.Stream{
		Tracked: tracked,
		Records: make([]models.OpcodeRecord, n),
	}
	for k := 0; k < n; k++ {
		off := models.BaseOffset(k)
		rec, err := encodeAll(seq[off:off+models.CodonLength], tracked)
		if err != nil {
			return nil, fmt.Errorf("codon %d (base %d): %w", k, off, err)
		}
		stream.Records[k] = rec
	}
	return stream, nil
}

// Program builds the single-letter opcode program for l, e.g. the T-program.
func Program(seq string, l models.Letter) ([]models.Opcode, error) {
	set, err := models.NewLetterSet(l)
	if err != nil {
		return nil, err
	}
	stream, err := Build(seq, set)
	if err != nil {
		return nil, err
	}
	return stream.Channel(l)
}
