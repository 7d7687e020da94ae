// Package microcode turns a nucleotide sequence into opcode streams.
//
// Each codon (three consecutive symbols at offset 3k) is encoded once per
// tracked letter into a 3-bit presence mask. The ordered records form the
// microcode map consumed by the simulator and the windowed statistics.
package microcode

import (
	"errors"
	"fmt"

	"github.com/nvandessel/tie-engine/internal/models"
)

// ErrCodonLength is returned when a codon is not exactly three symbols.
var ErrCodonLength = errors.New("codon must be exactly 3 symbols")

// EncodeCodon returns the presence mask of letter l in codon.
func EncodeCodon(codon string, l models.Letter) (models.Opcode, error) {
	if len(codon) != models.CodonLength {
		return 0, fmt.Errorf("%w: got %d", ErrCodonLength, len(codon))
	}
	if !l.Valid() {
		return 0, fmt.Errorf("target letter: %w: %q", models.ErrInvalidSymbol, byte(l))
	}

	var op models.Opcode
	for i := 0; i < models.CodonLength; i++ {
		sym, err := models.ParseLetter(codon[i])
		if err != nil {
			return 0, fmt.Errorf("codon %q position %d: %w", codon, i, err)
		}
		if sym == l {
			op |= 1 << (models.CodonLength - 1 - i)
		}
	}
	return op, nil
}

// encodeAll computes the record for one codon. The symbols are validated once
// and every tracked channel is filled in the same pass.
func encodeAll(codon string, tracked models.LetterSet) (models.OpcodeRecord, error) {
	rec := models.NewOpcodeRecord(tracked)
	var masks [4]models.Opcode
	for i := 0; i < models.CodonLength; i++ {
		sym, err := models.ParseLetter(codon[i])
		if err != nil {
			return rec, fmt.Errorf("codon %q position %d: %w", codon, i, err)
		}
		for slot, l := range models.Alphabet {
			if sym == l {
				masks[slot] |= 1 << (models.CodonLength - 1 - i)
			}
		}
	}
	for slot, l := range models.Alphabet {
		rec.Set(l, masks[slot])
	}
	return rec, nil
}
