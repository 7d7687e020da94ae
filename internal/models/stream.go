package models

import "fmt"

// OpcodeRecord holds the opcodes of one codon for every tracked letter.
type OpcodeRecord struct {
	opcodes [4]Opcode
	tracked LetterSet
}

// NewOpcodeRecord creates an empty record tracking the given letters.
func NewOpcodeRecord(tracked LetterSet) OpcodeRecord {
	return OpcodeRecord{tracked: tracked}
}

// Set stores the opcode for l. Untracked letters are ignored.
func (r *OpcodeRecord) Set(l Letter, op Opcode) {
	if !r.tracked.Has(l) {
		return
	}
	r.opcodes[l.index()] = op
}

// Opcode returns the opcode for l and whether l is tracked.
func (r OpcodeRecord) Opcode(l Letter) (Opcode, bool) {
	if !r.tracked.Has(l) {
		return 0, false
	}
	return r.opcodes[l.index()], true
}

// Tracked returns the letters this record carries.
func (r OpcodeRecord) Tracked() LetterSet {
	return r.tracked
}

// Stream is the full microcode map of a sequence: one record per codon,
// ordered by codon index. Codon k starts at base offset 3k.
type Stream struct {
	Tracked LetterSet
	Records []OpcodeRecord
}

// Len returns the number of codons.
func (s *Stream) Len() int {
	return len(s.Records)
}

// Channel extracts the opcode program of a single letter, in codon order.
func (s *Stream) Channel(l Letter) ([]Opcode, error) {
	if !s.Tracked.Has(l) {
		return nil, fmt.Errorf("%w: %s (stream tracks %s)", ErrLetterNotTracked, l, s.Tracked)
	}
	out := make([]Opcode, len(s.Records))
	idx := l.index()
	for i, rec := range s.Records {
		out[i] = rec.opcodes[idx]
	}
	return out, nil
}

// BaseOffset returns the genomic base offset of codon k.
func BaseOffset(k int) int {
	return k * CodonLength
}
