package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSymbol is returned when a sequence symbol falls outside {A,C,T,G}.
var ErrInvalidSymbol = errors.New("invalid sequence symbol")

// ErrLetterNotTracked is returned when a channel is requested from a stream
// that was built without that letter.
var ErrLetterNotTracked = errors.New("letter not tracked")

// Letter is one symbol of the nucleotide alphabet.
type Letter byte

const (
	LetterA Letter = 'A'
	LetterC Letter = 'C'
	LetterT Letter = 'T'
	LetterG Letter = 'G'
)

// Alphabet lists the four letters in channel order.
var Alphabet = [4]Letter{LetterA, LetterC, LetterT, LetterG}

// ParseLetter converts a byte into a Letter. Lowercase input is not accepted;
// cleaning belongs to the acquisition layer.
func ParseLetter(b byte) (Letter, error) {
	l := Letter(b)
	if !l.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSymbol, b)
	}
	return l, nil
}

// Valid reports whether l is one of A, C, T or G.
func (l Letter) Valid() bool {
	return l.index() >= 0
}

// String returns the single-character name of the letter.
func (l Letter) String() string {
	return string(rune(l))
}

// index returns the channel slot for l, or -1.
func (l Letter) index() int {
	switch l {
	case LetterA:
		return 0
	case LetterC:
		return 1
	case LetterT:
		return 2
	case LetterG:
		return 3
	default:
		return -1
	}
}

// LetterSet is a set of tracked letters.
type LetterSet uint8

const (
	// StructuralOnly tracks only the T channel (the "T-program").
	StructuralOnly = LetterSet(1 << 2)

	// AllLetters tracks A, C, T and G.
	AllLetters = LetterSet(0x0f)
)

// NewLetterSet builds a set from the given letters. Invalid letters are rejected.
func NewLetterSet(letters ...Letter) (LetterSet, error) {
	var s LetterSet
	for _, l := range letters {
		idx := l.index()
		if idx < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSymbol, byte(l))
		}
		s |= 1 << idx
	}
	return s, nil
}

// ParseLetterSet parses a string such as "ACTG" or "T".
func ParseLetterSet(s string) (LetterSet, error) {
	letters := make([]Letter, 0, len(s))
	for i := 0; i < len(s); i++ {
		letters = append(letters, Letter(s[i]))
	}
	return NewLetterSet(letters...)
}

// Has reports whether l is in the set.
func (s LetterSet) Has(l Letter) bool {
	idx := l.index()
	return idx >= 0 && s&(1<<idx) != 0
}

// Letters returns the members of the set in alphabet order.
func (s LetterSet) Letters() []Letter {
	out := make([]Letter, 0, 4)
	for _, l := range Alphabet {
		if s.Has(l) {
			out = append(out, l)
		}
	}
	return out
}

// Empty reports whether the set has no members.
func (s LetterSet) Empty() bool {
	return s&AllLetters == 0
}

func (s LetterSet) String() string {
	var sb strings.Builder
	for _, l := range s.Letters() {
		sb.WriteByte(byte(l))
	}
	return sb.String()
}
