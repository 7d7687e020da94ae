package models

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidOpcode is returned when an opcode string is not three binary digits.
var ErrInvalidOpcode = errors.New("invalid opcode")

// CodonLength is the number of symbols in a codon and the width of an opcode.
const CodonLength = 3

// Opcode is a 3-bit presence mask. Codon position i maps to bit (2-i), so the
// textual form reads left to right in codon order: "010" means only the middle
// symbol matched.
type Opcode uint8

// OpcodeCount is the number of distinct 3-bit opcodes.
const OpcodeCount = 1 << CodonLength

// ParseOpcode parses a three-character binary string such as "101".
func ParseOpcode(s string) (Opcode, error) {
	if len(s) != CodonLength {
		return 0, fmt.Errorf("%w: %q has length %d", ErrInvalidOpcode, s, len(s))
	}
	var op Opcode
	for i := 0; i < CodonLength; i++ {
		switch s[i] {
		case '0':
		case '1':
			op |= 1 << (CodonLength - 1 - i)
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidOpcode, s)
		}
	}
	return op, nil
}

// Bit reports whether codon position i (0..2) is set.
func (o Opcode) Bit(i int) bool {
	return o&(1<<(CodonLength-1-i)) != 0
}

// Weight returns the Hamming weight of the opcode.
func (o Opcode) Weight() int {
	return bits.OnesCount8(uint8(o))
}

// Valid reports whether o fits in three bits.
func (o Opcode) Valid() bool {
	return o < OpcodeCount
}

func (o Opcode) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint8(o))
	}
	return fmt.Sprintf("%03b", uint8(o))
}

// MarshalText encodes the opcode as its binary string.
func (o Opcode) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOpcode, uint8(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText decodes a binary string.
func (o *Opcode) UnmarshalText(text []byte) error {
	op, err := ParseOpcode(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
