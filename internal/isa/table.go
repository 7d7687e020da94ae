// Package isa defines the scaffold instruction set and the accumulator
// simulator that executes it.
//
// The instruction table maps each of the eight 3-bit opcodes to an action
// label and a Delta. A Delta either adds a signed amount to the accumulator or
// resets it to zero. Tables are immutable once built and are injected into
// the Simulator.
package isa

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nvandessel/tie-engine/internal/models"
)

var (
	// ErrUnknownOpcode is returned when an opcode has no table entry.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrDuplicateOpcode is returned when a table defines an opcode twice.
	ErrDuplicateOpcode = errors.New("duplicate opcode")

	// ErrIncompleteTable is returned when a table does not cover all eight opcodes.
	ErrIncompleteTable = errors.New("instruction table must define all 8 opcodes")
)

// Action is the symbolic label of an instruction.
type Action string

const (
	ActionWait           Action = "wait"
	ActionExtendWeak     Action = "extend_weak"
	ActionCompressStrong Action = "compress_strong"
	ActionBreak          Action = "break"
	ActionInit           Action = "init"
	ActionExtendStrong   Action = "extend_strong"
	ActionMaxScaffold    Action = "max_scaffold"
)

type deltaKind uint8

const (
	deltaAdd deltaKind = iota
	deltaReset
)

// Delta is the effect of an instruction: Add(n) or Reset().
type Delta struct {
	kind  deltaKind
	value int
}

// Add returns a delta that adds n to the accumulator.
func Add(n int) Delta {
	return Delta{kind: deltaAdd, value: n}
}

// Reset returns the delta that sets the accumulator to zero.
func Reset() Delta {
	return Delta{kind: deltaReset}
}

// IsReset reports whether d is the reset delta.
func (d Delta) IsReset() bool {
	return d.kind == deltaReset
}

// Value returns the amount added. It is zero for Reset.
func (d Delta) Value() int {
	return d.value
}

// Apply returns the accumulator after d.
func (d Delta) Apply(acc int) int {
	if d.kind == deltaReset {
		return 0
	}
	return acc + d.value
}

func (d Delta) String() string {
	if d.IsReset() {
		return "reset"
	}
	return fmt.Sprintf("%+d", d.value)
}

// MarshalText encodes the delta as "reset" or a signed integer.
func (d Delta) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Instruction is one table entry.
type Instruction struct {
	Opcode models.Opcode `json:"opcode"`
	Action Action        `json:"action"`
	Delta  Delta         `json:"delta"`
}

// Table is an immutable opcode → instruction mapping covering all eight opcodes.
type Table struct {
	entries [models.OpcodeCount]Instruction
}

// NewTable validates and builds a table. Every opcode must appear exactly once.
func NewTable(instructions ...Instruction) (*Table, error) {
	var seen [models.OpcodeCount]bool
	t := &Table{}
	for _, in := range instructions {
		if !in.Opcode.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOpcode, in.Opcode)
		}
		if seen[in.Opcode] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOpcode, in.Opcode)
		}
		seen[in.Opcode] = true
		t.entries[in.Opcode] = in
	}
	for op, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteTable, models.Opcode(op))
		}
	}
	return t, nil
}

// Lookup returns the instruction for op.
func (t *Table) Lookup(op models.Opcode) (Instruction, error) {
	if !op.Valid() {
		return Instruction{}, fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
	}
	return t.entries[op], nil
}

// Instructions returns a copy of all entries in opcode order.
func (t *Table) Instructions() []Instruction {
	out := make([]Instruction, len(t.entries))
	copy(out, t.entries[:])
	return out
}

// scaffoldTable is the T-program instruction set.
var scaffoldTable = sync.OnceValue(func() *Table {
	t, err := NewTable(
		Instruction{Opcode: 0b000, Action: ActionWait, Delta: Add(0)},
		Instruction{Opcode: 0b001, Action: ActionExtendWeak, Delta: Add(1)},
		Instruction{Opcode: 0b010, Action: ActionExtendWeak, Delta: Add(1)},
		Instruction{Opcode: 0b011, Action: ActionCompressStrong, Delta: Add(-2)},
		Instruction{Opcode: 0b100, Action: ActionBreak, Delta: Reset()},
		Instruction{Opcode: 0b101, Action: ActionInit, Delta: Add(3)},
		Instruction{Opcode: 0b110, Action: ActionExtendStrong, Delta: Add(2)},
		Instruction{Opcode: 0b111, Action: ActionMaxScaffold, Delta: Add(5)},
	)
	if err != nil {
		panic(fmt.Sprintf("isa: built-in table: %v", err))
	}
	return t
})

// Default returns the built-in scaffold instruction table. The table is
// constructed on first use and shared read-only afterwards.
func Default() *Table {
	return scaffoldTable()
}
