package isa

import (
	"fmt"

	"github.com/nvandessel/tie-engine/internal/models"
)

// Simulator executes opcode programs against an instruction table.
// It holds no run state and is safe for concurrent use.
type Simulator struct {
	table *Table
}

// NewSimulator creates a simulator over table. A nil table selects Default().
func NewSimulator(table *Table) *Simulator {
	if table == nil {
		table = Default()
	}
	return &Simulator{table: table}
}

// Table returns the instruction table the simulator executes.
func (s *Simulator) Table() *Table {
	return s.table
}

// Step applies a single opcode to the accumulator.
func (s *Simulator) Step(acc int, op models.Opcode) (int, error) {
	in, err := s.table.Lookup(op)
	if err != nil {
		return acc, err
	}
	return in.Delta.Apply(acc), nil
}

// Run folds program into a trajectory. The result starts with the initial
// accumulator value 0 and has one more element than program.
func (s *Simulator) Run(program []models.Opcode) (models.Trajectory, error) {
	traj := make(models.Trajectory, 1, len(program)+1)
	acc := 0
	for i, op := range program {
		next, err := s.Step(acc, op)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		acc = next
		traj = append(traj, acc)
	}
	return traj, nil
}

// Mix counts how many times each action would execute for program.
func (s *Simulator) Mix(program []models.Opcode) (map[Action]int, error) {
	mix := make(map[Action]int)
	for i, op := range program {
		in, err := s.table.Lookup(op)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		mix[in.Action]++
	}
	return mix, nil
}
