package microcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/nvandessel/tie-engine/internal/models"
)

func TestBuild_AllLetters(t *testing.T) {
	stream, err := Build("ATGTTTGGC", models.AllLetters)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stream.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", stream.Len())
	}

	want := []map[models.Letter]string{
		{models.LetterA: "100", models.LetterC: "000", models.LetterT: "010", models.LetterG: "001"},
		{models.LetterA: "000", models.LetterC: "000", models.LetterT: "111", models.LetterG: "000"},
		{models.LetterA: "000", models.LetterC: "001", models.LetterT: "000", models.LetterG: "110"},
	}
	for k, rec := range stream.Records {
		for l, w := range want[k] {
			op, ok := rec.Opcode(l)
			if !ok {
				t.Fatalf("record %d: letter %s not tracked", k, l)
			}
			if op.String() != w {
				t.Errorf("record %d letter %s = %s, want %s", k, l, op, w)
			}
		}
	}
}

func TestBuild_DropsTrailingPartialCodon(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want int
	}{
		{"empty", "", 0},
		{"one symbol", "A", 0},
		{"two symbols", "AT", 0},
		{"exact", "ATG", 1},
		{"one extra", "ATGA", 1},
		{"two extra", "ATGAC", 1},
		{"trailing junk ignored", "ATGNN", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := Build(tt.seq, models.AllLetters)
			if err != nil {
				t.Fatalf("Build(%q) error: %v", tt.seq, err)
			}
			if stream.Len() != tt.want {
				t.Errorf("Build(%q).Len() = %d, want %d", tt.seq, stream.Len(), tt.want)
			}
		})
	}
}

func TestBuild_InvalidSymbol(t *testing.T) {
	_, err := Build("ATGANG", models.AllLetters)
	if !errors.Is(err, models.ErrInvalidSymbol) {
		t.Fatalf("expected ErrInvalidSymbol, got %v", err)
	}
	if !strings.Contains(err.Error(), "codon 1") {
		t.Errorf("error should name the codon index, got %q", err.Error())
	}
}

func TestBuild_NoLetters(t *testing.T) {
	if _, err := Build("ATG", 0); !errors.Is(err, ErrNoLetters) {
		t.Errorf("expected ErrNoLetters, got %v", err)
	}
}

func TestBuild_StructuralOnly(t *testing.T) {
	stream, err := Build("TTTATG", models.StructuralOnly)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := stream.Channel(models.LetterA); !errors.Is(err, models.ErrLetterNotTracked) {
		t.Errorf("expected ErrLetterNotTracked for A, got %v", err)
	}
	prog, err := stream.Channel(models.LetterT)
	if err != nil {
		t.Fatalf("Channel(T) failed: %v", err)
	}
	if len(prog) != 2 || prog[0].String() != "111" || prog[1].String() != "010" {
		t.Errorf("T program = %v, want [111 010]", prog)
	}
}

func TestProgram(t *testing.T) {
	prog, err := Program("ATG", models.LetterT)
	if err != nil {
		t.Fatalf("Program failed: %v", err)
	}
	if len(prog) != 1 || prog[0].String() != "010" {
		t.Errorf("Program(ATG, T) = %v, want [010]", prog)
	}
}
