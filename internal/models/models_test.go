package models

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestParseLetter(t *testing.T) {
	for _, b := range []byte("ACTG") {
		l, err := ParseLetter(b)
		if err != nil {
			t.Errorf("ParseLetter(%q) failed: %v", b, err)
		}
		if l.String() != string(b) {
			t.Errorf("String() = %q, want %q", l.String(), string(b))
		}
	}

	for _, b := range []byte("acgtNU-") {
		if _, err := ParseLetter(b); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("ParseLetter(%q) err = %v, want ErrInvalidSymbol", b, err)
		}
	}
}

func TestLetterSet(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"T", "T", false},
		{"GTCA", "ACTG", false},
		{"AA", "A", false},
		{"", "", false},
		{"AX", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := ParseLetterSet(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSymbol) {
					t.Errorf("err = %v, want ErrInvalidSymbol", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLetterSet failed: %v", err)
			}
			if s.String() != tt.want {
				t.Errorf("String() = %q, want %q", s.String(), tt.want)
			}
			if s.Empty() != (tt.want == "") {
				t.Errorf("Empty() = %v", s.Empty())
			}
		})
	}

	if StructuralOnly.String() != "T" || AllLetters.String() != "ACTG" {
		t.Errorf("predefined sets = %s, %s", StructuralOnly, AllLetters)
	}
	if StructuralOnly.Has(LetterA) || !StructuralOnly.Has(LetterT) {
		t.Error("StructuralOnly membership wrong")
	}
}

func TestParseOpcode(t *testing.T) {
	tests := []struct {
		input   string
		want    Opcode
		weight  int
		wantErr bool
	}{
		{"000", 0, 0, false},
		{"010", 2, 1, false},
		{"101", 5, 2, false},
		{"111", 7, 3, false},
		{"11", 0, 0, true},
		{"1111", 0, 0, true},
		{"012", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			op, err := ParseOpcode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOpcode) {
					t.Errorf("err = %v, want ErrInvalidOpcode", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOpcode failed: %v", err)
			}
			if op != tt.want {
				t.Errorf("ParseOpcode(%q) = %d, want %d", tt.input, op, tt.want)
			}
			if op.Weight() != tt.weight {
				t.Errorf("Weight() = %d, want %d", op.Weight(), tt.weight)
			}
			if op.String() != tt.input {
				t.Errorf("String() = %q, want %q", op.String(), tt.input)
			}
		})
	}
}

func TestOpcode_Bit(t *testing.T) {
	op, _ := ParseOpcode("100")
	if !op.Bit(0) || op.Bit(1) || op.Bit(2) {
		t.Errorf("bits of 100 = %v %v %v", op.Bit(0), op.Bit(1), op.Bit(2))
	}
}

func TestOpcode_Text(t *testing.T) {
	var decoded struct {
		Op Opcode `json:"op"`
	}
	if err := json.Unmarshal([]byte(`{"op":"110"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Op != 6 {
		t.Errorf("decoded = %d, want 6", decoded.Op)
	}

	if _, err := Opcode(9).MarshalText(); !errors.Is(err, ErrInvalidOpcode) {
		t.Errorf("MarshalText(9) err = %v", err)
	}
	if Opcode(9).String() != "Opcode(9)" {
		t.Errorf("String() = %q", Opcode(9).String())
	}
}

func TestStream_Channel(t *testing.T) {
	rec := NewOpcodeRecord(StructuralOnly)
	rec.Set(LetterT, 3)
	rec.Set(LetterA, 7) // untracked, ignored

	if op, ok := rec.Opcode(LetterT); !ok || op != 3 {
		t.Errorf("Opcode(T) = %d, %v", op, ok)
	}
	if _, ok := rec.Opcode(LetterA); ok {
		t.Error("Opcode(A) should be untracked")
	}

	s := &Stream{Tracked: StructuralOnly, Records: []OpcodeRecord{rec, NewOpcodeRecord(StructuralOnly)}}
	got, err := s.Channel(LetterT)
	if err != nil {
		t.Fatalf("Channel(T): %v", err)
	}
	if !reflect.DeepEqual(got, []Opcode{3, 0}) {
		t.Errorf("Channel(T) = %v", got)
	}

	if _, err := s.Channel(LetterG); !errors.Is(err, ErrLetterNotTracked) {
		t.Errorf("Channel(G) err = %v, want ErrLetterNotTracked", err)
	}
}

func TestTrajectory(t *testing.T) {
	tr := Trajectory{0, 2, -1}
	if !reflect.DeepEqual(tr.Positions(), []int{0, 3, 6}) {
		t.Errorf("Positions() = %v", tr.Positions())
	}
	if !reflect.DeepEqual(tr.Floats(), []float64{0, 2, -1}) {
		t.Errorf("Floats() = %v", tr.Floats())
	}
}

func TestCorrelationResult_JSON(t *testing.T) {
	undefined := CorrelationResult{
		Coefficient: NullableFloat(math.NaN()),
		PValue:      NullableFloat(math.NaN()),
		N:           1,
	}
	if undefined.Defined() {
		t.Error("NaN coefficient should be undefined")
	}

	data, err := json.Marshal(undefined)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"coefficient":null,"p_value":null,"n":1}` {
		t.Errorf("Marshal = %s", data)
	}

	var back CorrelationResult
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Defined() || back.N != 1 {
		t.Errorf("round trip = %+v", back)
	}

	data, _ = json.Marshal(CorrelationResult{Coefficient: -0.75, PValue: 0.01, N: 10})
	if string(data) != `{"coefficient":-0.75,"p_value":0.01,"n":10}` {
		t.Errorf("Marshal = %s", data)
	}
}
