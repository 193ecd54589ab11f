package calculator

import (
	"errors"
	"reflect"
	"testing"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		name      string
		positions map[ParticipantID]NetPosition
		want      []Transfer
	}{
		{
			name:      "two debtors one creditor",
			positions: map[ParticipantID]NetPosition{"A": -500, "B": -300, "C": 800},
			want: []Transfer{
				{From: "A", To: "C", Amount: 500},
				{From: "B", To: "C", Amount: 300},
			},
		},
		{
			name:      "one debtor two creditors",
			positions: map[ParticipantID]NetPosition{"A": 500, "B": 300, "C": -800},
			want: []Transfer{
				{From: "C", To: "A", Amount: 500},
				{From: "C", To: "B", Amount: 300},
			},
		},
		{
			name:      "exact pairing removes both parties at once",
			positions: map[ParticipantID]NetPosition{"A": -400, "B": 400, "C": -100, "D": 100},
			want: []Transfer{
				{From: "A", To: "B", Amount: 400},
				{From: "C", To: "D", Amount: 100},
			},
		},
		{
			name:      "already settled",
			positions: map[ParticipantID]NetPosition{"A": 0, "B": 0, "C": 0},
			want:      nil,
		},
		{
			name:      "empty input",
			positions: map[ParticipantID]NetPosition{},
			want:      nil,
		},
		{
			name:      "zero positions never appear in output",
			positions: map[ParticipantID]NetPosition{"A": -250, "B": 0, "C": 250},
			want: []Transfer{
				{From: "A", To: "C", Amount: 250},
			},
		},
		{
			name:      "equal outstanding broken by id",
			positions: map[ParticipantID]NetPosition{"zed": -100, "amy": -100, "pat": 200},
			want: []Transfer{
				{From: "amy", To: "pat", Amount: 100},
				{From: "zed", To: "pat", Amount: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(tt.positions)
			if err != nil {
				t.Fatalf("Simplify() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Simplify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimplifyUnbalanced(t *testing.T) {
	_, err := Simplify(map[ParticipantID]NetPosition{"A": -500, "B": 300})

	var unbalanced *UnbalancedInputError
	if !errors.As(err, &unbalanced) {
		t.Fatalf("Simplify() error = %v, want UnbalancedInputError", err)
	}
	if unbalanced.Sum != -200 {
		t.Errorf("Sum = %d, want -200", unbalanced.Sum)
	}
}

func TestSimplifyWithTolerance(t *testing.T) {
	positions := map[ParticipantID]NetPosition{"A": -501, "B": 500}

	if _, err := Simplify(positions); err == nil {
		t.Fatal("Simplify() should reject a 1-unit residue at zero tolerance")
	}

	transfers, err := SimplifyWithTolerance(positions, 1)
	if err != nil {
		t.Fatalf("SimplifyWithTolerance() error = %v", err)
	}
	want := []Transfer{{From: "A", To: "B", Amount: 500}}
	if !reflect.DeepEqual(transfers, want) {
		t.Errorf("SimplifyWithTolerance() = %v, want %v", transfers, want)
	}
}

// Settlement conservation: applying the transfers must zero out every
// participant's position.
func TestSimplifyConservation(t *testing.T) {
	positions := map[ParticipantID]NetPosition{
		"a": -1250, "b": 400, "c": -730, "d": 2000, "e": -420, "f": 0,
	}

	transfers, err := Simplify(positions)
	if err != nil {
		t.Fatalf("Simplify() error = %v", err)
	}

	applied := make(map[ParticipantID]int64)
	for _, tr := range transfers {
		if tr.Amount <= 0 {
			t.Errorf("non-positive transfer amount %d", tr.Amount)
		}
		applied[tr.From] += tr.Amount
		applied[tr.To] -= tr.Amount
	}
	for id, pos := range positions {
		if applied[id] != pos {
			t.Errorf("transfers move %d for %s, want %d", applied[id], id, pos)
		}
	}
}

// len(transfers) <= non-zero positions - 1.
func TestSimplifyTransferBound(t *testing.T) {
	tests := []map[ParticipantID]NetPosition{
		{"a": -1, "b": 1},
		{"a": -10, "b": -20, "c": -30, "d": 60},
		{"a": -5, "b": 5, "c": -7, "d": 7, "e": -9, "f": 9},
		{"a": 0, "b": 0},
		{},
	}

	for _, positions := range tests {
		transfers, err := Simplify(positions)
		if err != nil {
			t.Fatalf("Simplify() error = %v", err)
		}

		nonZero := 0
		for _, pos := range positions {
			if pos != 0 {
				nonZero++
			}
		}
		bound := nonZero - 1
		if bound < 0 {
			bound = 0
		}
		if len(transfers) > bound {
			t.Errorf("%d transfers for %d non-zero positions, bound %d", len(transfers), nonZero, bound)
		}
	}
}

// Simplify must not leak map iteration order into its output.
func TestSimplifyDeterministic(t *testing.T) {
	build := func() map[ParticipantID]NetPosition {
		return map[ParticipantID]NetPosition{
			"u1": -300, "u2": 100, "u3": -450, "u4": 650, "u5": -100, "u6": 100,
		}
	}

	first, err := Simplify(build())
	if err != nil {
		t.Fatalf("Simplify() error = %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := Simplify(build())
		if err != nil {
			t.Fatalf("Simplify() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("settlement not deterministic:\nfirst = %v\nagain = %v", first, again)
		}
	}
}
