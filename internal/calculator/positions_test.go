package calculator

import (
	"errors"
	"testing"
)

func TestComputeNetPositions(t *testing.T) {
	participants := []Participant{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
	}

	tests := []struct {
		name     string
		shares   []ParticipantShare
		payments []Payment
		want     map[ParticipantID]NetPosition
		wantErr  error
	}{
		{
			name: "payer is owed, others owe",
			shares: []ParticipantShare{
				{ItemID: "i1", Participant: "alice", Amount: 400},
				{ItemID: "i1", Participant: "bob", Amount: 300},
				{ItemID: "i1", Participant: "carol", Amount: 300},
			},
			payments: []Payment{
				{Participant: "alice", Amount: 1000},
			},
			want: map[ParticipantID]NetPosition{"alice": 600, "bob": -300, "carol": -300},
		},
		{
			name: "multiple payments accumulate",
			shares: []ParticipantShare{
				{ItemID: "i1", Participant: "alice", Amount: 500},
				{ItemID: "i2", Participant: "alice", Amount: 250},
				{ItemID: "i1", Participant: "bob", Amount: 250},
			},
			payments: []Payment{
				{Participant: "alice", Amount: 300},
				{Participant: "alice", Amount: 200},
				{Participant: "bob", Amount: 500},
			},
			want: map[ParticipantID]NetPosition{"alice": -250, "bob": 250, "carol": 0},
		},
		{
			name:     "no activity yields all-zero positions",
			shares:   nil,
			payments: nil,
			want:     map[ParticipantID]NetPosition{"alice": 0, "bob": 0, "carol": 0},
		},
		{
			name: "share for unknown participant fails closed",
			shares: []ParticipantShare{
				{ItemID: "i1", Participant: "mallory", Amount: 100},
			},
			wantErr: &UnknownParticipantError{},
		},
		{
			name: "payment from unknown participant fails closed",
			payments: []Payment{
				{Participant: "mallory", Amount: 100},
			},
			wantErr: &UnknownParticipantError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeNetPositions(participants, tt.shares, tt.payments)
			if tt.wantErr != nil {
				var unknown *UnknownParticipantError
				if !errors.As(err, &unknown) {
					t.Fatalf("ComputeNetPositions() error = %v, want UnknownParticipantError", err)
				}
				if got != nil {
					t.Error("expected no partial result on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeNetPositions() error = %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("got %d positions, want %d", len(got), len(tt.want))
			}
			for id, pos := range tt.want {
				if got[id] != pos {
					t.Errorf("position for %s = %d, want %d", id, got[id], pos)
				}
			}
		})
	}
}

// For a fully allocated and fully paid session the positions conserve
// money: they sum to zero.
func TestComputeNetPositionsConservation(t *testing.T) {
	participants := []Participant{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	item := LineItem{ID: "i1", Price: 10007, Quantity: 3, Policy: SplitEqual, Participants: []ParticipantID{"a", "b", "c", "d"}}
	shares, err := Allocate(item, nil)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	payments := []Payment{{Participant: "b", Amount: item.Total()}}

	positions, err := ComputeNetPositions(participants, shares, payments)
	if err != nil {
		t.Fatalf("ComputeNetPositions() error = %v", err)
	}

	var sum int64
	for _, pos := range positions {
		sum += pos
	}
	if sum != 0 {
		t.Errorf("positions sum = %d, want 0", sum)
	}
}
