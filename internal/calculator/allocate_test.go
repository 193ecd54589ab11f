package calculator

import (
	"errors"
	"reflect"
	"testing"
)

func sumShares(shares []ParticipantShare) int64 {
	var sum int64
	for _, s := range shares {
		sum += s.Amount
	}
	return sum
}

func TestAllocateEqual(t *testing.T) {
	tests := []struct {
		name    string
		item    LineItem
		want    map[ParticipantID]int64
		wantErr bool
	}{
		{
			name: "exact division",
			item: LineItem{ID: "i1", Price: 9000, Quantity: 1, Policy: SplitEqual, Participants: []ParticipantID{"alice", "bob", "carol"}},
			want: map[ParticipantID]int64{"alice": 3000, "bob": 3000, "carol": 3000},
		},
		{
			name: "first participant in id order absorbs the extra cent",
			item: LineItem{ID: "i2", Price: 10000, Quantity: 1, Policy: SplitEqual, Participants: []ParticipantID{"carol", "alice", "bob"}},
			want: map[ParticipantID]int64{"alice": 3334, "bob": 3333, "carol": 3333},
		},
		{
			name: "quantity multiplies the total",
			item: LineItem{ID: "i3", Price: 250, Quantity: 4, Policy: SplitEqual, Participants: []ParticipantID{"a", "b"}},
			want: map[ParticipantID]int64{"a": 500, "b": 500},
		},
		{
			name: "single participant takes everything",
			item: LineItem{ID: "i4", Price: 777, Quantity: 1, Policy: SplitEqual, Participants: []ParticipantID{"solo"}},
			want: map[ParticipantID]int64{"solo": 777},
		},
		{
			name:    "empty participant set",
			item:    LineItem{ID: "i5", Price: 100, Quantity: 1, Policy: SplitEqual},
			wantErr: true,
		},
		{
			name:    "non-positive price",
			item:    LineItem{ID: "i6", Price: 0, Quantity: 1, Policy: SplitEqual, Participants: []ParticipantID{"a"}},
			wantErr: true,
		},
		{
			name:    "non-positive quantity",
			item:    LineItem{ID: "i7", Price: 100, Quantity: 0, Policy: SplitEqual, Participants: []ParticipantID{"a"}},
			wantErr: true,
		},
		{
			name:    "duplicate participant",
			item:    LineItem{ID: "i8", Price: 100, Quantity: 1, Policy: SplitEqual, Participants: []ParticipantID{"a", "a"}},
			wantErr: true,
		},
		{
			name:    "unknown policy",
			item:    LineItem{ID: "i9", Price: 100, Quantity: 1, Policy: "weighted", Participants: []ParticipantID{"a"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Allocate(tt.item, nil)
			if tt.wantErr {
				var invalid *InvalidSplitError
				if !errors.As(err, &invalid) {
					t.Fatalf("Allocate() error = %v, want InvalidSplitError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}

			if got := sumShares(shares); got != tt.item.Total() {
				t.Errorf("shares sum = %d, want %d", got, tt.item.Total())
			}
			for _, s := range shares {
				if s.Amount < 0 {
					t.Errorf("negative share %d for %s", s.Amount, s.Participant)
				}
				if want, ok := tt.want[s.Participant]; !ok || want != s.Amount {
					t.Errorf("share for %s = %d, want %d", s.Participant, s.Amount, want)
				}
			}
			if len(shares) != len(tt.want) {
				t.Errorf("got %d shares, want %d", len(shares), len(tt.want))
			}
		})
	}
}

func TestAllocatePercentage(t *testing.T) {
	tests := []struct {
		name        string
		item        LineItem
		assignments []ShareAssignment
		want        map[ParticipantID]int64
		wantErr     bool
	}{
		{
			name: "weights summing to 100",
			item: LineItem{ID: "p1", Price: 10000, Quantity: 1, Policy: SplitPercentage, Participants: []ParticipantID{"alice", "bob"}},
			assignments: []ShareAssignment{
				{Participant: "alice", Weight: 70},
				{Participant: "bob", Weight: 30},
			},
			want: map[ParticipantID]int64{"alice": 7000, "bob": 3000},
		},
		{
			name: "weights normalized when they do not sum to 100",
			item: LineItem{ID: "p2", Price: 9000, Quantity: 1, Policy: SplitPercentage, Participants: []ParticipantID{"alice", "bob", "carol"}},
			assignments: []ShareAssignment{
				{Participant: "alice", Weight: 40},
				{Participant: "bob", Weight: 40},
				{Participant: "carol", Weight: 40},
			},
			want: map[ParticipantID]int64{"alice": 3000, "bob": 3000, "carol": 3000},
		},
		{
			name: "largest remainder gets the leftover unit",
			item: LineItem{ID: "p3", Price: 100, Quantity: 1, Policy: SplitPercentage, Participants: []ParticipantID{"a", "b", "c"}},
			assignments: []ShareAssignment{
				{Participant: "a", Weight: 2},
				{Participant: "b", Weight: 3},
				{Participant: "c", Weight: 3},
			},
			want: map[ParticipantID]int64{"a": 25, "b": 38, "c": 37},
		},
		{
			name: "unassigned participant carries weight zero",
			item: LineItem{ID: "p4", Price: 1000, Quantity: 1, Policy: SplitPercentage, Participants: []ParticipantID{"a", "b"}},
			assignments: []ShareAssignment{
				{Participant: "a", Weight: 50},
			},
			want: map[ParticipantID]int64{"a": 1000, "b": 0},
		},
		{
			name: "negative weight",
			item: LineItem{ID: "p5", Price: 1000, Quantity: 1, Policy: SplitPercentage, Participants: []ParticipantID{"a", "b"}},
			assignments: []ShareAssignment{
				{Participant: "a", Weight: -10},
				{Participant: "b", Weight: 110},
			},
			wantErr: true,
		},
		{
			name:        "all weights zero",
			item:        LineItem{ID: "p6", Price: 1000, Quantity: 1, Policy: SplitPercentage, Participants: []ParticipantID{"a", "b"}},
			assignments: nil,
			wantErr:     true,
		},
		{
			name: "assignment for non-included participant",
			item: LineItem{ID: "p7", Price: 1000, Quantity: 1, Policy: SplitPercentage, Participants: []ParticipantID{"a"}},
			assignments: []ShareAssignment{
				{Participant: "stranger", Weight: 100},
			},
			wantErr: true,
		},
		{
			name: "duplicate assignment",
			item: LineItem{ID: "p8", Price: 1000, Quantity: 1, Policy: SplitPercentage, Participants: []ParticipantID{"a", "b"}},
			assignments: []ShareAssignment{
				{Participant: "a", Weight: 50},
				{Participant: "a", Weight: 50},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Allocate(tt.item, tt.assignments)
			if tt.wantErr {
				var invalid *InvalidSplitError
				if !errors.As(err, &invalid) {
					t.Fatalf("Allocate() error = %v, want InvalidSplitError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}

			if got := sumShares(shares); got != tt.item.Total() {
				t.Errorf("shares sum = %d, want %d", got, tt.item.Total())
			}
			for _, s := range shares {
				if want := tt.want[s.Participant]; want != s.Amount {
					t.Errorf("share for %s = %d, want %d", s.Participant, s.Amount, want)
				}
			}
		})
	}
}

func TestAllocateFixedAmount(t *testing.T) {
	tests := []struct {
		name        string
		item        LineItem
		assignments []ShareAssignment
		want        map[ParticipantID]int64
		wantErr     bool
	}{
		{
			name: "amounts matching the total are taken as given",
			item: LineItem{ID: "f1", Price: 1000, Quantity: 1, Policy: SplitFixedAmount, Participants: []ParticipantID{"a", "b"}},
			assignments: []ShareAssignment{
				{Participant: "a", Amount: 600},
				{Participant: "b", Amount: 400},
			},
			want: map[ParticipantID]int64{"a": 600, "b": 400},
		},
		{
			name: "shortfall lands on the last participant in id order",
			item: LineItem{ID: "f2", Price: 1000, Quantity: 1, Policy: SplitFixedAmount, Participants: []ParticipantID{"carol", "alice", "bob"}},
			assignments: []ShareAssignment{
				{Participant: "alice", Amount: 300},
				{Participant: "bob", Amount: 300},
				{Participant: "carol", Amount: 300},
			},
			want: map[ParticipantID]int64{"alice": 300, "bob": 300, "carol": 400},
		},
		{
			name: "excess is deducted from the last participant",
			item: LineItem{ID: "f3", Price: 1000, Quantity: 1, Policy: SplitFixedAmount, Participants: []ParticipantID{"a", "b"}},
			assignments: []ShareAssignment{
				{Participant: "a", Amount: 700},
				{Participant: "b", Amount: 500},
			},
			want: map[ParticipantID]int64{"a": 700, "b": 300},
		},
		{
			name: "missing assignments default to zero",
			item: LineItem{ID: "f4", Price: 900, Quantity: 1, Policy: SplitFixedAmount, Participants: []ParticipantID{"a", "b"}},
			assignments: []ShareAssignment{
				{Participant: "a", Amount: 200},
			},
			want: map[ParticipantID]int64{"a": 200, "b": 700},
		},
		{
			name: "negative amount",
			item: LineItem{ID: "f5", Price: 1000, Quantity: 1, Policy: SplitFixedAmount, Participants: []ParticipantID{"a", "b"}},
			assignments: []ShareAssignment{
				{Participant: "a", Amount: -100},
			},
			wantErr: true,
		},
		{
			name: "excess would push the last share below zero",
			item: LineItem{ID: "f6", Price: 1000, Quantity: 1, Policy: SplitFixedAmount, Participants: []ParticipantID{"a", "b"}},
			assignments: []ShareAssignment{
				{Participant: "a", Amount: 1500},
				{Participant: "b", Amount: 100},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Allocate(tt.item, tt.assignments)
			if tt.wantErr {
				var invalid *InvalidSplitError
				if !errors.As(err, &invalid) {
					t.Fatalf("Allocate() error = %v, want InvalidSplitError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}

			if got := sumShares(shares); got != tt.item.Total() {
				t.Errorf("shares sum = %d, want %d", got, tt.item.Total())
			}
			for _, s := range shares {
				if s.Amount < 0 {
					t.Errorf("negative share %d for %s", s.Amount, s.Participant)
				}
				if want := tt.want[s.Participant]; want != s.Amount {
					t.Errorf("share for %s = %d, want %d", s.Participant, s.Amount, want)
				}
			}
		})
	}
}

// Conservation must hold for every policy across participant-set sizes.
func TestAllocateConservation(t *testing.T) {
	ids := []ParticipantID{"p01", "p02", "p03", "p04", "p05", "p06", "p07", "p08", "p09", "p10"}
	totals := []int64{1, 7, 99, 100, 101, 9999, 10000, 123457}

	for n := 1; n <= len(ids); n++ {
		participants := ids[:n]

		for _, price := range totals {
			item := LineItem{ID: "c", Price: price, Quantity: 1, Participants: participants}

			item.Policy = SplitEqual
			shares, err := Allocate(item, nil)
			if err != nil {
				t.Fatalf("equal n=%d price=%d: %v", n, price, err)
			}
			if sumShares(shares) != price {
				t.Errorf("equal n=%d price=%d: sum %d", n, price, sumShares(shares))
			}

			item.Policy = SplitPercentage
			assignments := make([]ShareAssignment, n)
			for i, id := range participants {
				assignments[i] = ShareAssignment{Participant: id, Weight: int64(i + 1)}
			}
			shares, err = Allocate(item, assignments)
			if err != nil {
				t.Fatalf("percentage n=%d price=%d: %v", n, price, err)
			}
			if sumShares(shares) != price {
				t.Errorf("percentage n=%d price=%d: sum %d", n, price, sumShares(shares))
			}
		}
	}
}

// Identical inputs must produce identical outputs, independent of the
// order participants and assignments are supplied in.
func TestAllocateDeterministic(t *testing.T) {
	item := LineItem{ID: "d", Price: 10001, Quantity: 3, Policy: SplitPercentage, Participants: []ParticipantID{"bob", "alice", "carol"}}
	assignments := []ShareAssignment{
		{Participant: "carol", Weight: 17},
		{Participant: "alice", Weight: 41},
		{Participant: "bob", Weight: 29},
	}

	first, err := Allocate(item, assignments)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	shuffled := LineItem{ID: "d", Price: 10001, Quantity: 3, Policy: SplitPercentage, Participants: []ParticipantID{"carol", "bob", "alice"}}
	for i := 0; i < 20; i++ {
		again, err := Allocate(shuffled, assignments)
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("allocation not deterministic:\nfirst = %v\nagain = %v", first, again)
		}
	}
}
