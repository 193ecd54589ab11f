package calculator

import (
	"fmt"
	"sort"

	"github.com/splitlyhq/splitly/internal/money"
)

// Allocate resolves one line item into per-participant shares according
// to the item's split policy. The returned shares are ordered by
// ascending participant id and sum exactly to item.Price * item.Quantity.
//
// Order-dependent rules (which participant absorbs a rounding remainder
// or a fixed-amount discrepancy) are applied against the participant ids
// sorted ascending, so identical inputs always produce identical outputs
// regardless of the order the caller supplies participants in.
func Allocate(item LineItem, assignments []ShareAssignment) ([]ParticipantShare, error) {
	if len(item.Participants) == 0 {
		return nil, &InvalidSplitError{ItemID: item.ID, Reason: "no included participants"}
	}
	if item.Price <= 0 {
		return nil, &InvalidSplitError{ItemID: item.ID, Reason: fmt.Sprintf("price must be positive, got %d", item.Price)}
	}
	if item.Quantity <= 0 {
		return nil, &InvalidSplitError{ItemID: item.ID, Reason: fmt.Sprintf("quantity must be positive, got %d", item.Quantity)}
	}
	if !item.Policy.Valid() {
		return nil, &InvalidSplitError{ItemID: item.ID, Reason: fmt.Sprintf("unknown split policy %q", string(item.Policy))}
	}

	participants, err := sortedParticipants(item)
	if err != nil {
		return nil, err
	}

	switch item.Policy {
	case SplitEqual:
		return allocateEqual(item, participants), nil
	case SplitPercentage:
		return allocatePercentage(item, participants, assignments)
	default:
		return allocateFixed(item, participants, assignments)
	}
}

// sortedParticipants returns the included participant ids sorted
// ascending, rejecting duplicates (the included set is a set).
func sortedParticipants(item LineItem) ([]ParticipantID, error) {
	ids := make([]ParticipantID, len(item.Participants))
	copy(ids, item.Participants)
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return nil, &InvalidSplitError{ItemID: item.ID, Reason: fmt.Sprintf("duplicate participant %q", string(ids[i]))}
		}
	}
	return ids, nil
}

func allocateEqual(item LineItem, participants []ParticipantID) []ParticipantShare {
	parts := money.SplitEven(item.Total(), len(participants))

	shares := make([]ParticipantShare, len(participants))
	for i, id := range participants {
		shares[i] = ParticipantShare{ItemID: item.ID, Participant: id, Amount: parts[i]}
	}
	return shares
}

func allocatePercentage(item LineItem, participants []ParticipantID, assignments []ShareAssignment) ([]ParticipantShare, error) {
	weightFor, err := assignmentIndex(item, participants, assignments)
	if err != nil {
		return nil, err
	}

	weights := make([]int64, len(participants))
	for i, id := range participants {
		a, ok := weightFor[id]
		if !ok {
			continue // unassigned participants carry weight 0
		}
		if a.Weight < 0 {
			return nil, &InvalidSplitError{ItemID: item.ID, Reason: fmt.Sprintf("negative weight %d for participant %q", a.Weight, string(id))}
		}
		weights[i] = a.Weight
	}

	// Apportion normalizes proportionally, so weights summing to
	// anything other than 100 are handled by the same rule: floor each
	// share, then hand leftover units to the largest fractional
	// remainders.
	parts, err := money.Apportion(item.Total(), weights)
	if err != nil {
		return nil, &InvalidSplitError{ItemID: item.ID, Reason: err.Error()}
	}

	shares := make([]ParticipantShare, len(participants))
	for i, id := range participants {
		shares[i] = ParticipantShare{ItemID: item.ID, Participant: id, Amount: parts[i]}
	}
	return shares, nil
}

func allocateFixed(item LineItem, participants []ParticipantID, assignments []ShareAssignment) ([]ParticipantShare, error) {
	amountFor, err := assignmentIndex(item, participants, assignments)
	if err != nil {
		return nil, err
	}

	shares := make([]ParticipantShare, len(participants))
	var assigned money.Amount
	for i, id := range participants {
		var amount money.Amount
		if a, ok := amountFor[id]; ok {
			if a.Amount < 0 {
				return nil, &InvalidSplitError{ItemID: item.ID, Reason: fmt.Sprintf("negative amount %d for participant %q", a.Amount, string(id))}
			}
			amount = a.Amount
		}
		shares[i] = ParticipantShare{ItemID: item.ID, Participant: id, Amount: amount}
		assigned += amount
	}

	// The assigned total rarely matches the item total to the unit.
	// The discrepancy lands entirely on the last participant in id
	// order: an explicit, deterministic tie-break rather than a silent
	// absorption somewhere in the middle.
	if discrepancy := item.Total() - assigned; discrepancy != 0 {
		last := &shares[len(shares)-1]
		if last.Amount+discrepancy < 0 {
			return nil, &InvalidSplitError{
				ItemID: item.ID,
				Reason: fmt.Sprintf("assigned total %d exceeds item total %d beyond participant %q's share", assigned, item.Total(), string(last.Participant)),
			}
		}
		last.Amount += discrepancy
	}

	return shares, nil
}

// assignmentIndex maps assignments by participant, rejecting references
// to participants the item does not include and duplicate assignments.
func assignmentIndex(item LineItem, participants []ParticipantID, assignments []ShareAssignment) (map[ParticipantID]ShareAssignment, error) {
	included := make(map[ParticipantID]bool, len(participants))
	for _, id := range participants {
		included[id] = true
	}

	index := make(map[ParticipantID]ShareAssignment, len(assignments))
	for _, a := range assignments {
		if !included[a.Participant] {
			return nil, &InvalidSplitError{ItemID: item.ID, Reason: fmt.Sprintf("assignment for participant %q not included in item", string(a.Participant))}
		}
		if _, dup := index[a.Participant]; dup {
			return nil, &InvalidSplitError{ItemID: item.ID, Reason: fmt.Sprintf("duplicate assignment for participant %q", string(a.Participant))}
		}
		index[a.Participant] = a
	}
	return index, nil
}
