// Package calculator implements the share-allocation and debt-settlement
// engine: how a priced line item is divided among participants, how shares
// and payments reduce to per-participant net positions, and how those
// positions collapse into a minimal set of transfers.
//
// Every exported function is a pure computation over immutable inputs.
// The package holds no state, performs no I/O, and is safe to call
// concurrently. Callers recompute from scratch whenever upstream data
// changes.
//
// All amounts are integers in the smallest currency unit. Rounding
// remainders are distributed deterministically so that totals always
// reconcile exactly; currency is never silently dropped or invented.
package calculator

import "github.com/splitlyhq/splitly/internal/money"

// ParticipantID identifies a participant. Identity is all the engine
// cares about; names and accounts belong to the caller.
type ParticipantID string

// Participant is a member of a splitting session.
type Participant struct {
	ID   ParticipantID
	Name string
}

// SplitPolicy selects how a line item is divided among its participants.
type SplitPolicy string

const (
	// SplitEqual divides the item total evenly, extra units going to the
	// first participants in id order.
	SplitEqual SplitPolicy = "equal"

	// SplitPercentage divides the item total proportionally to the
	// assigned weights, normalized if they do not sum to 100.
	SplitPercentage SplitPolicy = "percentage"

	// SplitFixedAmount uses the assigned amounts as given; any
	// discrepancy against the item total lands on the last included
	// participant in id order.
	SplitFixedAmount SplitPolicy = "fixed"
)

// Valid reports whether p is one of the known policies.
func (p SplitPolicy) Valid() bool {
	switch p {
	case SplitEqual, SplitPercentage, SplitFixedAmount:
		return true
	}
	return false
}

// LineItem is a single priced charge to be divided.
type LineItem struct {
	ID           string
	Price        money.Amount // per unit, > 0
	Quantity     int64        // > 0
	Policy       SplitPolicy
	Participants []ParticipantID // included participants, non-empty
}

// Total is the full amount to be allocated for the item.
func (it LineItem) Total() money.Amount {
	return it.Price * it.Quantity
}

// ShareAssignment carries the per-participant input for a line item:
// a percentage weight under SplitPercentage, or an amount under
// SplitFixedAmount. SplitEqual needs no assignments.
type ShareAssignment struct {
	Participant ParticipantID
	Weight      int64        // percentage points, 0-100
	Amount      money.Amount // fixed share in minor units
}

// ParticipantShare is one participant's resolved share of one line item.
// For every item, shares over its included participants sum exactly to
// Price * Quantity.
type ParticipantShare struct {
	ItemID      string
	Participant ParticipantID
	Amount      money.Amount
}

// Payment records money a participant actually contributed.
type Payment struct {
	Participant ParticipantID
	Amount      money.Amount
	PaidAt      int64 // unix seconds
}

// NetPosition is a participant's paid-minus-owed balance in minor units.
// Positive means the participant is owed money, negative means they owe.
type NetPosition = int64

// Transfer is a single settlement instruction: From pays To.
type Transfer struct {
	From   ParticipantID
	To     ParticipantID
	Amount money.Amount // always > 0
}
