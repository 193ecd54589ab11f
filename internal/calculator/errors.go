package calculator

import (
	"fmt"

	"github.com/splitlyhq/splitly/internal/money"
)

// InvalidSplitError reports malformed split input: an empty participant
// set, a negative weight or amount, an unknown policy, or an assignment
// for a participant the item does not include.
type InvalidSplitError struct {
	ItemID string
	Reason string
}

func (e *InvalidSplitError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("invalid split: %s", e.Reason)
	}
	return fmt.Sprintf("invalid split for item %s: %s", e.ItemID, e.Reason)
}

// UnknownParticipantError reports a share or payment referencing a
// participant absent from the known participant set. This signals a
// data-entry bug in the upstream CRUD layer and is surfaced rather than
// silently dropped.
type UnknownParticipantError struct {
	Participant ParticipantID
	Source      string // "share", "payment" or "settlement"
}

func (e *UnknownParticipantError) Error() string {
	return fmt.Sprintf("%s references unknown participant %q", e.Source, string(e.Participant))
}

// UnbalancedInputError reports net positions that do not sum to zero
// within the configured tolerance. It indicates an allocator/aggregator
// bug or corrupted upstream data; the computation fails closed.
type UnbalancedInputError struct {
	Sum       money.Amount
	Tolerance money.Amount
}

func (e *UnbalancedInputError) Error() string {
	return fmt.Sprintf("net positions sum to %d, want 0 (tolerance %d)", e.Sum, e.Tolerance)
}
