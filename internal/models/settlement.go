package models

// Settlement represents a payment between participants to clear debts,
// typically one transfer produced by the settlement engine that the
// group then actually carried out.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// From is the participant id who paid (debtor settling up).
	From string

	// To is the participant id who received payment.
	To string

	// Amount is the settled amount in the smallest currency unit.
	Amount int64

	// Note is an optional description for the settlement.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user id who recorded this settlement.
	CreatedBy string
}
