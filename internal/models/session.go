package models

// Session represents one splitting session: a set of priced line items,
// how each is divided, and the payments recorded against the total.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string

	// Title is the human-readable name for the session.
	// Auto-generated from participants when left empty.
	Title string

	// GroupID is the owning group, empty for ad-hoc sessions.
	GroupID string

	// Participants is the list of participant ids splitting this session.
	Participants []string

	// Items are the priced charges in this session.
	Items []LineItem

	// Payments are the contributions recorded so far.
	Payments []Payment

	// CreatedAt is the Unix timestamp when the session was created.
	CreatedAt int64
}

// LineItem is a single priced charge on a session.
type LineItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Description is the name of the charge (e.g., "Pizza", "Hotel night").
	Description string

	// Price is the per-unit price in the smallest currency unit.
	Price int64

	// Quantity is the number of units, at least 1.
	Quantity int64

	// Policy is the split policy: "equal", "percentage" or "fixed".
	Policy string

	// Participants is the list of participant ids included in this item.
	Participants []string

	// Assignments carry per-participant weights or amounts, depending
	// on the policy. Empty under the equal policy.
	Assignments []ShareAssignment
}

// ShareAssignment is the per-participant input for one line item.
type ShareAssignment struct {
	// Participant is the participant id this assignment applies to.
	Participant string

	// Weight is the percentage weight under the percentage policy.
	Weight int64

	// Amount is the fixed share in the smallest currency unit under the
	// fixed-amount policy.
	Amount int64
}

// Payment records money a participant contributed toward the session.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// Participant is the participant id who paid.
	Participant string

	// Amount is the paid amount in the smallest currency unit.
	Amount int64

	// PaidAt is the Unix timestamp of the payment.
	PaidAt int64
}
