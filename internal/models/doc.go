// Package models defines the persisted domain records for Splitly.
//
// # Models
//
//   - User: registered account (email + password hash)
//   - Group: reusable participant list that owns sessions
//   - Session: one splitting session — line items, assignments, payments
//   - LineItem / ShareAssignment / Payment: the rows a session is built from
//   - Settlement: a recorded transfer between participants
//
// # Design Principles
//
// Models are plain records: string UUIDs for identity, unix timestamps,
// ID strings instead of pointers for relationships. Monetary fields are
// integers in the smallest currency unit; the API boundary converts to
// and from decimal strings.
//
// The computational value types (net positions, transfers, resolved
// shares) live in internal/calculator. Models feed the calculator; they
// never embed its results.
package models
