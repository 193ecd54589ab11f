// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/splitlyhq/splitly/internal/models"
)

// Store defines the interface for Splitly's storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateUser persists a new user. ID and CreatedAt are assigned by
	// the store when left empty.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	// Returns (nil, nil) when no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by id.
	// Returns (nil, nil) when no such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a new group, assigning ID and CreatedAt.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by id, including its members.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups the given participant is a member
	// of, newest first.
	ListGroups(ctx context.Context, member string) ([]*models.Group, error)

	// UpdateGroup replaces a group's name and member list.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group by id.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddGroupMembers adds members to a group, ignoring existing ones.
	AddGroupMembers(ctx context.Context, groupID string, members []string) error

	// CreateSession persists a session with its items, assignments and
	// payments. IDs and CreatedAt are assigned by the store.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session by id with all its rows.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// UpdateSession replaces a session's title, participants, items and
	// assignments. Recorded payments are preserved.
	UpdateSession(ctx context.Context, session *models.Session) error

	// DeleteSession removes a session and its rows.
	DeleteSession(ctx context.Context, sessionID string) error

	// ListSessionsByGroup retrieves all sessions owned by a group,
	// newest first.
	ListSessionsByGroup(ctx context.Context, groupID string) ([]*models.Session, error)

	// AddPayment records a payment against a session.
	AddPayment(ctx context.Context, sessionID string, payment *models.Payment) error

	// CreateSettlement records a transfer carried out between participants.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByGroup retrieves all settlements for a group,
	// newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
