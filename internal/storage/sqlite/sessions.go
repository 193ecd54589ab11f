package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitlyhq/splitly/internal/models"
)

// CreateSession persists a new session with its items, assignments and
// payments in a single transaction.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	// Generate IDs if not set
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt == 0 {
		session.CreatedAt = time.Now().Unix()
	}
	if session.Title == "" {
		session.Title = generateTitle(session.Participants)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID interface{}
	if session.GroupID != "" {
		groupID = session.GroupID
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sessions (id, title, group_id, created_at) VALUES (?, ?, ?, ?)",
		session.ID, session.Title, groupID, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if err := insertSessionRows(ctx, tx, session); err != nil {
		return err
	}

	for i := range session.Payments {
		payment := &session.Payments[i]
		if err := insertPayment(ctx, tx, session.ID, payment); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insertSessionRows writes the participants, items and assignments for
// a session. The session row itself must already exist.
func insertSessionRows(ctx context.Context, tx *sql.Tx, session *models.Session) error {
	for _, participant := range session.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO session_participants (session_id, participant) VALUES (?, ?)",
			session.ID, participant,
		)
		if err != nil {
			return fmt.Errorf("failed to insert session participant: %w", err)
		}
	}

	for i := range session.Items {
		item := &session.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO items (id, session_id, description, price, quantity, policy) VALUES (?, ?, ?, ?, ?, ?)",
			item.ID, session.ID, item.Description, item.Price, item.Quantity, item.Policy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for _, participant := range item.Participants {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO item_participants (item_id, participant) VALUES (?, ?)",
				item.ID, participant,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item participant: %w", err)
			}
		}

		for _, a := range item.Assignments {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO item_assignments (item_id, participant, weight, amount) VALUES (?, ?, ?, ?)",
				item.ID, a.Participant, a.Weight, a.Amount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}

	return nil
}

func insertPayment(ctx context.Context, tx *sql.Tx, sessionID string, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.PaidAt == 0 {
		payment.PaidAt = time.Now().Unix()
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO payments (id, session_id, participant, amount, paid_at) VALUES (?, ?, ?, ?, ?)",
		payment.ID, sessionID, payment.Participant, payment.Amount, payment.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID, including participants, items,
// assignments and payments.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	var groupID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, group_id, created_at FROM sessions WHERE id = ?",
		sessionID,
	).Scan(&session.ID, &session.Title, &groupID, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if groupID.Valid {
		session.GroupID = groupID.String
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT participant FROM session_participants WHERE session_id = ? ORDER BY participant",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get session participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var participant string
		if err := rows.Scan(&participant); err != nil {
			return nil, fmt.Errorf("failed to scan session participant: %w", err)
		}
		session.Participants = append(session.Participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session participants: %w", err)
	}

	if session.Items, err = s.itemsForSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if session.Payments, err = s.paymentsForSession(ctx, sessionID); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *SQLiteStore) itemsForSession(ctx context.Context, sessionID string) ([]models.LineItem, error) {
	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, description, price, quantity, policy FROM items WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	var items []models.LineItem
	for itemRows.Next() {
		var item models.LineItem
		if err := itemRows.Scan(&item.ID, &item.Description, &item.Price, &item.Quantity, &item.Policy); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	for i := range items {
		item := &items[i]

		participantRows, err := s.db.QueryContext(ctx,
			"SELECT participant FROM item_participants WHERE item_id = ? ORDER BY participant",
			item.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get item participants: %w", err)
		}
		for participantRows.Next() {
			var participant string
			if err := participantRows.Scan(&participant); err != nil {
				participantRows.Close()
				return nil, fmt.Errorf("failed to scan item participant: %w", err)
			}
			item.Participants = append(item.Participants, participant)
		}
		participantRows.Close()
		if err := participantRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate item participants: %w", err)
		}

		assignmentRows, err := s.db.QueryContext(ctx,
			"SELECT participant, weight, amount FROM item_assignments WHERE item_id = ? ORDER BY participant",
			item.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get item assignments: %w", err)
		}
		for assignmentRows.Next() {
			var a models.ShareAssignment
			if err := assignmentRows.Scan(&a.Participant, &a.Weight, &a.Amount); err != nil {
				assignmentRows.Close()
				return nil, fmt.Errorf("failed to scan item assignment: %w", err)
			}
			item.Assignments = append(item.Assignments, a)
		}
		assignmentRows.Close()
		if err := assignmentRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate item assignments: %w", err)
		}
	}

	return items, nil
}

func (s *SQLiteStore) paymentsForSession(ctx context.Context, sessionID string) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, participant, amount, paid_at FROM payments WHERE session_id = ? ORDER BY paid_at, id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.Participant, &p.Amount, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// UpdateSession replaces a session's title, group, participants, items
// and assignments. Payments already recorded are preserved.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *models.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID interface{}
	if session.GroupID != "" {
		groupID = session.GroupID
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE sessions SET title = ?, group_id = ? WHERE id = ?",
		session.Title, groupID, session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %s", session.ID)
	}

	// Items and participants are replaced wholesale; cascading deletes
	// clear item_participants and item_assignments.
	if _, err := tx.ExecContext(ctx, "DELETE FROM session_participants WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("failed to clear session participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	// Re-inserted items need fresh ids to avoid colliding with stale ones.
	for i := range session.Items {
		session.Items[i].ID = ""
	}

	if err := insertSessionRows(ctx, tx, session); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteSession removes a session and all its rows.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

// ListSessionsByGroup retrieves all sessions owned by a group, newest
// first. Items and payments are loaded for each session.
func (s *SQLiteStore) ListSessionsByGroup(ctx context.Context, groupID string) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM sessions WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by group: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	sessions := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// AddPayment records a payment against an existing session.
func (s *SQLiteStore) AddPayment(ctx context.Context, sessionID string, payment *models.Payment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists string
	err = tx.QueryRowContext(ctx, "SELECT id FROM sessions WHERE id = ?", sessionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}

	if err := insertPayment(ctx, tx, sessionID, payment); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
