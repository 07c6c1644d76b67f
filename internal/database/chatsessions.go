package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

func nowTitleStamp() string {
	return time.Now().Format("2006-01-02 15:04")
}

// CreateChatSession creates a new chat session for a (user, agent) pair
func (db *DB) CreateChatSession(ctx context.Context, userID, agentID uuid.UUID, title string) (*models.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (user_id, agent_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, agent_id, title, created_at, last_activity, total_messages, status, context_summary
	`

	var cs models.ChatSession
	var contextSummary sql.NullString
	err := db.QueryRowContext(ctx, query, userID, agentID, title).Scan(
		&cs.ID, &cs.UserID, &cs.AgentID, &cs.Title,
		&cs.CreatedAt, &cs.LastActivity, &cs.TotalMessages, &cs.Status, &contextSummary,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	cs.ContextSummary = NullStringToString(contextSummary)
	return &cs, nil
}

// GetChatSession retrieves a chat session by ID
func (db *DB) GetChatSession(ctx context.Context, sessionID uuid.UUID) (*models.ChatSession, error) {
	query := `
		SELECT id, user_id, agent_id, title, created_at, last_activity, total_messages, status, context_summary
		FROM chat_sessions
		WHERE id = $1
	`

	var cs models.ChatSession
	var contextSummary sql.NullString
	err := db.QueryRowContext(ctx, query, sessionID).Scan(
		&cs.ID, &cs.UserID, &cs.AgentID, &cs.Title,
		&cs.CreatedAt, &cs.LastActivity, &cs.TotalMessages, &cs.Status, &contextSummary,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrSessionNotFound, "Chat session not found")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	cs.ContextSummary = NullStringToString(contextSummary)
	return &cs, nil
}

// GetUserChatSessions retrieves chat sessions for a user, ordered by last_activity desc
func (db *DB) GetUserChatSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ChatSession, error) {
	query := `
		SELECT id, user_id, agent_id, title, created_at, last_activity, total_messages, status, context_summary
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY last_activity DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var cs models.ChatSession
		var contextSummary sql.NullString
		if err := rows.Scan(
			&cs.ID, &cs.UserID, &cs.AgentID, &cs.Title,
			&cs.CreatedAt, &cs.LastActivity, &cs.TotalMessages, &cs.Status, &contextSummary,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		cs.ContextSummary = NullStringToString(contextSummary)
		sessions = append(sessions, cs)
	}

	return sessions, rows.Err()
}

// GetAgentChatSessions returns the chat sessions created against a single
// agent, newest activity first — spec.md §6's `/agents/{id}/chat-sessions`.
func (db *DB) GetAgentChatSessions(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]models.ChatSession, error) {
	query := `
		SELECT id, user_id, agent_id, title, created_at, last_activity, total_messages, status, context_summary
		FROM chat_sessions
		WHERE agent_id = $1
		ORDER BY last_activity DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := db.QueryContext(ctx, query, agentID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var cs models.ChatSession
		var contextSummary sql.NullString
		if err := rows.Scan(
			&cs.ID, &cs.UserID, &cs.AgentID, &cs.Title,
			&cs.CreatedAt, &cs.LastActivity, &cs.TotalMessages, &cs.Status, &contextSummary,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		cs.ContextSummary = NullStringToString(contextSummary)
		sessions = append(sessions, cs)
	}

	return sessions, rows.Err()
}

// UpdateChatSessionTitle updates a chat session's title
func (db *DB) UpdateChatSessionTitle(ctx context.Context, sessionID uuid.UUID, title string) error {
	query := `UPDATE chat_sessions SET title = $2 WHERE id = $1`
	result, err := db.ExecContext(ctx, query, sessionID, title)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	if rowsAffected == 0 {
		return errors.New(errors.ErrSessionNotFound, "Chat session not found")
	}
	return nil
}

// DeleteChatSession removes a chat session and, via the schema's
// ON DELETE CASCADE on messages.chat_session_id, its message history.
func (db *DB) DeleteChatSession(ctx context.Context, sessionID uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	if rowsAffected == 0 {
		return errors.New(errors.ErrSessionNotFound, "Chat session not found")
	}
	return nil
}

// CheckChatSessionOwnership verifies if a user owns a chat session
func (db *DB) CheckChatSessionOwnership(ctx context.Context, sessionID, userID uuid.UUID) error {
	query := `SELECT id FROM chat_sessions WHERE id = $1 AND user_id = $2`
	var id uuid.UUID
	err := db.QueryRowContext(ctx, query, sessionID, userID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.New(errors.ErrUnauthorized, "Access denied to chat session")
		}
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

// BumpActivity increments total_messages by delta and sets last_activity to
// now. Used by the history store's capture step after a message pair write.
func (db *DB) BumpActivity(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID, delta int) error {
	query := `
		UPDATE chat_sessions
		SET total_messages = total_messages + $2, last_activity = NOW()
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, sessionID, delta)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

// GenerateChatSessionTitle builds a time-stamped title for a session
// synthesised by the Run Controller (spec.md §4.5), or truncates the first
// user message when one is available.
func GenerateChatSessionTitle(firstMessage string) string {
	if firstMessage == "" {
		return "Session " + nowTitleStamp()
	}
	const maxLength = 50
	if len(firstMessage) > maxLength {
		return firstMessage[:maxLength] + "..."
	}
	return firstMessage
}
