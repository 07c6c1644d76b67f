package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// CreateMessagePair inserts the user and assistant messages for one
// exchange under a single transaction, per spec.md §4.6's capture
// contract. sequence_order is read under the row lock of the owning
// chat_sessions row (FOR UPDATE) so two concurrent captures on the same
// session can never race onto the same sequence number.
func (db *DB) CreateMessagePair(ctx context.Context, chatSessionID uuid.UUID, runID *uuid.UUID, userText, assistantText, sqlQuery string) (*models.Message, *models.Message, error) {
	var userMsg, assistantMsg *models.Message

	err := db.Transaction(func(tx *sql.Tx) error {
		var lockedID uuid.UUID
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM chat_sessions WHERE id = $1 FOR UPDATE`, chatSessionID,
		).Scan(&lockedID); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseError)
		}

		var maxSeq sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(sequence_order) FROM messages WHERE chat_session_id = $1`, chatSessionID,
		).Scan(&maxSeq); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseError)
		}
		next := int(maxSeq.Int64) + 1

		um, err := insertMessage(ctx, tx, chatSessionID, runID, models.RoleUser, userText, "", next)
		if err != nil {
			return err
		}
		userMsg = um

		am, err := insertMessage(ctx, tx, chatSessionID, runID, models.RoleAssistant, assistantText, sqlQuery, next+1)
		if err != nil {
			return err
		}
		assistantMsg = am

		return db.BumpActivity(ctx, tx, chatSessionID, 2)
	})

	if err != nil {
		return nil, nil, err
	}
	return userMsg, assistantMsg, nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, chatSessionID uuid.UUID, runID *uuid.UUID, role models.MessageRole, content, sqlQuery string, seq int) (*models.Message, error) {
	query := `
		INSERT INTO messages (chat_session_id, run_id, role, content, sql_query, sequence_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, chat_session_id, run_id, role, content, sql_query, sequence_order, created_at
	`

	var m models.Message
	var sqlVal sql.NullString
	var runVal uuid.NullUUID
	err := tx.QueryRowContext(ctx, query, chatSessionID, nullUUID(runID), role, content, StringToNullString(sqlQuery), seq).Scan(
		&m.ID, &m.ChatSessionID, &runVal, &m.Role, &m.Content, &sqlVal, &m.SequenceOrder, &m.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	m.SQLQuery = NullStringToString(sqlVal)
	if runVal.Valid {
		m.RunID = &runVal.UUID
	}
	return &m, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// RecentMessages returns the last n messages of a session ordered by
// sequence_order ascending — C3's recent() operation.
func (db *DB) RecentMessages(ctx context.Context, chatSessionID uuid.UUID, n int) ([]models.Message, error) {
	query := `
		SELECT id, chat_session_id, run_id, role, content, sql_query, sequence_order, created_at, metadata
		FROM messages
		WHERE chat_session_id = $1
		ORDER BY sequence_order DESC
		LIMIT $2
	`
	rows, err := db.QueryContext(ctx, query, chatSessionID, n)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MessagesForUserAgent returns the most recent limit messages across every
// chat session belonging to (userID, agentID) — the candidate pool for C3's
// lexical fallback.
func (db *DB) MessagesForUserAgent(ctx context.Context, userID, agentID uuid.UUID, limit int) ([]models.Message, error) {
	query := `
		SELECT m.id, m.chat_session_id, m.run_id, m.role, m.content, m.sql_query, m.sequence_order, m.created_at, m.metadata
		FROM messages m
		JOIN chat_sessions cs ON cs.id = m.chat_session_id
		WHERE cs.user_id = $1 AND cs.agent_id = $2
		ORDER BY m.created_at DESC
		LIMIT $3
	`
	rows, err := db.QueryContext(ctx, query, userID, agentID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var sqlVal sql.NullString
		var runVal uuid.NullUUID
		var metadataStr sql.NullString
		if err := rows.Scan(&m.ID, &m.ChatSessionID, &runVal, &m.Role, &m.Content, &sqlVal, &m.SequenceOrder, &m.CreatedAt, &metadataStr); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		m.SQLQuery = NullStringToString(sqlVal)
		if runVal.Valid {
			m.RunID = &runVal.UUID
		}
		if metadataStr.Valid && metadataStr.String != "" {
			if err := json.Unmarshal([]byte(metadataStr.String), &m.Metadata); err != nil {
				return nil, errors.Wrap(err, errors.ErrDatabaseError)
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MessagesByIDs fetches messages by id, used by the vector-search path to
// hydrate full Message records for the ids pgvector's nearest-neighbour
// query returned.
func (db *DB) MessagesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, chat_session_id, run_id, role, content, sql_query, sequence_order, created_at, metadata
		FROM messages WHERE id = ANY($1)
	`, pq.Array(uuidArray(ids)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func uuidArray(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
