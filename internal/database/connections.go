package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// CreateConnection persists a new Connection. Kind and Payload are never
// mutated after creation — a changed data source is a new Connection.
func (db *DB) CreateConnection(ctx context.Context, ownerUserID uuid.UUID, kind models.ConnectionKind, payload models.ConnectionPayload) (*models.Connection, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput)
	}

	query := `
		INSERT INTO connections (owner_user_id, kind, payload)
		VALUES ($1, $2, $3)
		RETURNING id, owner_user_id, kind, payload, created_at
	`

	var c models.Connection
	var rawPayload []byte
	err = db.QueryRowContext(ctx, query, ownerUserID, kind, payloadJSON).Scan(
		&c.ID, &c.OwnerUserID, &c.Kind, &rawPayload, &c.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	if err := json.Unmarshal(rawPayload, &c.Payload); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return &c, nil
}

// GetConnection retrieves a Connection by id.
func (db *DB) GetConnection(ctx context.Context, connectionID uuid.UUID) (*models.Connection, error) {
	query := `
		SELECT id, owner_user_id, kind, payload, created_at
		FROM connections
		WHERE id = $1
	`

	var c models.Connection
	var rawPayload []byte
	err := db.QueryRowContext(ctx, query, connectionID).Scan(
		&c.ID, &c.OwnerUserID, &c.Kind, &rawPayload, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrResourceNotFound, "Connection not found")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	if err := json.Unmarshal(rawPayload, &c.Payload); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return &c, nil
}

// ListUserConnections lists every Connection owned by a user.
func (db *DB) ListUserConnections(ctx context.Context, ownerUserID uuid.UUID) ([]models.Connection, error) {
	query := `
		SELECT id, owner_user_id, kind, payload, created_at
		FROM connections
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()

	var connections []models.Connection
	for rows.Next() {
		var c models.Connection
		var rawPayload []byte
		if err := rows.Scan(&c.ID, &c.OwnerUserID, &c.Kind, &rawPayload, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		if err := json.Unmarshal(rawPayload, &c.Payload); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}

// CheckConnectionOwnership verifies a user owns a connection.
func (db *DB) CheckConnectionOwnership(ctx context.Context, connectionID, ownerUserID uuid.UUID) error {
	query := `SELECT id FROM connections WHERE id = $1 AND owner_user_id = $2`
	var id uuid.UUID
	err := db.QueryRowContext(ctx, query, connectionID, ownerUserID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.New(errors.ErrUnauthorized, "Access denied to connection")
		}
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

// DeleteConnection removes a connection. Agents referencing it via a FK
// must be deleted first — the caller is responsible for that ordering, the
// core never cascades across the connection/agent boundary silently.
func (db *DB) DeleteConnection(ctx context.Context, connectionID uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, connectionID)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	if rowsAffected == 0 {
		return errors.New(errors.ErrResourceNotFound, "Connection not found")
	}
	return nil
}
