package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// CreateAgent persists a new Agent. The caller must have already validated
// SingleTableMode ⇒ SelectedTable != "" (spec.md §3) before calling this;
// the database layer enforces referential integrity only.
func (db *DB) CreateAgent(ctx context.Context, ownerUserID uuid.UUID, a *models.Agent) (*models.Agent, error) {
	flagsJSON, err := json.Marshal(a.Flags)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput)
	}

	query := `
		INSERT INTO agents (owner_user_id, name, connection_id, model_id, top_k, included_tables, flags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, owner_user_id, name, connection_id, model_id, top_k, included_tables, flags, created_at
	`

	var out models.Agent
	var rawFlags []byte
	err = db.QueryRowContext(ctx, query,
		ownerUserID, a.Name, a.ConnectionID, a.ModelID, a.TopK, a.IncludedTables, flagsJSON,
	).Scan(
		&out.ID, &out.OwnerUserID, &out.Name, &out.ConnectionID, &out.ModelID, &out.TopK, &out.IncludedTables, &rawFlags, &out.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	if err := json.Unmarshal(rawFlags, &out.Flags); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return &out, nil
}

// GetAgent retrieves an Agent by id.
func (db *DB) GetAgent(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	query := `
		SELECT id, owner_user_id, name, connection_id, model_id, top_k, included_tables, flags, created_at
		FROM agents
		WHERE id = $1
	`

	var a models.Agent
	var rawFlags []byte
	err := db.QueryRowContext(ctx, query, agentID).Scan(
		&a.ID, &a.OwnerUserID, &a.Name, &a.ConnectionID, &a.ModelID, &a.TopK, &a.IncludedTables, &rawFlags, &a.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrResourceNotFound, "Agent not found")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	if err := json.Unmarshal(rawFlags, &a.Flags); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return &a, nil
}

// ListUserAgents lists every Agent owned by a user.
func (db *DB) ListUserAgents(ctx context.Context, ownerUserID uuid.UUID) ([]models.Agent, error) {
	query := `
		SELECT id, owner_user_id, name, connection_id, model_id, top_k, included_tables, flags, created_at
		FROM agents
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()

	var agents []models.Agent
	for rows.Next() {
		var a models.Agent
		var rawFlags []byte
		if err := rows.Scan(&a.ID, &a.OwnerUserID, &a.Name, &a.ConnectionID, &a.ModelID, &a.TopK, &a.IncludedTables, &rawFlags, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		if err := json.Unmarshal(rawFlags, &a.Flags); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// CheckAgentOwnership verifies a user owns an agent.
func (db *DB) CheckAgentOwnership(ctx context.Context, agentID, ownerUserID uuid.UUID) error {
	query := `SELECT id FROM agents WHERE id = $1 AND owner_user_id = $2`
	var id uuid.UUID
	err := db.QueryRowContext(ctx, query, agentID, ownerUserID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.New(errors.ErrUnauthorized, "Access denied to agent")
		}
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

// UpdateAgentFlags updates only the mutable configuration fields of an
// Agent: name, model_id, top_k, included_tables, flags. ConnectionID is
// immutable once set — binding a different connection is modeled as
// creating a new Agent.
func (db *DB) UpdateAgentFlags(ctx context.Context, agentID uuid.UUID, name, modelID string, topK int, includedTables string, flags models.AgentFlags) error {
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput)
	}

	query := `
		UPDATE agents
		SET name = $2, model_id = $3, top_k = $4, included_tables = $5, flags = $6
		WHERE id = $1
	`
	result, err := db.ExecContext(ctx, query, agentID, name, modelID, topK, includedTables, flagsJSON)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	if rowsAffected == 0 {
		return errors.New(errors.ErrResourceNotFound, "Agent not found")
	}
	return nil
}

// DeleteAgent removes an agent. Chat sessions referencing it via FK must be
// deleted first by the caller.
func (db *DB) DeleteAgent(ctx context.Context, agentID uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM agents WHERE id = $1`, agentID)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	if rowsAffected == 0 {
		return errors.New(errors.ErrResourceNotFound, "Agent not found")
	}
	return nil
}
