package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// GetCachedAnswer looks up the durable Postgres cache tier (C8's second
// tier, behind Redis) by (agent_id, fingerprint).
func (db *DB) GetCachedAnswer(ctx context.Context, agentID uuid.UUID, fingerprint string) (*models.CachedAnswer, error) {
	query := `
		SELECT agent_id, fingerprint, answer, sql_used, created_at
		FROM cached_answers
		WHERE agent_id = $1 AND fingerprint = $2
	`

	var c models.CachedAnswer
	var sqlUsed sql.NullString
	err := db.QueryRowContext(ctx, query, agentID, fingerprint).Scan(
		&c.AgentID, &c.Fingerprint, &c.Answer, &sqlUsed, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrResourceNotFound, "Cached answer not found")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	c.SQLUsed = NullStringToString(sqlUsed)
	return &c, nil
}

// PutCachedAnswer upserts a cache entry, overwriting any prior answer for
// the same (agent_id, fingerprint) — a stale hit is replaced, never stacked.
func (db *DB) PutCachedAnswer(ctx context.Context, c *models.CachedAnswer) error {
	query := `
		INSERT INTO cached_answers (agent_id, fingerprint, answer, sql_used)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (agent_id, fingerprint)
		DO UPDATE SET answer = EXCLUDED.answer, sql_used = EXCLUDED.sql_used, created_at = NOW()
	`
	_, err := db.ExecContext(ctx, query, c.AgentID, c.Fingerprint, c.Answer, StringToNullString(c.SQLUsed))
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

// InvalidateAgentCache drops every cached answer belonging to an agent.
// Called by the agent update handler on every agent update, per C8's
// staleness contract (bounded by schema snapshot version change).
func (db *DB) InvalidateAgentCache(ctx context.Context, agentID uuid.UUID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM cached_answers WHERE agent_id = $1`, agentID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCacheError)
	}
	return nil
}

// PutValidationVerdict persists the Validation Harness's (C9) judgement for
// a run. One verdict per run id — a second call overwrites the first.
func (db *DB) PutValidationVerdict(ctx context.Context, v *models.ValidationVerdict) error {
	query := `
		INSERT INTO validation_verdicts (run_id, score, rationale)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id) DO UPDATE SET score = EXCLUDED.score, rationale = EXCLUDED.rationale, created_at = NOW()
	`
	_, err := db.ExecContext(ctx, query, v.RunID, v.Score, v.Rationale)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

// GetValidationVerdict retrieves a run's validation verdict, if one exists.
func (db *DB) GetValidationVerdict(ctx context.Context, runID uuid.UUID) (*models.ValidationVerdict, error) {
	query := `SELECT run_id, score, rationale, created_at FROM validation_verdicts WHERE run_id = $1`
	var v models.ValidationVerdict
	err := db.QueryRowContext(ctx, query, runID).Scan(&v.RunID, &v.Score, &v.Rationale, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrResourceNotFound, "Validation verdict not found")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return &v, nil
}
