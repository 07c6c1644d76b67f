package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// CreateRun inserts a new Run in the queued state. The Run Controller
// (internal/runcontroller) is the only caller — it has already resolved or
// synthesized the owning ChatSession.
func (db *DB) CreateRun(ctx context.Context, r *models.Run) (*models.Run, error) {
	query := `
		INSERT INTO runs (agent_id, user_id, chat_session_id, question, task_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, agent_id, user_id, chat_session_id, question, task_id, status, created_at
	`

	var out models.Run
	var chatSessionID uuid.NullUUID
	var taskID sql.NullString
	err := db.QueryRowContext(ctx, query,
		r.AgentID, r.UserID, nullUUID(r.ChatSessionID), r.Question, StringToNullString(r.TaskID), models.RunQueued,
	).Scan(
		&out.ID, &out.AgentID, &out.UserID, &chatSessionID, &out.Question, &taskID, &out.Status, &out.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	if chatSessionID.Valid {
		out.ChatSessionID = &chatSessionID.UUID
	}
	out.TaskID = NullStringToString(taskID)
	return &out, nil
}

// GetRun retrieves a run by id.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error) {
	query := `
		SELECT id, agent_id, user_id, chat_session_id, question, task_id, status,
		       sql_used, result_data, execution_ms, result_rows_count, error_kind,
		       created_at, finished_at
		FROM runs
		WHERE id = $1
	`

	var r models.Run
	var chatSessionID uuid.NullUUID
	var taskID, sqlUsed, resultData, errorKind sql.NullString
	var executionMs sql.NullInt64
	var resultRowsCount sql.NullInt32
	var finishedAt sql.NullTime

	err := db.QueryRowContext(ctx, query, runID).Scan(
		&r.ID, &r.AgentID, &r.UserID, &chatSessionID, &r.Question, &taskID, &r.Status,
		&sqlUsed, &resultData, &executionMs, &resultRowsCount, &errorKind,
		&r.CreatedAt, &finishedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrRunNotFound, "Run not found")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}

	if chatSessionID.Valid {
		r.ChatSessionID = &chatSessionID.UUID
	}
	r.TaskID = NullStringToString(taskID)
	r.SQLUsed = NullStringToString(sqlUsed)
	r.ResultData = NullStringToString(resultData)
	r.ErrorKind = NullStringToString(errorKind)
	if executionMs.Valid {
		r.ExecutionMs = executionMs.Int64
	}
	if resultRowsCount.Valid {
		r.ResultRowsCount = int(resultRowsCount.Int32)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

// RunFilter narrows ListRuns by agent, chat session, and/or status. A zero
// value field means "no filter on that column".
type RunFilter struct {
	AgentID       *uuid.UUID
	ChatSessionID *uuid.UUID
	Status        models.RunStatus
}

// ListRuns returns a paginated, filtered list of a user's runs, newest
// first. page_size is the caller's responsibility to cap at <= 100, per
// spec.md §4.5.
func (db *DB) ListRuns(ctx context.Context, userID uuid.UUID, filter RunFilter, limit, offset int) ([]models.Run, error) {
	query := `
		SELECT id, agent_id, user_id, chat_session_id, question, task_id, status,
		       sql_used, result_data, execution_ms, result_rows_count, error_kind,
		       created_at, finished_at
		FROM runs
		WHERE user_id = $1
		  AND ($2::uuid IS NULL OR agent_id = $2)
		  AND ($3::uuid IS NULL OR chat_session_id = $3)
		  AND ($4 = '' OR status = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`

	rows, err := db.QueryContext(ctx, query, userID, filter.AgentID, filter.ChatSessionID, string(filter.Status), limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var r models.Run
		var chatSessionID uuid.NullUUID
		var taskID, sqlUsed, resultData, errorKind sql.NullString
		var executionMs sql.NullInt64
		var resultRowsCount sql.NullInt32
		var finishedAt sql.NullTime

		if err := rows.Scan(
			&r.ID, &r.AgentID, &r.UserID, &chatSessionID, &r.Question, &taskID, &r.Status,
			&sqlUsed, &resultData, &executionMs, &resultRowsCount, &errorKind,
			&r.CreatedAt, &finishedAt,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}

		if chatSessionID.Valid {
			r.ChatSessionID = &chatSessionID.UUID
		}
		r.TaskID = NullStringToString(taskID)
		r.SQLUsed = NullStringToString(sqlUsed)
		r.ResultData = NullStringToString(resultData)
		r.ErrorKind = NullStringToString(errorKind)
		if executionMs.Valid {
			r.ExecutionMs = executionMs.Int64
		}
		if resultRowsCount.Valid {
			r.ResultRowsCount = int(resultRowsCount.Int32)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// MarkRunning (re-)acquires a run for processing. It matches status queued
// or running rather than queued alone: a delivery only reaches here after
// XAutoClaim's visibility timeout has elapsed, which means the worker that
// last held it is presumed dead, so re-acquiring a still-"running" run is
// how a stale claim gets picked back up instead of stranding it forever. A
// run already terminal (success/failure/cancelled) is left untouched.
func (db *DB) MarkRunning(ctx context.Context, runID uuid.UUID) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE runs SET status = $2 WHERE id = $1 AND status IN ($3, $4)`,
		runID, models.RunRunning, models.RunQueued, models.RunRunning,
	)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrDatabaseError)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return rowsAffected > 0, nil
}

// CancelQueuedRun transitions a run to cancelled, but only while it is
// still queued — once a worker has marked it running, cancellation is no
// longer possible, per spec.md §4.5's state machine.
func (db *DB) CancelQueuedRun(ctx context.Context, runID uuid.UUID) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE runs SET status = $2, finished_at = NOW() WHERE id = $1 AND status = $3`,
		runID, models.RunCancelled, models.RunQueued,
	)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrDatabaseError)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return rowsAffected > 0, nil
}

// CompleteRun performs the idempotent terminal write for a run: it only
// applies when the run is still in a non-terminal state (queued or
// running), guaranteeing exactly one successful terminal write per run id
// even if a retried worker delivers a duplicate completion.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status models.RunStatus, sqlUsed, resultData string, executionMs int64, resultRowsCount int, errorKind string) (bool, error) {
	query := `
		UPDATE runs
		SET status = $2, sql_used = $3, result_data = $4, execution_ms = $5,
		    result_rows_count = $6, error_kind = $7, finished_at = NOW()
		WHERE id = $1 AND status IN ($8, $9)
	`
	result, err := db.ExecContext(ctx, query,
		runID, status, StringToNullString(sqlUsed), StringToNullString(resultData), executionMs,
		resultRowsCount, StringToNullString(errorKind), models.RunQueued, models.RunRunning,
	)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrDatabaseError)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return rowsAffected > 0, nil
}
