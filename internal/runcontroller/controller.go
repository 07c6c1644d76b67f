// Package runcontroller implements C7: the contract the API façade calls to
// create, read, and list runs. It is the only writer of queued Run records
// and the only producer onto the job broker (C6) — workers never create
// runs, only transition them.
package runcontroller

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/broker"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

const maxPageSize = 100

// clampPagination normalises a caller-supplied page/pageSize pair: page is
// 1-indexed and floored at 1, a pageSize below 1 or above maxPageSize
// becomes maxPageSize. Returns the clamped page, clamped pageSize, and the SQL
// OFFSET derived from them.
func clampPagination(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}

// Controller exposes create_run / get_run / list_runs per spec.md §4.5.
type Controller struct {
	db     *database.DB
	broker *broker.Broker
}

func New(db *database.DB, b *broker.Broker) *Controller {
	return &Controller{db: db, broker: b}
}

// CreateRun inserts a queued Run, synthesising a ChatSession when the
// caller did not supply one, then publishes the job onto the broker. The
// caller must already have authenticated the user; CreateRun only checks
// ownership of the agent and of a supplied chat session.
func (c *Controller) CreateRun(ctx context.Context, userID, agentID uuid.UUID, question string, chatSessionID *uuid.UUID) (*models.Run, error) {
	if err := c.db.CheckAgentOwnership(ctx, agentID, userID); err != nil {
		return nil, err
	}

	sessionID := chatSessionID
	if sessionID == nil {
		title := database.GenerateChatSessionTitle(question)
		session, err := c.db.CreateChatSession(ctx, userID, agentID, title)
		if err != nil {
			return nil, err
		}
		sessionID = &session.ID
	} else {
		if err := c.db.CheckChatSessionOwnership(ctx, *sessionID, userID); err != nil {
			return nil, err
		}
	}

	run, err := c.db.CreateRun(ctx, &models.Run{
		AgentID:       agentID,
		UserID:        userID,
		ChatSessionID: sessionID,
		Question:      question,
	})
	if err != nil {
		return nil, err
	}

	job := broker.Job{
		RunID:         run.ID,
		UserID:        run.UserID,
		AgentID:       run.AgentID,
		ChatSessionID: run.ChatSessionID,
		Question:      run.Question,
	}
	if err := c.broker.Enqueue(ctx, job); err != nil {
		slog.Error("runcontroller: failed to enqueue job", "run_id", run.ID, "error", err)
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable)
	}

	return run, nil
}

// GetRun reads the current state of a run with no side effects, enforcing
// that the caller owns it.
func (c *Controller) GetRun(ctx context.Context, userID, runID uuid.UUID) (*models.Run, error) {
	run, err := c.db.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.UserID != userID {
		return nil, errors.New(errors.ErrUnauthorized, "Access denied to run")
	}
	return run, nil
}

// Filter narrows ListRuns; a nil/zero field means "no filter on that
// column", mirroring database.RunFilter.
type Filter struct {
	AgentID       *uuid.UUID
	ChatSessionID *uuid.UUID
	Status        models.RunStatus
}

// ListRuns returns a paginated, filtered list of a user's runs, newest
// first. page is 1-indexed; a page_size outside [1, 100] becomes 100.
func (c *Controller) ListRuns(ctx context.Context, userID uuid.UUID, filter Filter, page, pageSize int) ([]models.Run, error) {
	_, pageSize, offset := clampPagination(page, pageSize)

	return c.db.ListRuns(ctx, userID, database.RunFilter{
		AgentID:       filter.AgentID,
		ChatSessionID: filter.ChatSessionID,
		Status:        filter.Status,
	}, pageSize, offset)
}

// CancelRun transitions a queued run to cancelled. Per spec.md §4.5's state
// machine, cancellation is only valid before a worker picks the run up —
// once running, the run must reach success/failure on its own.
func (c *Controller) CancelRun(ctx context.Context, userID, runID uuid.UUID) (*models.Run, error) {
	run, err := c.GetRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}

	ok, err := c.db.CancelQueuedRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrValidationFailed, "run is no longer queued and cannot be cancelled")
	}

	run.Status = models.RunCancelled
	return run, nil
}
