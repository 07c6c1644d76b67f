package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/queryforge/core/internal/auth"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
	"github.com/queryforge/core/internal/runcontroller"
	"github.com/queryforge/core/internal/validation"
)

// RunsHandler is the thin HTTP façade over C7's Run Controller: create,
// get, list, cancel. It never touches the pipeline directly.
type RunsHandler struct {
	controller *runcontroller.Controller
}

func NewRunsHandler(controller *runcontroller.Controller) *RunsHandler {
	return &RunsHandler{controller: controller}
}

type createRunRequest struct {
	AgentID       uuid.UUID  `json:"agent_id"`
	Question      string     `json:"question"`
	ChatSessionID *uuid.UUID `json:"chat_session_id,omitempty"`
}

// HandleCreate handles POST /runs.
func (h *RunsHandler) HandleCreate(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	var req createRunRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Debug("Failed to parse run request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	req.Question = validation.SanitizeString(req.Question)
	if err := validation.ValidateQuestion(req.Question); err != nil {
		return err
	}
	if req.AgentID == uuid.Nil {
		return errors.New(errors.ErrMissingRequiredField, "agent_id is required")
	}

	run, err := h.controller.CreateRun(c.Context(), user.ID, req.AgentID, req.Question, req.ChatSessionID)
	if err != nil {
		return err
	}

	slog.Info("Run created", "run_id", run.ID, "agent_id", run.AgentID, "user_id", user.ID)

	return c.Status(fiber.StatusAccepted).JSON(run)
}

// HandleGet handles GET /runs/:id. The client is expected to poll this
// with backoff until the run reaches a terminal status.
func (h *RunsHandler) HandleGet(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid run id")
	}

	run, err := h.controller.GetRun(c.Context(), user.ID, runID)
	if err != nil {
		return err
	}

	return c.JSON(run)
}

// HandleList handles GET /runs, filtered by agent_id, chat_session_id,
// and status query parameters, paginated.
func (h *RunsHandler) HandleList(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	var filter runcontroller.Filter
	if agentIDStr := c.Query("agent_id"); agentIDStr != "" {
		agentID, err := uuid.Parse(agentIDStr)
		if err != nil {
			return errors.New(errors.ErrInvalidInput, "invalid agent_id")
		}
		filter.AgentID = &agentID
	}
	if chatSessionIDStr := c.Query("chat_session_id"); chatSessionIDStr != "" {
		chatSessionID, err := uuid.Parse(chatSessionIDStr)
		if err != nil {
			return errors.New(errors.ErrInvalidInput, "invalid chat_session_id")
		}
		filter.ChatSessionID = &chatSessionID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = models.RunStatus(status)
	}

	runs, err := h.controller.ListRuns(c.Context(), user.ID, filter, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"runs": runs, "page": page, "page_size": pageSize})
}

// HandleCancel handles POST /runs/:id/cancel.
func (h *RunsHandler) HandleCancel(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid run id")
	}

	run, err := h.controller.CancelRun(c.Context(), user.ID, runID)
	if err != nil {
		return err
	}

	return c.JSON(run)
}
