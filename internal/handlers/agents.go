package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/queryforge/core/internal/auth"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
	"github.com/queryforge/core/internal/runcontroller"
	"github.com/queryforge/core/internal/validation"
)

// AgentsHandler exposes CRUD over Agent records. Agent bundles (the
// cached LLM-client + tool-set tuple, C2's agent_bundle category) are
// built lazily by the pipeline, never here.
type AgentsHandler struct {
	db         *database.DB
	controller *runcontroller.Controller
}

func NewAgentsHandler(db *database.DB, controller *runcontroller.Controller) *AgentsHandler {
	return &AgentsHandler{db: db, controller: controller}
}

type createAgentRequest struct {
	Name           string            `json:"name"`
	ConnectionID   uuid.UUID         `json:"connection_id"`
	ModelID        string            `json:"model_id"`
	TopK           int               `json:"top_k"`
	IncludedTables string            `json:"included_tables"`
	Flags          models.AgentFlags `json:"flags"`
}

func (h *AgentsHandler) HandleCreate(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	var req createAgentRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Debug("Failed to parse agent request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	if req.Name == "" {
		return errors.New(errors.ErrMissingRequiredField, "name is required")
	}
	if req.TopK < 1 {
		req.TopK = 1
	}
	if req.IncludedTables == "" {
		req.IncludedTables = "*"
	}
	if err := validation.ValidateAgentFlagsTable(req.Flags.SingleTableMode, req.Flags.SelectedTable); err != nil {
		return err
	}

	if err := h.db.CheckConnectionOwnership(c.Context(), req.ConnectionID, user.ID); err != nil {
		return err
	}

	agent, err := h.db.CreateAgent(c.Context(), user.ID, &models.Agent{
		Name:           req.Name,
		ConnectionID:   req.ConnectionID,
		ModelID:        req.ModelID,
		TopK:           req.TopK,
		IncludedTables: req.IncludedTables,
		Flags:          req.Flags,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(agent)
}

func (h *AgentsHandler) HandleList(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	agents, err := h.db.ListUserAgents(c.Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"agents": agents})
}

func (h *AgentsHandler) HandleGet(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid agent id")
	}

	if err := h.db.CheckAgentOwnership(c.Context(), agentID, user.ID); err != nil {
		return err
	}

	agent, err := h.db.GetAgent(c.Context(), agentID)
	if err != nil {
		return err
	}

	return c.JSON(agent)
}

type updateAgentRequest struct {
	Name           string            `json:"name"`
	ModelID        string            `json:"model_id"`
	TopK           int               `json:"top_k"`
	IncludedTables string            `json:"included_tables"`
	Flags          models.AgentFlags `json:"flags"`
}

func (h *AgentsHandler) HandleUpdate(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid agent id")
	}

	if err := h.db.CheckAgentOwnership(c.Context(), agentID, user.ID); err != nil {
		return err
	}

	var req updateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Debug("Failed to parse agent update request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	if err := validation.ValidateAgentFlagsTable(req.Flags.SingleTableMode, req.Flags.SelectedTable); err != nil {
		return err
	}

	if err := h.db.UpdateAgentFlags(c.Context(), agentID, req.Name, req.ModelID, req.TopK, req.IncludedTables, req.Flags); err != nil {
		return err
	}
	// An update may change included_tables, so the agent's durable cached
	// answers are dropped wholesale.
	if err := h.db.InvalidateAgentCache(c.Context(), agentID); err != nil {
		return err
	}

	agent, err := h.db.GetAgent(c.Context(), agentID)
	if err != nil {
		return err
	}

	return c.JSON(agent)
}

type runAgentRequest struct {
	Question      string     `json:"question"`
	ChatSessionID *uuid.UUID `json:"chat_session_id,omitempty"`
}

// HandleRun handles POST /agents/:id/run, spec.md §6's entry point for
// starting a Run against a specific agent. Thin wrapper over C7's
// CreateRun — the agent id comes from the path instead of the body.
func (h *AgentsHandler) HandleRun(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid agent id")
	}

	var req runAgentRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Debug("Failed to parse run request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	req.Question = validation.SanitizeString(req.Question)
	if err := validation.ValidateQuestion(req.Question); err != nil {
		return err
	}

	run, err := h.controller.CreateRun(c.Context(), user.ID, agentID, req.Question, req.ChatSessionID)
	if err != nil {
		return err
	}

	slog.Info("Run created via agent.run", "run_id", run.ID, "agent_id", agentID, "user_id", user.ID)

	return c.Status(fiber.StatusAccepted).JSON(run)
}

// HandleChatSessions handles GET /agents/:id/chat-sessions, paginated.
func (h *AgentsHandler) HandleChatSessions(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid agent id")
	}

	if err := h.db.CheckAgentOwnership(c.Context(), agentID, user.ID); err != nil {
		return err
	}

	limit := c.QueryInt("per_page", 20)
	offset := (c.QueryInt("page", 1) - 1) * limit
	if offset < 0 {
		offset = 0
	}
	if err := validation.ValidatePagination(limit, offset); err != nil {
		return err
	}

	sessions, err := h.db.GetAgentChatSessions(c.Context(), agentID, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"chat_sessions": sessions})
}

func (h *AgentsHandler) HandleDelete(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid agent id")
	}

	if err := h.db.CheckAgentOwnership(c.Context(), agentID, user.ID); err != nil {
		return err
	}

	if err := h.db.DeleteAgent(c.Context(), agentID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Agent deleted"})
}
