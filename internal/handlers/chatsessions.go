package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/queryforge/core/internal/auth"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/validation"
)

// ChatSessionsHandler exposes the ChatSession read surface and the
// message history within one session. Sessions are primarily created by
// the Run Controller (synthesised on create_run), but the façade also
// lets a user rename or list them directly.
type ChatSessionsHandler struct {
	db *database.DB
}

func NewChatSessionsHandler(db *database.DB) *ChatSessionsHandler {
	return &ChatSessionsHandler{db: db}
}

type createChatSessionRequest struct {
	AgentID uuid.UUID `json:"agent_id"`
	Title   string    `json:"title"`
}

// HandleCreate handles POST /chat-sessions. Most sessions are synthesised
// by the Run Controller on create_run instead — this exists for a client
// that wants to name a session before the first question is asked.
func (h *ChatSessionsHandler) HandleCreate(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	var req createChatSessionRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Debug("Failed to parse chat session request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}
	if req.AgentID == uuid.Nil {
		return errors.New(errors.ErrMissingRequiredField, "agent_id is required")
	}
	if err := h.db.CheckAgentOwnership(c.Context(), req.AgentID, user.ID); err != nil {
		return err
	}
	if req.Title == "" {
		req.Title = "New conversation"
	}

	session, err := h.db.CreateChatSession(c.Context(), user.ID, req.AgentID, req.Title)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *ChatSessionsHandler) HandleList(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if err := validation.ValidatePagination(limit, offset); err != nil {
		return err
	}

	sessions, err := h.db.GetUserChatSessions(c.Context(), user.ID, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"chat_sessions": sessions})
}

func (h *ChatSessionsHandler) HandleGet(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid chat session id")
	}

	if err := h.db.CheckChatSessionOwnership(c.Context(), sessionID, user.ID); err != nil {
		return err
	}

	session, err := h.db.GetChatSession(c.Context(), sessionID)
	if err != nil {
		return err
	}

	return c.JSON(session)
}

type renameChatSessionRequest struct {
	Title string `json:"title"`
}

func (h *ChatSessionsHandler) HandleRename(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid chat session id")
	}

	if err := h.db.CheckChatSessionOwnership(c.Context(), sessionID, user.ID); err != nil {
		return err
	}

	var req renameChatSessionRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Debug("Failed to parse rename request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}
	if req.Title == "" {
		return errors.New(errors.ErrMissingRequiredField, "title is required")
	}

	if err := h.db.UpdateChatSessionTitle(c.Context(), sessionID, req.Title); err != nil {
		return err
	}

	session, err := h.db.GetChatSession(c.Context(), sessionID)
	if err != nil {
		return err
	}

	return c.JSON(session)
}

func (h *ChatSessionsHandler) HandleDelete(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid chat session id")
	}

	if err := h.db.CheckChatSessionOwnership(c.Context(), sessionID, user.ID); err != nil {
		return err
	}

	if err := h.db.DeleteChatSession(c.Context(), sessionID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Chat session deleted"})
}

// HandleMessages returns the ordered message history of a chat session.
func (h *ChatSessionsHandler) HandleMessages(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid chat session id")
	}

	if err := h.db.CheckChatSessionOwnership(c.Context(), sessionID, user.ID); err != nil {
		return err
	}

	n := c.QueryInt("per_page", 100)
	if n < 1 || n > 500 {
		n = 100
	}

	messages, err := h.db.RecentMessages(c.Context(), sessionID, n)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"messages": messages, "page": c.QueryInt("page", 1), "per_page": n})
}
