package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/queryforge/core/internal/auth"
	"github.com/queryforge/core/internal/connection"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// ConnectionsHandler exposes CRUD over C1's persisted Connection records.
// Opening/pooling the EngineHandle itself is internal/connection's
// concern, reached only through the pipeline.
type ConnectionsHandler struct {
	db *database.DB
}

func NewConnectionsHandler(db *database.DB) *ConnectionsHandler {
	return &ConnectionsHandler{db: db}
}

type createConnectionRequest struct {
	Kind    models.ConnectionKind    `json:"kind"`
	Payload models.ConnectionPayload `json:"payload"`
}

func (h *ConnectionsHandler) HandleCreate(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	var req createConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Debug("Failed to parse connection request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	switch req.Kind {
	case models.ConnectionSQLite, models.ConnectionPostgres, models.ConnectionClickHouse:
	default:
		return errors.New(errors.ErrInvalidInput, "kind must be one of sqlite, postgres, clickhouse")
	}

	conn, err := h.db.CreateConnection(c.Context(), user.ID, req.Kind, req.Payload)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(conn)
}

// HandleTest probes a candidate connection payload before it is ever
// persisted: open an EngineHandle, list tables, close it. Never pooled —
// a failed probe must not leave a half-open handle behind for C1 to reuse.
func (h *ConnectionsHandler) HandleTest(c *fiber.Ctx) error {
	if _, err := auth.GetUserFromContext(c); err != nil {
		return err
	}

	var req createConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Debug("Failed to parse connection test request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	switch req.Kind {
	case models.ConnectionSQLite, models.ConnectionPostgres, models.ConnectionClickHouse:
	default:
		return errors.New(errors.ErrInvalidInput, "kind must be one of sqlite, postgres, clickhouse")
	}

	handle, err := connection.Open(c.Context(), req.Kind, req.Payload)
	if err != nil {
		return c.JSON(fiber.Map{"valid": false, "message": err.Error(), "kind": req.Kind})
	}
	defer handle.Close()

	if _, err := handle.ListTables(c.Context()); err != nil {
		return c.JSON(fiber.Map{"valid": false, "message": err.Error(), "kind": req.Kind})
	}

	return c.JSON(fiber.Map{"valid": true, "message": "connection ok", "kind": req.Kind})
}

func (h *ConnectionsHandler) HandleList(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	connections, err := h.db.ListUserConnections(c.Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"connections": connections})
}

func (h *ConnectionsHandler) HandleGet(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	connectionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid connection id")
	}

	if err := h.db.CheckConnectionOwnership(c.Context(), connectionID, user.ID); err != nil {
		return err
	}

	conn, err := h.db.GetConnection(c.Context(), connectionID)
	if err != nil {
		return err
	}

	return c.JSON(conn)
}

func (h *ConnectionsHandler) HandleDelete(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	connectionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid connection id")
	}

	if err := h.db.CheckConnectionOwnership(c.Context(), connectionID, user.ID); err != nil {
		return err
	}

	if err := h.db.DeleteConnection(c.Context(), connectionID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Connection deleted"})
}
