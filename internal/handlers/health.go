package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/embedder"
	"github.com/queryforge/core/internal/modelclient"
)

// HealthHandler reports liveness of the core's external collaborators: the
// database, the model client, and the embedder. Redis, which backs the
// job broker and the answer cache, is not checked here.
type HealthHandler struct {
	config      *config.Config
	db          *database.DB
	modelClient *modelclient.Client
	embedder    *embedder.Embedder
}

func NewHealthHandler(cfg *config.Config, db *database.DB, mc *modelclient.Client, emb *embedder.Embedder) *HealthHandler {
	return &HealthHandler{config: cfg, db: db, modelClient: mc, embedder: emb}
}

func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	modelStatus := "healthy"
	if err := h.modelClient.HealthCheck(ctx); err != nil {
		modelStatus = "unhealthy"
	}

	embedderStatus := "healthy"
	if err := h.embedder.HealthCheck(ctx); err != nil {
		embedderStatus = "unhealthy"
	}

	overall := "ok"
	if dbStatus != "healthy" || modelStatus != "healthy" || embedderStatus != "healthy" {
		overall = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":      overall,
		"timestamp":   time.Now(),
		"environment": h.config.Server.Environment,
		"database":    dbStatus,
		"model_http":  modelStatus,
		"embedder":    embedderStatus,
	})
}
