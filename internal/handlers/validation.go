package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/queryforge/core/internal/auth"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/validation"
)

// ValidationHandler is the thin HTTP façade over C9's Validation Harness —
// an on-demand re-score of a completed run, never on the run's hot path.
type ValidationHandler struct {
	db      *database.DB
	harness *validation.Harness
}

func NewValidationHandler(db *database.DB, harness *validation.Harness) *ValidationHandler {
	return &ValidationHandler{db: db, harness: harness}
}

// HandleScore handles POST /runs/:id/validate.
func (h *ValidationHandler) HandleScore(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "invalid run id")
	}

	run, err := h.db.GetRun(c.Context(), runID)
	if err != nil {
		return err
	}
	if run.UserID != user.ID {
		return errors.New(errors.ErrUnauthorized, "Access denied to run")
	}

	verdict, err := h.harness.Score(c.Context(), runID)
	if err != nil {
		return err
	}

	return c.JSON(verdict)
}
