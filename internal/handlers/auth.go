package handlers

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/queryforge/core/internal/auth"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *auth.AuthService
}

func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// HandleSignup handles user registration: POST /auth/register
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var signup models.UserSignup
	if err := c.BodyParser(&signup); err != nil {
		slog.Debug("Failed to parse signup request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	if err := validateUserSignup(&signup); err != nil {
		return err
	}

	user, err := h.authService.SignupUser(&signup)
	if err != nil {
		return err
	}

	slog.Info("New user registered", "user_id", user.ID, "email", user.Email)

	profile := models.UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    profile,
		"message": "Registration successful. Please login to continue.",
	})
}

// HandleLogin handles user login: POST /auth/login
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var credentials models.UserCredentials
	if err := c.BodyParser(&credentials); err != nil {
		slog.Debug("Failed to parse login request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	if err := validateUserCredentials(&credentials); err != nil {
		return err
	}

	userAgent := c.Get("User-Agent")
	ipAddress := c.IP()

	user, token, err := h.authService.LoginUser(&credentials, userAgent, ipAddress)
	if err != nil {
		return err
	}

	response := models.AuthResponse{
		User: models.UserProfile{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Active:      user.Active,
			CreatedAt:   user.CreatedAt,
		},
		Token: token,
	}

	slog.Info("User logged in", "user_id", user.ID, "email", user.Email)

	return c.JSON(response)
}

// HandleLogout handles user logout: returns token-invalidation
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	token, err := auth.ExtractBearerToken(authHeader)
	if err != nil {
		return err
	}

	if err := h.authService.LogoutUser(token); err != nil {
		return err
	}

	slog.Info("User logged out")

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// HandleLogoutAll logs out all sessions for the authenticated user
func (h *AuthHandler) HandleLogoutAll(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := h.authService.LogoutAllSessions(user.ID); err != nil {
		return err
	}

	slog.Info("All sessions logged out", "user_id", user.ID)

	return c.JSON(fiber.Map{"message": "All sessions logged out successfully"})
}

// HandleGetProfile returns the authenticated user's profile: GET /auth/me
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	profile, err := h.authService.GetUserProfile(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(profile)
}

// HandleUpdateProfile updates the authenticated user's profile
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	var update models.UserUpdate
	if err := c.BodyParser(&update); err != nil {
		slog.Debug("Failed to parse update request", "error", err)
		return errors.New(errors.ErrBadRequest, "Invalid request body")
	}

	if err := validateUserUpdate(&update); err != nil {
		return err
	}

	if err := h.authService.UpdateUserProfile(user.ID, &update); err != nil {
		return err
	}

	profile, err := h.authService.GetUserProfile(user.ID)
	if err != nil {
		return err
	}

	slog.Info("User profile updated", "user_id", user.ID)

	return c.JSON(profile)
}

// HandleCheckEmail checks if an email is already registered
func (h *AuthHandler) HandleCheckEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(strings.ToLower(c.Query("email")))

	if email == "" {
		return errors.New(errors.ErrMissingRequiredField, "Email is required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return errors.New(errors.ErrValidationFailed, "Invalid email format")
	}

	exists, err := h.authService.GetDB().CheckEmailExists(email)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"exists": exists})
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateUserSignup(signup *models.UserSignup) error {
	if signup.Email == "" {
		return errors.New(errors.ErrMissingRequiredField, "Email is required")
	}
	if signup.Password == "" {
		return errors.New(errors.ErrMissingRequiredField, "Password is required")
	}
	if signup.DisplayName == "" {
		return errors.New(errors.ErrMissingRequiredField, "Display name is required")
	}
	if !emailRegex.MatchString(signup.Email) {
		return errors.New(errors.ErrValidationFailed, "Invalid email format")
	}
	if len(signup.Password) < 8 {
		return errors.New(errors.ErrValidationFailed, "Password must be at least 8 characters long")
	}
	if len(strings.TrimSpace(signup.DisplayName)) < 2 {
		return errors.New(errors.ErrValidationFailed, "Display name must be at least 2 characters long")
	}
	return nil
}

func validateUserCredentials(creds *models.UserCredentials) error {
	if creds.Email == "" {
		return errors.New(errors.ErrMissingRequiredField, "Email is required")
	}
	if creds.Password == "" {
		return errors.New(errors.ErrMissingRequiredField, "Password is required")
	}
	if !emailRegex.MatchString(creds.Email) {
		return errors.New(errors.ErrValidationFailed, "Invalid email format")
	}
	return nil
}

func validateUserUpdate(update *models.UserUpdate) error {
	if update.DisplayName != "" && len(strings.TrimSpace(update.DisplayName)) < 2 {
		return errors.New(errors.ErrValidationFailed, "Display name must be at least 2 characters long")
	}
	return nil
}
