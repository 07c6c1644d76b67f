package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system. Created by the API façade; never
// mutated by the core pipeline.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserCredentials represents user login credentials
type UserCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserSignup represents user registration data
type UserSignup struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=2"`
}

// UserSession represents an active opaque-token session, the Bearer
// credential validated by internal/auth/middleware.go.
type UserSession struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// UserProfile is the user-facing projection of User (no password hash).
type UserProfile struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserUpdate represents fields that can be updated on a User's profile
type UserUpdate struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}
