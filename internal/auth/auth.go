package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// AuthService authenticates users and manages opaque-token sessions on
// behalf of the API façade. Per the data model, the core never mutates a
// User once the façade created it — AuthService is the façade's own
// implementation, kept in-module because the teacher repo does the same.
type AuthService struct {
	db *database.DB
}

func NewAuthService(db *database.DB) *AuthService {
	return &AuthService{db: db}
}

func (s *AuthService) GetDB() *database.DB {
	return s.db
}

// HashPassword hashes a plain text password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternalServer)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plain text password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateSessionToken generates a secure random session token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, errors.ErrInternalServer)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// HashToken creates a SHA256 hash of a token for storage
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// SignupUser creates a new user account
func (s *AuthService) SignupUser(signup *models.UserSignup) (*models.User, error) {
	signup.Email = strings.TrimSpace(strings.ToLower(signup.Email))

	exists, err := s.db.CheckEmailExists(signup.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New(errors.ErrValidationFailed, "Email already registered")
	}

	passwordHash, err := HashPassword(signup.Password)
	if err != nil {
		return nil, err
	}

	return s.db.CreateUser(signup, passwordHash)
}

// LoginUser authenticates a user and creates a session
func (s *AuthService) LoginUser(credentials *models.UserCredentials, userAgent, ipAddress string) (*models.User, string, error) {
	credentials.Email = strings.TrimSpace(strings.ToLower(credentials.Email))

	userID, passwordHash, err := s.db.GetUserPasswordHash(credentials.Email)
	if err != nil {
		return nil, "", err
	}

	if !CheckPasswordHash(credentials.Password, passwordHash) {
		return nil, "", errors.New(errors.ErrUnauthorized, "Invalid credentials")
	}

	user, err := s.db.GetUserByID(userID)
	if err != nil {
		return nil, "", err
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return nil, "", err
	}
	tokenHash := HashToken(token)

	if _, err := s.db.CreateSession(user.ID, tokenHash, userAgent, ipAddress); err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// LogoutUser deletes a user's session
func (s *AuthService) LogoutUser(token string) error {
	return s.db.DeleteSession(HashToken(token))
}

// LogoutAllSessions logs out all sessions for a user
func (s *AuthService) LogoutAllSessions(userID uuid.UUID) error {
	return s.db.DeleteUserSessions(userID)
}

// ValidateSession checks if a session token is valid and returns the user.
// Sessions within 12h of expiry have their expiry reset to 24h from now on
// activity, keeping
// active users logged in without an explicit refresh endpoint.
func (s *AuthService) ValidateSession(token string) (*models.User, error) {
	tokenHash := HashToken(token)

	session, err := s.db.GetSessionByToken(tokenHash)
	if err != nil {
		return nil, err
	}

	if session.ExpiresAt.Before(time.Now()) {
		s.db.DeleteSession(tokenHash)
		return nil, errors.New(errors.ErrUnauthorized, "Session expired")
	}

	user, err := s.db.GetUserByID(session.UserID)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, errors.New(errors.ErrForbidden, "Account deactivated")
	}

	if time.Until(session.ExpiresAt) < 12*time.Hour {
		s.db.ExtendSession(tokenHash, 24*time.Hour)
	}

	return user, nil
}

// UpdateUserProfile updates a user's profile information
func (s *AuthService) UpdateUserProfile(userID uuid.UUID, update *models.UserUpdate) error {
	return s.db.UpdateUser(userID, update)
}

// GetUserProfile retrieves a user's profile
func (s *AuthService) GetUserProfile(userID uuid.UUID) (*models.UserProfile, error) {
	user, err := s.db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
	}, nil
}

// ExtractBearerToken extracts token from Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New(errors.ErrUnauthorized, "Missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New(errors.ErrUnauthorized, "Invalid authorization header format")
	}

	return parts[1], nil
}
