// Package errors implements the error taxonomy shared by the pipeline,
// the run controller, and the HTTP surface.
//
// Every error the core produces carries one of the ErrorCode values below
// rather than a bare Go error, so that:
//   - a pipeline node can decide fatal vs soft purely by inspecting the code
//     (see internal/pipeline's Outcome type)
//   - a run record's error_kind column is always one of a known set
//   - the HTTP surface maps a failure to a stable status code without the
//     handler needing to know which subsystem produced it
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is a stable, serialisable error classification.
type ErrorCode string

const (
	// Client errors (400-499)
	ErrBadRequest           ErrorCode = "BAD_REQUEST"
	ErrValidationFailed     ErrorCode = "VALIDATION_ERROR"
	ErrMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrInvalidDataType      ErrorCode = "INVALID_DATA_TYPE"
	ErrRateLimitExceeded    ErrorCode = "RATE_LIMIT_EXCEEDED"

	// InvalidInput: caller-supplied parameters violate contract (spec.md §7) -
	// empty question, unknown agent, user does not own the agent.
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Authentication & authorization (401-403)
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	// AuthError is surfaced by the API façade, never produced by the core
	// pipeline; kept here only so the façade's errors fit the same taxonomy.
	ErrAuthError ErrorCode = "AUTH_ERROR"

	// Not found (404)
	ErrResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrRunNotFound      ErrorCode = "RUN_NOT_FOUND"
	ErrSessionNotFound  ErrorCode = "CHAT_SESSION_NOT_FOUND"

	// Server errors (500-599)
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCacheError         ErrorCode = "CACHE_ERROR"

	// ConnectError: engine open or probe failure for a configured connection.
	ErrConnectError ErrorCode = "CONNECT_ERROR"
	// SchemaError: schema listing or sample retrieval failed fatally.
	ErrSchemaError ErrorCode = "SCHEMA_ERROR"
	// QueryError: generated SQL failed to execute.
	ErrQueryError ErrorCode = "QUERY_ERROR"
	// ModelError: the LLM call failed after retries.
	ErrModelError ErrorCode = "MODEL_ERROR"
	// TimeoutError: the per-run budget elapsed.
	ErrTimeoutError ErrorCode = "TIMEOUT_ERROR"

	// Configuration errors
	ErrMissingEnvVar         ErrorCode = "MISSING_ENV_VAR"
	ErrInvalidConfiguration  ErrorCode = "INVALID_CONFIGURATION"
	ErrServiceNotInitialized ErrorCode = "SERVICE_NOT_INITIALIZED"
)

// StatusCodes maps an ErrorCode to the HTTP status the API surface returns.
var StatusCodes = map[ErrorCode]int{
	ErrBadRequest:           http.StatusBadRequest,
	ErrValidationFailed:     http.StatusBadRequest,
	ErrMissingRequiredField: http.StatusBadRequest,
	ErrInvalidDataType:      http.StatusBadRequest,
	ErrRateLimitExceeded:    http.StatusTooManyRequests,
	ErrInvalidInput:         http.StatusBadRequest,

	ErrUnauthorized: http.StatusUnauthorized,
	ErrForbidden:    http.StatusForbidden,
	ErrAuthError:    http.StatusUnauthorized,

	ErrResourceNotFound: http.StatusNotFound,
	ErrRunNotFound:      http.StatusNotFound,
	ErrSessionNotFound:  http.StatusNotFound,

	ErrInternalServer:     http.StatusInternalServerError,
	ErrServiceUnavailable: http.StatusServiceUnavailable,
	ErrDatabaseError:      http.StatusInternalServerError,
	ErrCacheError:         http.StatusInternalServerError,

	ErrConnectError: http.StatusBadGateway,
	ErrSchemaError:  http.StatusInternalServerError,
	ErrQueryError:   http.StatusUnprocessableEntity,
	ErrModelError:   http.StatusBadGateway,
	ErrTimeoutError: http.StatusGatewayTimeout,

	ErrMissingEnvVar:         http.StatusInternalServerError,
	ErrInvalidConfiguration:  http.StatusInternalServerError,
	ErrServiceNotInitialized: http.StatusServiceUnavailable,
}

// AppError is the structured error every layer of the core returns.
type AppError struct {
	Code      ErrorCode   `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status code for this error's Code, falling
// back to 500 for any code not present in StatusCodes.
func (e *AppError) StatusCode() int {
	if code, ok := StatusCodes[e.Code]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Timestamp: time.Now()}
}

func NewWithDetails(code ErrorCode, message string, details interface{}) *AppError {
	return &AppError{Code: code, Message: message, Details: details, Timestamp: time.Now()}
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// Wrap converts any error into an AppError, preserving it unchanged if it
// already is one.
func Wrap(err error, code ErrorCode) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(code, err.Error())
}

func IsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}
