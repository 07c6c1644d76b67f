package validation

import (
	"regexp"
	"strings"

	"github.com/queryforge/core/internal/errors"
)

const maxQuestionLength = 4000

// ValidateQuestion validates a Run Controller's incoming question text —
// the validate_input pipeline node's contract (spec.md §4.2).
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return errors.New(errors.ErrMissingRequiredField, "question is required")
	}

	if len(question) > maxQuestionLength {
		return errors.NewWithDetails(
			errors.ErrInvalidInput,
			"question exceeds maximum length",
			map[string]interface{}{
				"max_length": maxQuestionLength,
				"actual":     len(question),
			},
		)
	}

	return nil
}

// ValidateChatSessionID validates a caller-supplied chat session id is
// well-formed before it ever reaches the database layer.
func ValidateChatSessionID(id string) error {
	if id == "" {
		return nil
	}
	if !isValidUUIDLike(id) {
		return errors.New(errors.ErrInvalidInput, "chat session id must be a valid UUID")
	}
	return nil
}

func isValidUUIDLike(id string) bool {
	validPattern := regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)
	return validPattern.MatchString(id)
}

// ValidatePagination validates pagination parameters shared by every
// list-style HTTP handler.
func ValidatePagination(limit, offset int) error {
	if limit < 0 || limit > 100 {
		return errors.NewWithDetails(
			errors.ErrInvalidInput,
			"limit must be between 0 and 100",
			map[string]interface{}{"limit": limit},
		)
	}

	if offset < 0 {
		return errors.NewWithDetails(
			errors.ErrInvalidInput,
			"offset must be non-negative",
			map[string]interface{}{"offset": offset},
		)
	}

	return nil
}

// ValidateAgentFlagsTable enforces the Agent invariant
// SingleTableMode ⇒ SelectedTable != "".
func ValidateAgentFlagsTable(singleTableMode bool, selectedTable string) error {
	if singleTableMode && strings.TrimSpace(selectedTable) == "" {
		return errors.New(errors.ErrInvalidInput, "single_table_mode requires selected_table to be set")
	}
	return nil
}

// SanitizeString strips control characters from user-supplied text before
// it is stored or forwarded to the model collaborator.
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, input)
}
