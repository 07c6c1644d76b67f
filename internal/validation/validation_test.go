package validation

import (
	"strings"
	"testing"
)

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		wantErr  bool
	}{
		{"valid question", "how many orders last month?", false},
		{"empty", "", true},
		{"whitespace only", "   \n\t", true},
		{"too long", strings.Repeat("a", maxQuestionLength+1), true},
		{"exactly at limit", strings.Repeat("a", maxQuestionLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestion(tt.question)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateQuestion(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChatSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"valid uuid shape", "123e4567-e89b-12d3-a456-426614174000", false},
		{"too short", "not-a-uuid", true},
		{"contains invalid chars", strings.Repeat("z", 36), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChatSessionID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChatSessionID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset int
		wantErr       bool
	}{
		{"defaults", 20, 0, false},
		{"max limit", 100, 0, false},
		{"over limit", 101, 0, true},
		{"negative limit", -1, 0, true},
		{"negative offset", 20, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePagination(tt.limit, tt.offset)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePagination(%d, %d) error = %v, wantErr %v", tt.limit, tt.offset, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAgentFlagsTable(t *testing.T) {
	if err := ValidateAgentFlagsTable(true, ""); err == nil {
		t.Error("single_table_mode with no selected_table should fail")
	}
	if err := ValidateAgentFlagsTable(true, "orders"); err != nil {
		t.Errorf("single_table_mode with a selected_table should pass, got %v", err)
	}
	if err := ValidateAgentFlagsTable(false, ""); err != nil {
		t.Errorf("single_table_mode disabled should never require a table, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"strips control chars", "hel\x00lo\x01", "hello"},
		{"keeps newlines and tabs", "line1\nline2\ttabbed", "line1\nline2\ttabbed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeString(tt.input); got != tt.want {
				t.Errorf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
