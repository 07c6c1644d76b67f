package history

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/models"
)

func TestVectorLiteral(t *testing.T) {
	got := vectorLiteral([]float32{1, 0.5, -2})
	want := "[1,0.5,-2]"
	if got != want {
		t.Errorf("vectorLiteral(...) = %q, want %q", got, want)
	}
}

func TestVectorLiteralEmpty(t *testing.T) {
	if got := vectorLiteral(nil); got != "[]" {
		t.Errorf("vectorLiteral(nil) = %q, want %q", got, "[]")
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("  How MANY   Orders? ")
	want := map[string]struct{}{"how": {}, "many": {}, "orders?": {}}
	if len(tokens) != len(want) {
		t.Fatalf("tokenize() = %v, want %v", tokens, want)
	}
	for k := range want {
		if _, ok := tokens[k]; !ok {
			t.Errorf("tokenize() missing token %q", k)
		}
	}
}

func TestTokenOverlap(t *testing.T) {
	a := tokenize("how many orders were placed")
	b := tokenize("how many customers placed orders")
	if got := tokenOverlap(a, b); got != 4 {
		t.Errorf("tokenOverlap() = %d, want 4", got)
	}
}

func TestTokenOverlapNoOverlap(t *testing.T) {
	a := tokenize("revenue this quarter")
	b := tokenize("inventory levels")
	if got := tokenOverlap(a, b); got != 0 {
		t.Errorf("tokenOverlap() = %d, want 0", got)
	}
}

func newMessage(t *testing.T, role models.MessageRole, content string) models.Message {
	t.Helper()
	return models.Message{ID: uuid.New(), Role: role, Content: content}
}

func TestRenderHistoryBlockDedupesRecentOverRelevant(t *testing.T) {
	shared := newMessage(t, models.RoleUser, "how many orders")
	recent := []models.Message{shared}
	relevant := []models.Message{shared, newMessage(t, models.RoleAssistant, "42 orders")}

	block := RenderHistoryBlock(relevant, recent, 10)

	// "RECENT MESSAGES" + 1 item + "SIMILAR CONVERSATIONS" + 1 item (the
	// shared message is dropped from the relevant section).
	if got := len(splitLines(block)); got != 4 {
		t.Errorf("RenderHistoryBlock produced %d lines, want 4 (shared message deduped); block:\n%s", got, block)
	}
	if !strings.Contains(block, "RECENT MESSAGES") {
		t.Error("RenderHistoryBlock missing RECENT MESSAGES label")
	}
	if !strings.Contains(block, "SIMILAR CONVERSATIONS") {
		t.Error("RenderHistoryBlock missing SIMILAR CONVERSATIONS label")
	}
}

func TestRenderHistoryBlockCapsAtMaxMessages(t *testing.T) {
	var recent []models.Message
	for i := 0; i < 5; i++ {
		recent = append(recent, newMessage(t, models.RoleUser, "message"))
	}

	block := RenderHistoryBlock(nil, recent, 2)
	// "RECENT MESSAGES" + 2 items; no relevant messages, so no second section.
	if got := len(splitLines(block)); got != 3 {
		t.Errorf("RenderHistoryBlock produced %d lines, want 3 (capped by maxMessages); block:\n%s", got, block)
	}
	if strings.Contains(block, "SIMILAR CONVERSATIONS") {
		t.Error("RenderHistoryBlock should omit an empty SIMILAR CONVERSATIONS section")
	}
}

func TestRenderHistoryBlockIncludesSQLWhenPresent(t *testing.T) {
	msg := newMessage(t, models.RoleAssistant, "42 orders")
	msg.SQLQuery = "SELECT COUNT(*) FROM orders"

	block := RenderHistoryBlock(nil, []models.Message{msg}, 10)
	if !strings.Contains(block, "SQL: SELECT COUNT(*) FROM orders") {
		t.Errorf("RenderHistoryBlock omitted SQL for a message that has one; block:\n%s", block)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
