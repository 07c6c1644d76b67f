package cache

import (
	"testing"

	"github.com/google/uuid"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	agentID := uuid.New()
	f1 := Fingerprint(agentID, "How many orders last month?", "v1")
	f2 := Fingerprint(agentID, "How many orders last month?", "v1")
	if f1 != f2 {
		t.Error("Fingerprint must be deterministic for identical inputs")
	}
}

func TestFingerprintNormalisesQuestionText(t *testing.T) {
	agentID := uuid.New()
	f1 := Fingerprint(agentID, "How many orders last month?", "v1")
	f2 := Fingerprint(agentID, "  how   many orders last month  ", "v1")
	if f1 != f2 {
		t.Error("Fingerprint should collapse whitespace, case, and trailing punctuation before hashing")
	}
}

func TestFingerprintChangesWithSchemaVersion(t *testing.T) {
	agentID := uuid.New()
	f1 := Fingerprint(agentID, "how many orders", "v1")
	f2 := Fingerprint(agentID, "how many orders", "v2")
	if f1 == f2 {
		t.Error("Fingerprint must change when the schema snapshot version changes, so a schema change invalidates stale entries")
	}
}

func TestFingerprintChangesWithAgent(t *testing.T) {
	question := "how many orders"
	f1 := Fingerprint(uuid.New(), question, "v1")
	f2 := Fingerprint(uuid.New(), question, "v1")
	if f1 == f2 {
		t.Error("Fingerprint must be scoped per agent")
	}
}

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims and lowercases", "  How MANY Orders  ", "how many orders"},
		{"strips trailing punctuation", "how many orders?!", "how many orders"},
		{"collapses internal whitespace", "how   many\torders", "how many orders"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeQuestion(tt.input); got != tt.want {
				t.Errorf("normalizeQuestion(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
