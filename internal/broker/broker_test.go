package broker

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestParseJobRoundTrip(t *testing.T) {
	sessionID := uuid.New()
	job := Job{
		RunID:         uuid.New(),
		UserID:        uuid.New(),
		AgentID:       uuid.New(),
		ChatSessionID: &sessionID,
		Question:      "how many orders last month?",
	}

	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := parseJob(map[string]interface{}{"job": string(data)})
	if err != nil {
		t.Fatalf("parseJob: %v", err)
	}

	if got.RunID != job.RunID || got.UserID != job.UserID || got.AgentID != job.AgentID || got.Question != job.Question {
		t.Errorf("parseJob round-trip mismatch: got %+v, want %+v", got, job)
	}
	if got.ChatSessionID == nil || *got.ChatSessionID != sessionID {
		t.Errorf("ChatSessionID = %v, want %v", got.ChatSessionID, sessionID)
	}
}

func TestParseJobMissingField(t *testing.T) {
	if _, err := parseJob(map[string]interface{}{}); err == nil {
		t.Fatal("expected an error when the job field is absent")
	}
}

func TestParseJobMalformedJSON(t *testing.T) {
	if _, err := parseJob(map[string]interface{}{"job": "not json"}); err == nil {
		t.Fatal("expected an error for malformed job JSON")
	}
}

func TestParseJobWrongType(t *testing.T) {
	if _, err := parseJob(map[string]interface{}{"job": 12345}); err == nil {
		t.Fatal("expected an error when the job field is not a string")
	}
}
