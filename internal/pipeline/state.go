// Package pipeline implements C5, the ten-node directed graph a queued run
// is driven through: validate → cache-lookup → history-retrieve →
// schema/context preparation → query execution → response formatting →
// history-capture → cache-store.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/queryforge/core/internal/connection"
	"github.com/queryforge/core/internal/models"
)

// State is the serialisable state bag threaded through every node. Fields
// are optional unless noted "required" — a node that needs a field it
// finds empty treats that as its own precondition failure, not a panic.
type State struct {
	// required
	UserInput string
	UserID    uuid.UUID
	AgentID   uuid.UUID
	RunID     uuid.UUID

	ChatSessionID *uuid.UUID

	ConnectionKind models.ConnectionKind
	ConnectionID   uuid.UUID
	EngineRef      string // registry id, category CategoryEngine
	AgentBundleRef string // registry id, category CategoryAgentBundle

	Agent      *models.Agent
	Connection *models.Connection

	Fingerprint string
	CacheHit    bool

	RelevantHistory string
	HasHistory      bool

	SchemaSnippet  string
	SampleRows     string
	FocusedContext string

	SQLQuery       string
	ResultColumns  []string
	ResultRows     []connection.Row
	ResultRowCount int
	ExecutionMs    int64

	FormattedResponse string

	ErrorKind    string
	ErrorMessage string
}

// NewState seeds a State for one run from the queued job tuple. Everything
// else required to execute is rehydrated from the database by id, per
// spec.md §4.4 — workers are stateless w.r.t. run metadata.
func NewState(runID, userID, agentID uuid.UUID, chatSessionID *uuid.UUID, question string) *State {
	return &State{
		RunID:         runID,
		UserID:        userID,
		AgentID:       agentID,
		ChatSessionID: chatSessionID,
		UserInput:     question,
	}
}
