package models

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionKind is one of the three dialects the core can open an
// EngineHandle against.
type ConnectionKind string

const (
	ConnectionSQLite     ConnectionKind = "sqlite"
	ConnectionPostgres   ConnectionKind = "postgres"
	ConnectionClickHouse ConnectionKind = "clickhouse"
)

// ConnectionPayload holds exactly one shape per ConnectionKind: either an
// embedded DB path (sqlite) or host/port/db/user/secret/tls (postgres,
// clickhouse). Both shapes live on the struct; only one is populated,
// selected by Kind on the owning Connection.
type ConnectionPayload struct {
	// sqlite shape
	Path string `json:"path,omitempty"`

	// postgres / clickhouse shape
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	Username string `json:"username,omitempty"`
	Secret   string `json:"secret,omitempty"`
	TLS      bool   `json:"tls,omitempty"`
}

// Connection is a user-owned, immutable-payload-shape reference to a
// queryable data source. The core never mutates Kind or OwnerUserID.
type Connection struct {
	ID          uuid.UUID         `json:"id"`
	OwnerUserID uuid.UUID         `json:"owner_user_id"`
	Kind        ConnectionKind    `json:"kind"`
	Payload     ConnectionPayload `json:"payload"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AgentFlags gates the optional pipeline nodes (process_initial_context,
// refine_response) and the single-table restriction in prepare_context.
type AgentFlags struct {
	Advanced           bool   `json:"advanced"`
	ProcessingEnabled  bool   `json:"processing_enabled"`
	RefinementEnabled  bool   `json:"refinement_enabled"`
	SingleTableMode    bool   `json:"single_table_mode"`
	SelectedTable      string `json:"selected_table,omitempty"`
}

// Agent binds immutably to one Connection and configures the pipeline's
// schema-exposure and row-limit behavior.
type Agent struct {
	ID              uuid.UUID  `json:"id"`
	OwnerUserID     uuid.UUID  `json:"owner_user_id"`
	Name            string     `json:"name"`
	ConnectionID    uuid.UUID  `json:"connection_id"`
	ModelID         string     `json:"model_id"`
	TopK            int        `json:"top_k"`
	IncludedTables  string     `json:"included_tables"` // glob, or "*"
	Flags           AgentFlags `json:"flags"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ChatSessionStatus is one of active|archived.
type ChatSessionStatus string

const (
	ChatSessionActive   ChatSessionStatus = "active"
	ChatSessionArchived ChatSessionStatus = "archived"
)

// ChatSession groups a sequence of Messages for one (user, agent) pairing.
// Invariants: TotalMessages == count(messages where chat_session_id = id);
// LastActivity >= CreatedAt.
type ChatSession struct {
	ID             uuid.UUID         `json:"id"`
	UserID         uuid.UUID         `json:"user_id"`
	AgentID        uuid.UUID         `json:"agent_id"`
	Title          string            `json:"title"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivity   time.Time         `json:"last_activity"`
	TotalMessages  int               `json:"total_messages"`
	Status         ChatSessionStatus `json:"status"`
	ContextSummary string            `json:"context_summary,omitempty"`
}

// MessageRole is one of user|assistant|system.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is exclusively owned by its ChatSession. Within a session,
// SequenceOrder is strictly increasing and dense starting at 1.
// SQLQuery is set only when Role == RoleAssistant.
type Message struct {
	ID             uuid.UUID              `json:"id"`
	ChatSessionID  uuid.UUID              `json:"chat_session_id"`
	RunID          *uuid.UUID             `json:"run_id,omitempty"`
	Role           MessageRole            `json:"role"`
	Content        string                 `json:"content"`
	SQLQuery       string                 `json:"sql_query,omitempty"`
	SequenceOrder  int                    `json:"sequence_order"`
	CreatedAt      time.Time              `json:"created_at"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EmbeddingDimension is the fixed width of every MessageEmbedding vector.
const EmbeddingDimension = 1536

// MessageEmbedding is created asynchronously after its Message; its
// absence is permitted and triggers the lexical fallback in the history
// store.
type MessageEmbedding struct {
	ID           uuid.UUID `json:"id"`
	MessageID    uuid.UUID `json:"message_id"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunStatus is one of queued|running|success|failure|cancelled.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunSuccess   RunStatus = "success"
	RunFailure   RunStatus = "failure"
	RunCancelled RunStatus = "cancelled"
)

// Run is a single natural-language question pushed through the pipeline.
// Invariants: terminal states set FinishedAt; exactly one successful
// terminal write per run id (enforced by a guarded UPDATE in
// internal/database's CompleteRun).
type Run struct {
	ID               uuid.UUID  `json:"id"`
	AgentID          uuid.UUID  `json:"agent_id"`
	UserID           uuid.UUID  `json:"user_id"`
	ChatSessionID    *uuid.UUID `json:"chat_session_id,omitempty"`
	Question         string     `json:"question"`
	TaskID           string     `json:"task_id,omitempty"`
	Status           RunStatus  `json:"status"`
	SQLUsed          string     `json:"sql_used,omitempty"`
	ResultData       string     `json:"result_data,omitempty"`
	ExecutionMs      int64      `json:"execution_ms,omitempty"`
	ResultRowsCount  int        `json:"result_rows_count,omitempty"`
	ErrorKind        string     `json:"error_kind,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// CachedAnswer is keyed by a fingerprint over (normalised question,
// agent_id, schema snapshot version). Redis copies expire after the
// configured TTL; there is no LRU or capacity-based eviction, and the
// cache.capacity setting is not applied. Staleness is bounded by schema
// snapshot version change.
type CachedAnswer struct {
	AgentID     uuid.UUID `json:"agent_id"`
	Fingerprint string    `json:"fingerprint"`
	Answer      string    `json:"answer"`
	SQLUsed     string    `json:"sql_used,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidationVerdict is the output of the Validation Harness (C9) for one
// run: a judge-model score plus the rationale it gave.
type ValidationVerdict struct {
	RunID     uuid.UUID `json:"run_id"`
	Score     float64   `json:"score"`
	Rationale string    `json:"rationale"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the HTTP-facing shape of internal/errors.AppError.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
