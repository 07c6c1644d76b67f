// Package history implements C3 (History Store) and C4 (Embedding
// Generator): persisting chat messages, retrieving the top-K semantically
// similar past messages for a (user, agent) pair with a lexical fallback,
// and the background embedding pipeline that keeps the vector index warm.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// Store is the History Store (C3). It owns message persistence and both
// retrieval paths (vector and lexical).
type Store struct {
	db                   *database.DB
	lexicalFallbackLimit int
	embedQueue           *EmbeddingPool
}

func NewStore(db *database.DB, lexicalFallbackLimit int, embedQueue *EmbeddingPool) *Store {
	return &Store{db: db, lexicalFallbackLimit: lexicalFallbackLimit, embedQueue: embedQueue}
}

// Capture writes the user/assistant message pair for one exchange and
// enqueues embedding jobs for both. Side-effect-only from the pipeline's
// perspective: the history_capture node swallows any error this returns.
func (s *Store) Capture(ctx context.Context, chatSessionID uuid.UUID, runID *uuid.UUID, userText, assistantText, sqlQuery string) (userMsgID, assistantMsgID uuid.UUID, err error) {
	userMsg, assistantMsg, err := s.db.CreateMessagePair(ctx, chatSessionID, runID, userText, assistantText, sqlQuery)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	if s.embedQueue != nil {
		s.embedQueue.Enqueue(userMsg.ID)
		s.embedQueue.Enqueue(assistantMsg.ID)
	}

	return userMsg.ID, assistantMsg.ID, nil
}

// Relevant returns the top-K messages for (userID, agentID) nearest to
// queryVector by cosine distance. When the vector index has no rows for
// this pair, it falls back to lexical token-overlap ranking over the most
// recent lexicalFallbackLimit messages — this path never returns an error,
// per spec.md §8's "history fallback totality" property.
func (s *Store) Relevant(ctx context.Context, userID, agentID uuid.UUID, queryVector []float32, queryText string, k int) []models.Message {
	if len(queryVector) > 0 {
		hits, err := s.vectorSearch(ctx, userID, agentID, queryVector, k)
		if err == nil && len(hits) > 0 {
			return hits
		}
		if err != nil {
			slog.Warn("history vector search failed, falling back to lexical", "error", err)
		}
	}

	hits, err := s.lexicalSearch(ctx, userID, agentID, queryText, k)
	if err != nil {
		slog.Warn("history lexical fallback failed", "error", err)
		return nil
	}
	return hits
}

// Recent returns the last n messages of a session ordered by sequence_order.
func (s *Store) Recent(ctx context.Context, chatSessionID uuid.UUID, n int) ([]models.Message, error) {
	return s.db.RecentMessages(ctx, chatSessionID, n)
}

func (s *Store) vectorSearch(ctx context.Context, userID, agentID uuid.UUID, queryVector []float32, k int) ([]models.Message, error) {
	literal := vectorLiteral(queryVector)

	query := `
		SELECT m.id
		FROM message_embeddings me
		JOIN messages m ON m.id = me.message_id
		JOIN chat_sessions cs ON cs.id = m.chat_session_id
		WHERE cs.user_id = $1 AND cs.agent_id = $2
		ORDER BY me.vector <=> $3
		LIMIT $4
	`

	rows, err := s.db.QueryContext(ctx, query, userID, agentID, literal, k)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return s.db.MessagesByIDs(ctx, ids)
}

// vectorLiteral formats a vector for pgvector's text input syntax. The
// vector column is addressed via lib/pq as a SQL-text literal rather than
// a driver-aware type — the core has no pgvector Go binding dependency.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s *Store) lexicalSearch(ctx context.Context, userID, agentID uuid.UUID, queryText string, k int) ([]models.Message, error) {
	candidates, err := s.db.MessagesForUserAgent(ctx, userID, agentID, s.lexicalFallbackLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	queryTokens := tokenize(queryText)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	type scored struct {
		msg   models.Message
		score int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, m := range candidates {
		overlap := tokenOverlap(queryTokens, tokenize(m.Content))
		if overlap > 0 {
			ranked = append(ranked, scored{msg: m, score: overlap})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]models.Message, len(ranked))
	for i, r := range ranked {
		out[i] = r.msg
	}
	return out, nil
}

// tokenize lowercases and trims text, then splits it on whitespace. Unlike
// the cache fingerprint, it keeps trailing punctuation ("orders?" stays one
// token).
func tokenize(text string) map[string]struct{} {
	normalized := strings.ToLower(strings.TrimSpace(text))
	fields := strings.Fields(normalized)
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

func tokenOverlap(a, b map[string]struct{}) int {
	count := 0
	for t := range a {
		if _, ok := b[t]; ok {
			count++
		}
	}
	return count
}

// RenderHistoryBlock renders a bounded text block from deduplicated
// relevant + recent messages, capped at maxMessages — the text the
// prepare_context node injects into the model prompt. Per spec.md §4.6 it
// is split into a RECENT MESSAGES section and a SIMILAR CONVERSATIONS
// section, each item carrying its timestamp, role, content, and SQL when
// the message has one. A message present in both lists is rendered once,
// under RECENT MESSAGES — recency wins the dedup.
func RenderHistoryBlock(relevant, recent []models.Message, maxMessages int) string {
	seen := make(map[uuid.UUID]struct{})
	var recentOut, relevantOut []models.Message

	for _, m := range recent {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		recentOut = append(recentOut, m)
	}
	for _, m := range relevant {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		relevantOut = append(relevantOut, m)
	}

	if len(recentOut) > maxMessages {
		recentOut = recentOut[:maxMessages]
	}
	remaining := maxMessages - len(recentOut)
	if remaining < 0 {
		remaining = 0
	}
	if len(relevantOut) > remaining {
		relevantOut = relevantOut[:remaining]
	}

	var b strings.Builder
	renderHistorySection(&b, "RECENT MESSAGES", recentOut)
	renderHistorySection(&b, "SIMILAR CONVERSATIONS", relevantOut)
	return b.String()
}

func renderHistorySection(b *strings.Builder, label string, messages []models.Message) {
	if len(messages) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n", label)
	for _, m := range messages {
		if m.SQLQuery != "" {
			fmt.Fprintf(b, "[%s] %s: %s (SQL: %s)\n", m.CreatedAt.Format(time.RFC3339), m.Role, m.Content, m.SQLQuery)
		} else {
			fmt.Fprintf(b, "[%s] %s: %s\n", m.CreatedAt.Format(time.RFC3339), m.Role, m.Content)
		}
	}
	fmt.Fprintln(b)
}
