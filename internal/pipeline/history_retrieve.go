package pipeline

import (
	"context"
	"log/slog"

	"github.com/queryforge/core/internal/history"
)

// HistoryRetrieve is node 3: when history is enabled and a chat session
// exists, obtain the top-K semantically similar prior messages for
// (user_id, agent_id) plus the last N messages of the session, dedupe by
// id, and render a bounded text block. Soft — any failure yields
// relevant_history="", has_history=false and never propagates.
func HistoryRetrieve(ctx context.Context, deps *Deps, state *State) Outcome {
	if !deps.Config.History.Enabled || state.ChatSessionID == nil {
		state.RelevantHistory = ""
		state.HasHistory = false
		return Skip()
	}

	var queryVector []float32
	vectors, err := deps.Embedder.Embed(ctx, deps.Config.History.EmbeddingModel, []string{state.UserInput})
	if err != nil {
		slog.Warn("history_retrieve: embedding the query failed, falling back to lexical only", "error", err)
	} else if len(vectors) == 1 {
		queryVector = vectors[0]
	}

	relevant := deps.History.Relevant(ctx, state.UserID, state.AgentID, queryVector, state.UserInput, deps.Config.History.TopK)

	recent, err := deps.History.Recent(ctx, *state.ChatSessionID, deps.Config.History.RecentN)
	if err != nil {
		slog.Warn("history_retrieve: recent lookup failed", "error", err)
		recent = nil
	}

	block := history.RenderHistoryBlock(relevant, recent, deps.Config.History.MaxMessages)
	state.RelevantHistory = block
	state.HasHistory = block != ""

	return Continue()
}
