package pipeline

import (
	"context"
	"log/slog"

	"github.com/queryforge/core/internal/cache"
)

// CacheStore is node 10: persists (fingerprint → formatted_response,
// sql_query) to C8. Best-effort — a write failure logs and is swallowed.
func CacheStore(ctx context.Context, deps *Deps, state *State) Outcome {
	if deps.Cache == nil || state.Fingerprint == "" {
		return Skip()
	}

	err := deps.Cache.Put(ctx, state.AgentID, state.Fingerprint, &cache.Entry{
		Answer:  state.FormattedResponse,
		SQLUsed: state.SQLQuery,
	})
	if err != nil {
		slog.Warn("cache_store failed", "run_id", state.RunID, "error", err)
		return Skip()
	}

	return Continue()
}
