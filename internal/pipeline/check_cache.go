package pipeline

import (
	"context"
	"fmt"

	"github.com/queryforge/core/internal/cache"
)

// CheckCache is node 2: compute the fingerprint and look up C8. A hit
// routes to history_capture (to still record the exchange) then straight
// to finalise, bypassing every generation node. A miss routes to
// history_retrieve. Soft — a cache-layer error is treated as a miss, never
// propagated.
func CheckCache(ctx context.Context, deps *Deps, state *State) Outcome {
	schemaVersion := fmt.Sprintf("%s:%s", state.Agent.ConnectionID, state.Agent.IncludedTables)
	state.Fingerprint = cache.Fingerprint(state.AgentID, state.UserInput, schemaVersion)

	if deps.Cache == nil {
		return Continue()
	}

	entry, hit, err := deps.Cache.Get(ctx, state.AgentID, state.Fingerprint)
	if err != nil || !hit {
		return Continue()
	}

	state.FormattedResponse = entry.Answer
	state.SQLQuery = entry.SQLUsed
	state.CacheHit = true
	return CacheHit()
}
