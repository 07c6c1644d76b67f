package pipeline

import (
	"context"
	"log/slog"

	"github.com/queryforge/core/internal/modelclient"
)

// RefineResponse is node 7: when the agent has refinement_enabled, a
// second model pass rewrites the response for clarity given the prior
// output plus the original question. Soft — a refine failure is swallowed
// and the unrefined result stands.
func RefineResponse(ctx context.Context, deps *Deps, state *State) Outcome {
	if !state.Agent.Flags.RefinementEnabled {
		return Skip()
	}

	rows := make([]map[string]any, len(state.ResultRows))
	for i, row := range state.ResultRows {
		rows[i] = row
	}

	resp, err := deps.ModelClient.Refine(ctx, modelclient.RefineRequest{
		Question: state.UserInput,
		ModelID:  state.Agent.ModelID,
		SQL:      state.SQLQuery,
		Columns:  state.ResultColumns,
		Rows:     rows,
	})
	if err != nil {
		slog.Warn("refine_response: refine call failed, keeping the unrefined answer", "error", err)
		return Skip()
	}

	state.FormattedResponse = resp.Answer
	return Continue()
}
