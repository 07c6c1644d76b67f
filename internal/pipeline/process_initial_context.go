package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/queryforge/core/internal/modelclient"
)

// ProcessInitialContext is node 5: when the agent has processing_enabled,
// an auxiliary model call condenses the table list and question into a
// focused schema hint appended to the prompt. Disabling the flag bypasses
// the node entirely.
func ProcessInitialContext(ctx context.Context, deps *Deps, state *State) Outcome {
	if !state.Agent.Flags.ProcessingEnabled {
		return Skip()
	}

	tables := extractTableNames(state.SchemaSnippet)

	resp, err := deps.ModelClient.Condense(ctx, modelclient.CondenseRequest{
		Question: state.UserInput,
		ModelID:  state.Agent.ModelID,
		Tables:   tables,
	})
	if err != nil {
		slog.Warn("process_initial_context: condense call failed, continuing without a focused hint", "error", err)
		return Skip()
	}

	state.FocusedContext = resp.Hint
	return Continue()
}

func extractTableNames(schemaSnippet string) []string {
	var tables []string
	for _, line := range strings.Split(schemaSnippet, "\n") {
		if !strings.HasPrefix(line, "table ") {
			continue
		}
		rest := strings.TrimPrefix(line, "table ")
		if idx := strings.Index(rest, " "); idx >= 0 {
			tables = append(tables, rest[:idx])
		}
	}
	return tables
}
