package pipeline

import (
	"context"
	"fmt"
)

// FormatResponse is node 8: a deterministic template combining a
// human-readable narrative, a fenced SQL block, and metadata markers. The
// format is stable because the UI parses it back apart to separate
// narrative from SQL.
func FormatResponse(ctx context.Context, deps *Deps, state *State) Outcome {
	narrative := state.FormattedResponse
	if narrative == "" {
		narrative = defaultNarrative(state.ResultRowCount)
	}

	state.FormattedResponse = fmt.Sprintf(
		"%s\n\n```sql\n%s\n```\n\n<!-- execution_ms=%d row_count=%d -->",
		narrative, state.SQLQuery, state.ExecutionMs, state.ResultRowCount,
	)

	return Continue()
}

func defaultNarrative(rowCount int) string {
	if rowCount == 1 {
		return "Found 1 matching row."
	}
	return fmt.Sprintf("Found %d matching rows.", rowCount)
}
