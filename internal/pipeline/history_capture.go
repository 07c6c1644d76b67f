package pipeline

import (
	"context"
	"log/slog"
)

// HistoryCapture is node 9: writes the user/assistant message pair to C3,
// which itself increments total_messages, bumps last_activity, and
// enqueues embedding jobs. Side-effect-only from the pipeline's
// perspective — a failure here logs a warning but never fails the run.
func HistoryCapture(ctx context.Context, deps *Deps, state *State) Outcome {
	if state.ChatSessionID == nil {
		slog.Warn("history_capture: no chat session on state, skipping capture")
		return Skip()
	}

	runID := state.RunID
	_, _, err := deps.History.Capture(ctx, *state.ChatSessionID, &runID, state.UserInput, state.FormattedResponse, state.SQLQuery)
	if err != nil {
		slog.Warn("history_capture failed", "run_id", state.RunID, "error", err)
		return Skip()
	}

	return Continue()
}
