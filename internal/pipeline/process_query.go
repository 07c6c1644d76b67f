package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/queryforge/core/internal/connection"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/modelclient"
	"github.com/queryforge/core/internal/registry"
)

var explicitLimitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)\b`)

// ProcessQuery is node 6: the core SQL-generation + execution step. Fatal
// — a model failure or every candidate query failing to execute raises
// QueryError/ModelError.
func ProcessQuery(ctx context.Context, deps *Deps, state *State) Outcome {
	timeout := time.Duration(deps.Config.Run.TimeoutDefaultSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := deps.ModelClient.Generate(runCtx, modelclient.GenerateRequest{
		Question:      state.UserInput,
		ModelID:       state.Agent.ModelID,
		Dialect:       string(state.ConnectionKind),
		Tables:        extractTableNames(state.SchemaSnippet),
		SchemaContext: state.SchemaSnippet + state.FocusedContext,
		HistoryText:   state.RelevantHistory,
	})
	if err != nil {
		return timeoutAwareFail(runCtx, errors.ErrModelError, err.Error())
	}

	candidates := resp.Candidates
	if len(candidates) == 0 && resp.SQL != "" {
		candidates = []string{resp.SQL}
	}
	if len(candidates) == 0 {
		return Fail(ErrorKind(errors.ErrModelError), "model returned no candidate query")
	}

	obj, err := deps.Registry.Get(registry.CategoryEngine, state.EngineRef)
	if err != nil {
		return Fail(ErrorKind(errors.ErrQueryError), "engine handle no longer available: "+err.Error())
	}
	engine := obj.(connection.EngineHandle)

	var lastErr error
	for _, candidate := range candidates {
		start := time.Now()
		rows, execErr := engine.Execute(runCtx, candidate, rowCapFor(candidate, state.Agent.TopK))
		if execErr != nil {
			lastErr = execErr
			continue
		}

		state.SQLQuery = candidate
		state.ResultColumns = rows.Columns
		state.ResultRows = rows.Rows
		state.ResultRowCount = len(rows.Rows)
		state.ExecutionMs = time.Since(start).Milliseconds()
		return Continue()
	}

	if lastErr != nil {
		return timeoutAwareFail(runCtx, errors.ErrQueryError, "every candidate query failed: "+lastErr.Error())
	}
	return Fail(ErrorKind(errors.ErrQueryError), "every candidate query failed")
}

// timeoutAwareFail reports TimeoutError instead of the node's usual fatal
// code when the per-run budget (runCtx) is what actually ended the call —
// per spec.md §7, a context deadline is TimeoutError regardless of which
// collaborator was in flight when it expired.
func timeoutAwareFail(runCtx context.Context, fallback errors.ErrorCode, message string) Outcome {
	if runCtx.Err() == context.DeadlineExceeded {
		return Fail(ErrorKind(errors.ErrTimeoutError), "run exceeded its per-run time budget")
	}
	return Fail(ErrorKind(fallback), message)
}

// rowCapFor applies top_k unless the model's own SQL explicitly requests a
// larger LIMIT, per spec.md §4.3 node 6's row-cap policy.
func rowCapFor(sql string, topK int) int {
	match := explicitLimitPattern.FindStringSubmatch(sql)
	if match == nil {
		return topK
	}
	explicit, err := strconv.Atoi(match[1])
	if err != nil || explicit <= topK {
		return topK
	}
	return explicit
}
