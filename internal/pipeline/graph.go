package pipeline

import "context"

// NodeFunc is the signature every pipeline node implements.
type NodeFunc func(ctx context.Context, deps *Deps, state *State) Outcome

// Result is the pipeline's terminal verdict for one run.
type Result struct {
	Success      bool
	ErrorKind    ErrorKind
	ErrorMessage string
}

// Graph is the ten-node dispatcher of C5. It inspects each node's Outcome
// to route to the next node or to the terminal error node, per spec.md
// §4.3 and §9's design note.
type Graph struct {
	deps *Deps
}

func NewGraph(deps *Deps) *Graph {
	return &Graph{deps: deps}
}

// Run drives state through every node to a terminal Result. Fatal nodes
// (validate_input, prepare_context, process_query) short-circuit on Fail;
// soft nodes (check_cache, history_retrieve, refine_response,
// history_capture, cache_store) never produce a Fail outcome that reaches
// here — their own bodies downgrade internal errors to Skip.
func (g *Graph) Run(ctx context.Context, state *State) Result {
	if outcome := ValidateInput(ctx, g.deps, state); outcome.Kind == OutcomeFail {
		return fail(outcome)
	}

	cacheOutcome := CheckCache(ctx, g.deps, state)
	if cacheOutcome.Kind == OutcomeCacheHit {
		HistoryCapture(ctx, g.deps, state)
		return Result{Success: true}
	}

	HistoryRetrieve(ctx, g.deps, state)

	if outcome := PrepareContext(ctx, g.deps, state); outcome.Kind == OutcomeFail {
		return fail(outcome)
	}

	ProcessInitialContext(ctx, g.deps, state)

	if outcome := ProcessQuery(ctx, g.deps, state); outcome.Kind == OutcomeFail {
		return fail(outcome)
	}

	RefineResponse(ctx, g.deps, state)
	FormatResponse(ctx, g.deps, state)
	HistoryCapture(ctx, g.deps, state)
	CacheStore(ctx, g.deps, state)

	return Result{Success: true}
}

func fail(outcome Outcome) Result {
	return Result{Success: false, ErrorKind: outcome.ErrorKind, ErrorMessage: outcome.Message}
}
