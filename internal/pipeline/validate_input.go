package pipeline

import (
	"context"

	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/validation"
)

// ValidateInput is node 1: non-empty question, known agent, user owns
// agent. Fatal — any failure short-circuits the run to the terminal error
// node with InvalidInput.
func ValidateInput(ctx context.Context, deps *Deps, state *State) Outcome {
	if err := validation.ValidateQuestion(state.UserInput); err != nil {
		return Fail(ErrorKind(errors.ErrInvalidInput), err.Error())
	}

	agent, err := deps.DB.GetAgent(ctx, state.AgentID)
	if err != nil {
		return Fail(ErrorKind(errors.ErrInvalidInput), "unknown agent")
	}

	if err := deps.DB.CheckAgentOwnership(ctx, state.AgentID, state.UserID); err != nil {
		return Fail(ErrorKind(errors.ErrInvalidInput), "user does not own agent")
	}

	conn, err := deps.DB.GetConnection(ctx, agent.ConnectionID)
	if err != nil {
		return Fail(ErrorKind(errors.ErrInvalidInput), "agent's connection no longer exists")
	}

	state.Agent = agent
	state.Connection = conn
	state.ConnectionID = conn.ID
	state.ConnectionKind = conn.Kind

	return Continue()
}
