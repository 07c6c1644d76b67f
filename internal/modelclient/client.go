// Package modelclient is the HTTP collaborator contract to the natural
// language model that turns (question, schema context) into SQL, and
// (question, SQL, result rows) into a final answer — the process_query
// and refine_response nodes of internal/pipeline. It is grounded on the teacher's
// internal/services/rag_client.go: a resty client, retry-on-5xx, and a
// structured request/response pair per operation.
package modelclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/errors"
)

// Client calls the model collaborator's generate and refine endpoints.
type Client struct {
	http *resty.Client
}

// GenerateRequest asks the model to translate a question into SQL given
// schema context (table names, sample rows).
type GenerateRequest struct {
	Question      string   `json:"question"`
	ModelID       string   `json:"model_id"`
	Dialect       string   `json:"dialect"`
	Tables        []string `json:"tables"`
	SchemaContext string   `json:"schema_context"`
	HistoryText   string   `json:"history_text,omitempty"`
}

// GenerateResponse carries the generated SQL and the model's confidence
// rationale, if any. Candidates holds every candidate query the model
// emitted, in preference order, when it offered more than one — the
// pipeline keeps the first one that executes without error.
type GenerateResponse struct {
	SQL        string   `json:"sql"`
	Candidates []string `json:"candidates,omitempty"`
	Rationale  string   `json:"rationale,omitempty"`
}

// RefineRequest asks the model to turn executed-query results into a
// natural-language answer — the refine_response node, gated by
// AgentFlags.RefinementEnabled.
type RefineRequest struct {
	Question string        `json:"question"`
	ModelID  string         `json:"model_id"`
	SQL      string         `json:"sql"`
	Columns  []string       `json:"columns"`
	Rows     []map[string]any `json:"rows"`
}

// RefineResponse carries the model's natural-language answer.
type RefineResponse struct {
	Answer string `json:"answer"`
}

func New(cfg config.ModelHTTPConfig) *Client {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second)
	client.SetRetryCount(cfg.Retries)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(10 * time.Second)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	client.SetBaseURL(cfg.URL)

	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500
	})

	return &Client{http: client}
}

// Generate calls the model's SQL-generation endpoint. A non-200 response
// or transport failure surfaces as ErrModelError, which the pipeline's
// Outcome maps to a fatal node failure.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&GenerateResponse{}).
		Post("/generate")

	if err != nil {
		slog.Error("model generate request failed", "error", err)
		return nil, errors.New(errors.ErrModelError, "model generate request failed: "+err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("model generate returned error", "status", resp.StatusCode(), "body", string(resp.Body()))
		return nil, errors.New(errors.ErrModelError, "model generate returned non-200 status")
	}

	return resp.Result().(*GenerateResponse), nil
}

// CondenseRequest asks the model to condense a table list plus the user's
// question into a focused schema hint — the process_initial_context
// node's auxiliary call, gated by AgentFlags.ProcessingEnabled.
type CondenseRequest struct {
	Question string   `json:"question"`
	ModelID  string   `json:"model_id"`
	Tables   []string `json:"tables"`
}

// CondenseResponse carries the condensed schema hint.
type CondenseResponse struct {
	Hint string `json:"hint"`
}

// Condense calls the model's context-condensation endpoint.
func (c *Client) Condense(ctx context.Context, req CondenseRequest) (*CondenseResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&CondenseResponse{}).
		Post("/condense")

	if err != nil {
		slog.Error("model condense request failed", "error", err)
		return nil, errors.New(errors.ErrModelError, "model condense request failed: "+err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("model condense returned error", "status", resp.StatusCode(), "body", string(resp.Body()))
		return nil, errors.New(errors.ErrModelError, "model condense returned non-200 status")
	}

	return resp.Result().(*CondenseResponse), nil
}

// Refine calls the model's answer-synthesis endpoint.
func (c *Client) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&RefineResponse{}).
		Post("/refine")

	if err != nil {
		slog.Error("model refine request failed", "error", err)
		return nil, errors.New(errors.ErrModelError, "model refine request failed: "+err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("model refine returned error", "status", resp.StatusCode(), "body", string(resp.Body()))
		return nil, errors.New(errors.ErrModelError, "model refine returned non-200 status")
	}

	return resp.Result().(*RefineResponse), nil
}

// HealthCheck verifies the model collaborator is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return errors.New(errors.ErrModelError, "model health check failed: "+err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.New(errors.ErrModelError, "model collaborator unhealthy")
	}
	return nil
}
