// Package embedder is the HTTP collaborator contract to the embedding
// model used by C4 (background history embedding) and C3's vector-search
// retrieval path. Grounded on the teacher's resty usage in
// internal/fetcher/fetcher.go and internal/services/rag_client.go.
package embedder

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/errors"
)

// Embedder calls the embedding collaborator's /embed endpoint.
type Embedder struct {
	http      *resty.Client
	dimension int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

func New(cfg config.EmbedderConfig) *Embedder {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second)
	client.SetRetryCount(cfg.Retries)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Second)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	client.SetBaseURL(cfg.URL)

	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500
	})

	return &Embedder{http: client, dimension: cfg.Dimension}
}

// Dimension returns the fixed width every returned vector must match.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed produces one vector per input string, in the teacher's modelName
// shape (model id passed explicitly rather than baked into the route); the
// history code passes the single configured history.embedding_model.
func (e *Embedder) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	resp, err := e.http.R().
		SetContext(ctx).
		SetBody(embedRequest{Model: model, Input: inputs}).
		SetResult(&embedResponse{}).
		Post("/embed")

	if err != nil {
		slog.Error("embedder request failed", "error", err)
		return nil, errors.New(errors.ErrModelError, "embedder request failed: "+err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("embedder returned error", "status", resp.StatusCode(), "body", string(resp.Body()))
		return nil, errors.New(errors.ErrModelError, "embedder returned non-200 status")
	}

	result := resp.Result().(*embedResponse)
	for _, v := range result.Vectors {
		if len(v) != e.dimension {
			return nil, errors.New(errors.ErrModelError, "embedder returned vector of unexpected dimension")
		}
	}
	return result.Vectors, nil
}

// HealthCheck verifies the embedding collaborator is reachable.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	resp, err := e.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return errors.New(errors.ErrModelError, "embedder health check failed: "+err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.New(errors.ErrModelError, "embedder unhealthy")
	}
	return nil
}
