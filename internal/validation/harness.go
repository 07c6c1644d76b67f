// Package validation holds two unrelated concerns the teacher also kept in
// one small package: request-shape validation helpers (pure functions) and
// the Validation Harness (C9), an on-demand answer-quality judge.
package validation

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// Harness re-scores completed runs against a secondary judge model. It is
// never on the run's hot path — invoked on demand, by run id, after the
// fact.
type Harness struct {
	http *resty.Client
	db   *database.DB
}

type judgeRequest struct {
	Question   string `json:"question"`
	SQLUsed    string `json:"sql_used"`
	ResultData string `json:"result_data"`
}

type judgeResponse struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

func NewHarness(cfg config.ModelHTTPConfig, db *database.DB) *Harness {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetBaseURL(cfg.JudgeURL)
	client.SetRetryCount(cfg.Retries)

	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500
	})

	return &Harness{http: client, db: db}
}

// Score judges one run: fetches its terminal question/sql_used/result_data,
// sends them to the judge model, and persists the returned
// {run_id, score, rationale} triple.
func (h *Harness) Score(ctx context.Context, runID uuid.UUID) (*models.ValidationVerdict, error) {
	run, err := h.db.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != models.RunSuccess {
		return nil, errors.New(errors.ErrInvalidInput, fmt.Sprintf("run %s is not in a judgeable terminal state", runID))
	}

	resp, err := h.http.R().
		SetContext(ctx).
		SetBody(judgeRequest{Question: run.Question, SQLUsed: run.SQLUsed, ResultData: run.ResultData}).
		SetResult(&judgeResponse{}).
		Post("")

	if err != nil {
		return nil, errors.New(errors.ErrModelError, "judge request failed: "+err.Error())
	}
	if resp.StatusCode() != 200 {
		return nil, errors.New(errors.ErrModelError, "judge returned non-200 status")
	}

	judged := resp.Result().(*judgeResponse)
	verdict := &models.ValidationVerdict{
		RunID:     runID,
		Score:     judged.Score,
		Rationale: judged.Rationale,
	}
	if err := h.db.PutValidationVerdict(ctx, verdict); err != nil {
		return nil, err
	}
	return verdict, nil
}

// ScoreBatch judges many runs, continuing past individual failures and
// returning every verdict that did succeed alongside the first error
// observed, if any — a partial result is still useful to the caller.
func (h *Harness) ScoreBatch(ctx context.Context, runIDs []uuid.UUID) ([]models.ValidationVerdict, error) {
	var verdicts []models.ValidationVerdict
	var firstErr error
	for _, id := range runIDs {
		v, err := h.Score(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		verdicts = append(verdicts, *v)
	}
	return verdicts, firstErr
}
