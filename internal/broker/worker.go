package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/alitto/pond"

	"github.com/queryforge/core/internal/models"
	"github.com/queryforge/core/internal/pipeline"
)

// Worker pulls jobs from a Broker and drives each through the pipeline
// Graph to a terminal state, bounded by an alitto/pond pool sized from
// WORKER_CONCURRENCY — generalizing the teacher's
// internal/workers/pool.go PoolManager from article-processing
// concurrency to run-processing concurrency.
type Worker struct {
	broker      *Broker
	graph       *pipeline.Graph
	deps        *pipeline.Deps
	consumerID  string
	pool        *pond.WorkerPool
	runTimeout  time.Duration
	pullBlock   time.Duration
	pullBatch   int64
}

func NewWorker(b *Broker, graph *pipeline.Graph, deps *pipeline.Deps, consumerID string, concurrency int, runTimeout time.Duration) *Worker {
	return &Worker{
		broker:     b,
		graph:      graph,
		deps:       deps,
		consumerID: consumerID,
		pool:       pond.New(concurrency, concurrency*4, pond.MinWorkers(1)),
		runTimeout: runTimeout,
		pullBlock:  5 * time.Second,
		pullBatch:  int64(concurrency),
	}
}

// Run loops pulling jobs until ctx is cancelled, submitting each delivery
// to the bounded pool for straight-line pipeline execution. Concurrency
// exists only across pipeline instances, never within one — each
// goroutine runs its nodes sequentially, per spec.md §5.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.pool.StopAndWait()
			return
		default:
		}

		deliveries, err := w.broker.Pull(ctx, w.consumerID, w.pullBatch, w.pullBlock)
		if err != nil {
			slog.Error("worker: pull failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		stale, err := w.broker.ReclaimStale(ctx, w.consumerID, w.pullBatch)
		if err != nil {
			slog.Warn("worker: reclaim failed", "error", err)
		}
		deliveries = append(deliveries, stale...)

		for _, d := range deliveries {
			delivery := d
			w.pool.Submit(func() {
				w.process(ctx, delivery)
			})
		}
	}
}

// process executes steps 2-7 of spec.md §4.4's worker loop for one
// delivery.
func (w *Worker) process(ctx context.Context, delivery Delivery) {
	job := delivery.Job

	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	ok, err := w.deps.DB.MarkRunning(runCtx, job.RunID)
	if err != nil || !ok {
		// The run is already terminal (success/failure/cancelled) — ack and
		// drop, no duplicate processing. A run still queued or running is
		// always re-acquired: this delivery only exists because ReclaimStale
		// reclaimed it past the visibility timeout, so any prior holder is
		// presumed dead.
		w.broker.Ack(ctx, delivery.ID)
		return
	}

	state := pipeline.NewState(job.RunID, job.UserID, job.AgentID, job.ChatSessionID, job.Question)

	defer func() {
		if state.EngineRef != "" {
			w.deps.Registry.Drop(state.EngineRef)
		}
		if state.AgentBundleRef != "" {
			w.deps.Registry.Drop(state.AgentBundleRef)
		}
	}()

	result := w.graph.Run(runCtx, state)

	if result.Success {
		_, err = w.deps.DB.CompleteRun(
			runCtx, job.RunID, models.RunSuccess,
			state.SQLQuery, renderResultData(state), state.ExecutionMs, state.ResultRowCount, "",
		)
	} else {
		_, err = w.deps.DB.CompleteRun(
			runCtx, job.RunID, models.RunFailure,
			state.SQLQuery, "", state.ExecutionMs, 0, string(result.ErrorKind),
		)
	}
	if err != nil {
		slog.Error("worker: failed to write terminal run record", "run_id", job.RunID, "error", err)
	}

	w.broker.Ack(ctx, delivery.ID)
}

func renderResultData(state *pipeline.State) string {
	return state.FormattedResponse
}
