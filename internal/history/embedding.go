package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/alitto/pond"
	"github.com/google/uuid"

	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/embedder"
)

// EmbeddingPool is C4: a background worker pool fed by message ids that
// loads each message, obtains a vector from the Embedder collaborator, and
// upserts a MessageEmbedding row. Grounded on the teacher's
// internal/workers/pool.go PoolManager, generalized from one pond pool per
// task kind to one pool for this single background concern.
type EmbeddingPool struct {
	pool         *pond.WorkerPool
	db           *database.DB
	embedder     *embedder.Embedder
	modelVersion string
	maxRetries   int
}

func NewEmbeddingPool(workers int, db *database.DB, emb *embedder.Embedder, modelVersion string, maxRetries int) *EmbeddingPool {
	return &EmbeddingPool{
		pool: pond.New(
			workers,
			workers*4,
			pond.MinWorkers(1),
			pond.IdleTimeout(30*time.Second),
		),
		db:           db,
		embedder:     emb,
		modelVersion: modelVersion,
		maxRetries:   maxRetries,
	}
}

// Enqueue schedules background embedding generation for one message. A
// failure to enqueue (pool full, pool stopped) is intentionally silent —
// the message remains searchable only lexically, per spec.md §4.7.
func (p *EmbeddingPool) Enqueue(messageID uuid.UUID) {
	p.pool.Submit(func() {
		p.generate(context.Background(), messageID)
	})
}

// generate loads the message, obtains its vector, and upserts a
// MessageEmbedding. On persistent failure after 1+maxRetries attempts it
// logs and returns — the message stays lexically searchable only.
func (p *EmbeddingPool) generate(ctx context.Context, messageID uuid.UUID) {
	messages, err := p.db.MessagesByIDs(ctx, []uuid.UUID{messageID})
	if err != nil || len(messages) == 0 {
		slog.Warn("embedding generation: message not found", "message_id", messageID, "error", err)
		return
	}
	content := messages[0].Content

	var vectors [][]float32
	var embedErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		vectors, embedErr = p.embedder.Embed(ctx, p.modelVersion, []string{content})
		if embedErr == nil && len(vectors) == 1 {
			break
		}
		time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
	}
	if embedErr != nil || len(vectors) != 1 {
		slog.Warn("embedding generation failed after retries", "message_id", messageID, "error", embedErr)
		return
	}

	if err := p.db.UpsertMessageEmbedding(ctx, messageID, vectors[0], p.modelVersion); err != nil {
		slog.Warn("embedding upsert failed", "message_id", messageID, "error", err)
	}
}

// Shutdown drains in-flight embedding jobs before returning.
func (p *EmbeddingPool) Shutdown() {
	p.pool.StopAndWait()
}
