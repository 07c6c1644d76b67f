package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/queryforge/core/internal/errors"
)

// UpsertMessageEmbedding stores a message's vector, replacing any prior
// vector for the same message — a message has at most one embedding.
// The vector is written as a pgvector text literal via lib/pq rather than
// a driver-aware binding, per the connection abstraction's SQL-text-level
// treatment of vector columns.
func (db *DB) UpsertMessageEmbedding(ctx context.Context, messageID uuid.UUID, vector []float32, modelVersion string) error {
	query := `
		INSERT INTO message_embeddings (message_id, vector, model_version)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id)
		DO UPDATE SET vector = EXCLUDED.vector, model_version = EXCLUDED.model_version, created_at = NOW()
	`
	_, err := db.ExecContext(ctx, query, messageID, vectorLiteral(vector), modelVersion)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
