package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/errors"
)

func newTestEmbedder(t *testing.T, dimension int, handler http.HandlerFunc) (*Embedder, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	e := New(config.EmbedderConfig{URL: srv.URL, Dimension: dimension, TimeoutSec: 5, Retries: 0})
	return e, srv.Close
}

func TestEmbedEmptyInputIsNoop(t *testing.T) {
	e, closeFn := newTestEmbedder(t, 3, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("Embed should not call the collaborator for an empty input slice")
	})
	defer closeFn()

	vectors, err := e.Embed(context.Background(), "test-model", nil)
	if err != nil {
		t.Fatalf("Embed(nil): %v", err)
	}
	if vectors != nil {
		t.Errorf("Embed(nil) = %v, want nil", vectors)
	}
}

func TestEmbedSuccess(t *testing.T) {
	e, closeFn := newTestEmbedder(t, 3, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct {
			Vectors [][]float32 `json:"vectors"`
		}{Vectors: [][]float32{{0.1, 0.2, 0.3}}})
	})
	defer closeFn()

	vectors, err := e.Embed(context.Background(), "test-model", []string{"hello"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != 3 {
		t.Errorf("Embed() = %v, want one 3-dimensional vector", vectors)
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	e, closeFn := newTestEmbedder(t, 3, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct {
			Vectors [][]float32 `json:"vectors"`
		}{Vectors: [][]float32{{0.1, 0.2}}})
	})
	defer closeFn()

	_, err := e.Embed(context.Background(), "test-model", []string{"hello"})
	if err == nil {
		t.Fatal("expected an error when the returned vector dimension doesn't match config")
	}
	appErr, ok := errors.IsAppError(err)
	if !ok || appErr.Code != errors.ErrModelError {
		t.Errorf("expected ErrModelError, got %v", err)
	}
}

func TestDimension(t *testing.T) {
	e, closeFn := newTestEmbedder(t, 1536, func(w http.ResponseWriter, r *http.Request) {})
	defer closeFn()

	if got := e.Dimension(); got != 1536 {
		t.Errorf("Dimension() = %d, want 1536", got)
	}
}
