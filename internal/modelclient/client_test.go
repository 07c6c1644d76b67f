package modelclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := New(config.ModelHTTPConfig{URL: srv.URL, TimeoutSec: 5, Retries: 0})
	return c, srv.Close
}

func TestGenerateSuccess(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(GenerateResponse{SQL: "SELECT 1"})
	})
	defer closeFn()

	resp, err := c.Generate(context.Background(), GenerateRequest{Question: "how many orders?"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.SQL != "SELECT 1" {
		t.Errorf("SQL = %q, want %q", resp.SQL, "SELECT 1")
	}
}

func TestGenerateNon200SurfacesModelError(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeFn()

	_, err := c.Generate(context.Background(), GenerateRequest{Question: "x"})
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	appErr, ok := errors.IsAppError(err)
	if !ok || appErr.Code != errors.ErrModelError {
		t.Errorf("expected ErrModelError, got %v", err)
	}
}

func TestRefineSuccess(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RefineResponse{Answer: "there were 42 orders"})
	})
	defer closeFn()

	resp, err := c.Refine(context.Background(), RefineRequest{Question: "how many orders?", SQL: "SELECT 1"})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if resp.Answer != "there were 42 orders" {
		t.Errorf("Answer = %q, want %q", resp.Answer, "there were 42 orders")
	}
}

func TestHealthCheckUnhealthy(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer closeFn()

	if err := c.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected an error when the collaborator is unhealthy")
	}
}
