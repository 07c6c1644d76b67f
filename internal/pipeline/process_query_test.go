package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/queryforge/core/internal/errors"
)

func TestTimeoutAwareFailMapsDeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	outcome := timeoutAwareFail(ctx, errors.ErrModelError, "model call failed")
	if outcome.Kind != OutcomeFail {
		t.Fatalf("Kind = %v, want OutcomeFail", outcome.Kind)
	}
	if outcome.ErrorKind != ErrorKind(errors.ErrTimeoutError) {
		t.Errorf("ErrorKind = %v, want %v", outcome.ErrorKind, errors.ErrTimeoutError)
	}
}

func TestTimeoutAwareFailUsesFallbackWhenNotExpired(t *testing.T) {
	ctx := context.Background()

	outcome := timeoutAwareFail(ctx, errors.ErrModelError, "model call failed")
	if outcome.Kind != OutcomeFail {
		t.Fatalf("Kind = %v, want OutcomeFail", outcome.Kind)
	}
	if outcome.ErrorKind != ErrorKind(errors.ErrModelError) {
		t.Errorf("ErrorKind = %v, want %v", outcome.ErrorKind, errors.ErrModelError)
	}
	if outcome.Message != "model call failed" {
		t.Errorf("Message = %q, want %q", outcome.Message, "model call failed")
	}
}

func TestRowCapForExplicitLimit(t *testing.T) {
	if got := rowCapFor("SELECT * FROM orders LIMIT 500", 50); got != 500 {
		t.Errorf("rowCapFor(explicit > topK) = %d, want 500", got)
	}
}

func TestRowCapForNoLimitUsesTopK(t *testing.T) {
	if got := rowCapFor("SELECT * FROM orders", 50); got != 50 {
		t.Errorf("rowCapFor(no limit) = %d, want 50", got)
	}
}

func TestRowCapForExplicitLimitBelowTopK(t *testing.T) {
	if got := rowCapFor("SELECT * FROM orders LIMIT 5", 50); got != 50 {
		t.Errorf("rowCapFor(explicit < topK) = %d, want 50 (topK wins)", got)
	}
}
