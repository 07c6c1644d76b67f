package pipeline

import (
	"testing"

	"github.com/google/uuid"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("uuid.Parse(%q): %v", s, err)
	}
	return id
}

func TestContinueOutcome(t *testing.T) {
	o := Continue()
	if o.Kind != OutcomeContinue {
		t.Errorf("Kind = %v, want OutcomeContinue", o.Kind)
	}
}

func TestSkipOutcome(t *testing.T) {
	o := Skip()
	if o.Kind != OutcomeSkip {
		t.Errorf("Kind = %v, want OutcomeSkip", o.Kind)
	}
}

func TestFailOutcomeCarriesKindAndMessage(t *testing.T) {
	o := Fail(ErrorKind("QUERY_ERROR"), "syntax error near SELECT")
	if o.Kind != OutcomeFail {
		t.Errorf("Kind = %v, want OutcomeFail", o.Kind)
	}
	if o.ErrorKind != ErrorKind("QUERY_ERROR") {
		t.Errorf("ErrorKind = %v, want QUERY_ERROR", o.ErrorKind)
	}
	if o.Message != "syntax error near SELECT" {
		t.Errorf("Message = %q, want %q", o.Message, "syntax error near SELECT")
	}
}

func TestCacheHitOutcome(t *testing.T) {
	o := CacheHit()
	if o.Kind != OutcomeCacheHit {
		t.Errorf("Kind = %v, want OutcomeCacheHit", o.Kind)
	}
}

func TestNewStateSeedsRequiredFields(t *testing.T) {
	s := NewState(mustUUID(t, "11111111-1111-1111-1111-111111111111"),
		mustUUID(t, "22222222-2222-2222-2222-222222222222"),
		mustUUID(t, "33333333-3333-3333-3333-333333333333"),
		nil, "how many orders?")

	if s.UserInput != "how many orders?" {
		t.Errorf("UserInput = %q", s.UserInput)
	}
	if s.ChatSessionID != nil {
		t.Error("ChatSessionID should remain nil when not supplied")
	}
	if s.CacheHit {
		t.Error("a freshly seeded State must not claim a cache hit")
	}
}
