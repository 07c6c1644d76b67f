package database

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNullStringToString(t *testing.T) {
	if got := NullStringToString(sql.NullString{String: "hi", Valid: true}); got != "hi" {
		t.Errorf("NullStringToString(valid) = %q, want %q", got, "hi")
	}
	if got := NullStringToString(sql.NullString{Valid: false}); got != "" {
		t.Errorf("NullStringToString(invalid) = %q, want empty string", got)
	}
}

func TestStringToNullString(t *testing.T) {
	if ns := StringToNullString(""); ns.Valid {
		t.Error("StringToNullString(\"\") should be invalid")
	}
	ns := StringToNullString("hi")
	if !ns.Valid || ns.String != "hi" {
		t.Errorf("StringToNullString(\"hi\") = %+v, want valid with String=hi", ns)
	}
}

func TestNullTimeToTime(t *testing.T) {
	if got := NullTimeToTime(sql.NullTime{Valid: false}); got != nil {
		t.Errorf("NullTimeToTime(invalid) = %v, want nil", got)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := NullTimeToTime(sql.NullTime{Time: now, Valid: true})
	if got == nil || !got.Equal(now) {
		t.Errorf("NullTimeToTime(valid) = %v, want %v", got, now)
	}
}

func TestTimeToNullTime(t *testing.T) {
	if nt := TimeToNullTime(nil); nt.Valid {
		t.Error("TimeToNullTime(nil) should be invalid")
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nt := TimeToNullTime(&now)
	if !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("TimeToNullTime(&now) = %+v, want valid with Time=%v", nt, now)
	}
}

func TestGenerateChatSessionTitleFromFirstMessage(t *testing.T) {
	if got := GenerateChatSessionTitle("how many orders last month"); got != "how many orders last month" {
		t.Errorf("GenerateChatSessionTitle(short) = %q, want unchanged", got)
	}
}

func TestGenerateChatSessionTitleTruncatesLongMessage(t *testing.T) {
	long := strings.Repeat("x", 80)
	got := GenerateChatSessionTitle(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("GenerateChatSessionTitle(long) = %q, want a ... suffix", got)
	}
	if len(got) != 53 {
		t.Errorf("GenerateChatSessionTitle(long) length = %d, want 53 (50 + '...')", len(got))
	}
}

func TestGenerateChatSessionTitleFallsBackToStamp(t *testing.T) {
	got := GenerateChatSessionTitle("")
	if !strings.HasPrefix(got, "Session ") {
		t.Errorf("GenerateChatSessionTitle(\"\") = %q, want a 'Session ' prefix", got)
	}
}

func TestVectorLiteral(t *testing.T) {
	if got := vectorLiteral([]float32{1, 0.5, -2}); got != "[1,0.5,-2]" {
		t.Errorf("vectorLiteral(...) = %q, want %q", got, "[1,0.5,-2]")
	}
	if got := vectorLiteral(nil); got != "[]" {
		t.Errorf("vectorLiteral(nil) = %q, want %q", got, "[]")
	}
}

func TestNullUUID(t *testing.T) {
	if got := nullUUID(nil); got.Valid {
		t.Error("nullUUID(nil) should be invalid")
	}
	id := uuid.New()
	got := nullUUID(&id)
	if !got.Valid || got.UUID != id {
		t.Errorf("nullUUID(&id) = %+v, want valid with UUID=%v", got, id)
	}
}

func TestUUIDArray(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := uuidArray([]uuid.UUID{a, b})
	if len(got) != 2 || got[0] != a.String() || got[1] != b.String() {
		t.Errorf("uuidArray(...) = %v, want [%s %s]", got, a, b)
	}
	if got := uuidArray(nil); len(got) != 0 {
		t.Errorf("uuidArray(nil) = %v, want empty slice", got)
	}
}
