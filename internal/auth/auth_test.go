package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordAndCheck(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct-horse-battery-staple" {
		t.Error("hash must not equal the plaintext password")
	}
	if !CheckPasswordHash("correct-horse-battery-staple", hash) {
		t.Error("CheckPasswordHash should accept the password it was hashed from")
	}
	if CheckPasswordHash("wrong-password", hash) {
		t.Error("CheckPasswordHash should reject a mismatched password")
	}
}

func TestGenerateSessionTokenIsUniqueAndURLSafe(t *testing.T) {
	t1, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	t2, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	if t1 == t2 {
		t.Error("two generated tokens should not collide")
	}
	if strings.ContainsAny(t1, "+/") {
		t.Error("token should be URL-safe base64, not standard base64")
	}
}

func TestHashTokenIsDeterministic(t *testing.T) {
	token := "a-fixed-session-token"
	h1 := HashToken(token)
	h2 := HashToken(token)
	if h1 != h2 {
		t.Error("HashToken must be deterministic for the same input")
	}
	if h1 == token {
		t.Error("HashToken must not return the token unchanged")
	}
	if len(h1) != 64 {
		t.Errorf("expected a 64-char hex sha256 digest, got %d chars", len(h1))
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc123", "abc123", false},
		{"missing header", "", "", true},
		{"no scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"too many parts", "Bearer abc 123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractBearerToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
