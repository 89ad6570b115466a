package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_NonPositiveTTL(t *testing.T) {
	_, err := NewTokenService("this-is-16-chars", 0)
	if err == nil {
		t.Fatal("NewTokenService() should reject a zero TTL")
	}
}

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("ws-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Generate() token doesn't look like a JWT: %q", token)
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("ws-abc")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.WorkspaceID != "ws-abc" {
		t.Errorf("Validate() workspaceID = %q, want %q", got.WorkspaceID, "ws-abc")
	}
}

func TestValidate_ReportsExpiry(t *testing.T) {
	ts := newTestTokenService(t)
	before := time.Now()

	token, err := ts.GenerateWithDuration("ws-abc", 10*time.Minute)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	// NumericDate truncates to whole seconds.
	want := before.Add(10 * time.Minute).Truncate(time.Second)
	if got.ExpiresAt.Before(want) || got.ExpiresAt.After(want.Add(2*time.Second)) {
		t.Errorf("Validate() ExpiresAt = %v, want about %v", got.ExpiresAt, want)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration("ws-123", -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	if _, err := ts.Validate(token); err == nil {
		t.Fatal("Validate() should return an error for an expired token")
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Generate("ws-123")
	tampered := token[:len(token)-3] + "xxx"

	if _, err := ts.Validate(tampered); err == nil {
		t.Fatal("Validate() should return an error for a tampered token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!", time.Hour)
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)

	token, _ := ts1.Generate("ws-123")

	if _, err := ts2.Validate(token); err == nil {
		t.Fatal("Validate() should fail when using a different secret")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, in := range []string{"", "not.a.jwt.token", "abc"} {
		if _, err := ts.Validate(in); err == nil {
			t.Errorf("Validate(%q) should return an error", in)
		}
	}
}
