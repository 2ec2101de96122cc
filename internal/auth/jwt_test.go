package auth

import (
	"errors"
	"testing"
	"time"

	"campusconnect/internal/model"
)

func testCodec() *Codec {
	return NewCodec("test-secret", "test-issuer", 15*time.Minute, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := testCodec()
	token, err := codec.IssueAccess(42, "student@campus.edu", model.RoleStudent, time.Now())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	claims, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("expected subject 42, got %d (%v)", id, err)
	}
	if claims.Email != "student@campus.edu" || claims.Role != string(model.RoleStudent) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.IsRefresh() {
		t.Fatalf("access token must not carry the refresh kind")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := testCodec()
	token, err := codec.IssueRefresh(42, time.Now())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	claims, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("expected subject 42, got %d (%v)", id, err)
	}
	if !claims.IsRefresh() {
		t.Fatalf("refresh token must carry the refresh kind")
	}
	if claims.Role != "" {
		t.Fatalf("refresh token must not carry a role claim, got %q", claims.Role)
	}
}

func TestParseExpired(t *testing.T) {
	codec := testCodec()
	token, err := codec.IssueAccess(1, "a@b.c", model.RoleStudent, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := codec.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, err := testCodec().IssueAccess(1, "a@b.c", model.RoleStudent, time.Now())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	other := NewCodec("other-secret", "test-issuer", time.Minute, time.Minute)
	if _, err := other.Parse(token); !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}

func TestParseGarbage(t *testing.T) {
	codec := testCodec()
	for _, garbage := range []string{"", "not-a-token", "a.b", "a.b.c.d", "🙂🙂🙂"} {
		if _, err := codec.Parse(garbage); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("garbage %q: expected ErrTokenMalformed, got %v", garbage, err)
		}
	}
}

func TestParseWrongIssuer(t *testing.T) {
	other := NewCodec("test-secret", "someone-else", time.Minute, time.Minute)
	token, err := other.IssueAccess(1, "a@b.c", model.RoleStudent, time.Now())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := testCodec().Parse(token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}
