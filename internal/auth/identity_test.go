package auth

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSenderIdentityPrefersExplicitSender(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"username": "token-bob"})
	if got := SenderIdentity("alice", token); got != "alice" {
		t.Fatalf("got %q, want alice", got)
	}
	if got := SenderIdentity("  alice  ", ""); got != "alice" {
		t.Fatalf("sender should be trimmed, got %q", got)
	}
}

func TestSenderIdentityFromTokenClaims(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"username": "bob"})
	if got := SenderIdentity("", token); got != "bob" {
		t.Fatalf("got %q, want bob", got)
	}

	subOnly := signedToken(t, jwt.MapClaims{"sub": "bob-sub"})
	if got := SenderIdentity("", subOnly); got != "bob-sub" {
		t.Fatalf("got %q, want bob-sub", got)
	}
}

func TestSenderIdentityFallsBackToGuest(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt"} {
		got := SenderIdentity("", token)
		if !strings.HasPrefix(got, "guest-") || len(got) <= len("guest-") {
			t.Fatalf("expected generated guest name, got %q", got)
		}
	}
}

func TestHeader(t *testing.T) {
	if h := Header(""); h != nil {
		t.Fatalf("no token should mean no header, got %v", h)
	}
	h := Header("tok")
	if got := h.Get("Authorization"); got != "Bearer tok" {
		t.Fatalf("got %q", got)
	}
}
