package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SenderIdentity resolves the display identity attached to outbound
// envelopes. An explicitly configured sender wins; otherwise the token's
// username claim is used; otherwise a throwaway guest name is generated.
//
// The identity is presentation data, not a credential. The server is the
// one that verifies the token; the client only reads claims to avoid
// asking the user for a name they already carry.
func SenderIdentity(sender, token string) string {
	if s := strings.TrimSpace(sender); s != "" {
		return s
	}
	if name := usernameFromToken(token); name != "" {
		return name
	}
	return fmt.Sprintf("guest-%s", uuid.NewString()[:8])
}

// Header returns the headers to attach to the WebSocket dial and the
// upload request. Nil when no token is configured.
func Header(token string) http.Header {
	if token == "" {
		return nil
	}
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	return h
}

func usernameFromToken(token string) string {
	if token == "" {
		return ""
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	if name, ok := claims["username"].(string); ok && name != "" {
		return name
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}
