// internal/handlers/session.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cardtable/cardtable/internal/auth"
)

// extractCookieToken extracts a named cookie value from the Cookie header, or
// returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// EnsureGuestSocket returns the caller's stable socket identity. A guest
// arriving without a valid session cookie gets a fresh id and a signed
// cookie; a returning guest keeps the id from their token.
func EnsureGuestSocket(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), "session_token")
	if token != "" {
		if sub, err := auth.AuthenticateSessionToken(token); err == nil {
			if socketID, parseErr := uuid.Parse(sub); parseErr == nil {
				return socketID, nil
			}
		}
		// Invalid or stale token falls through to a fresh identity.
	}

	socketID := uuid.New()
	newToken, err := auth.CreateSessionToken(socketID.String())
	if err != nil {
		return uuid.Nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    newToken,
		HttpOnly: true,
		Path:     "/",
	})
	return socketID, nil
}
