/**
 * @description
 * This file contains custom middleware for the HTTP router. Two credentials
 * exist: static API keys (machine callers, X-API-Key header) and short-lived
 * session tokens (operators, Authorization: Bearer). Most routes accept
 * either; cluster operations take API keys and the admin-only routes require
 * an admin session.
 *
 * @dependencies
 * - context, crypto/subtle, net/http, strings: Standard Go libraries.
 * - internal/users: Session token verification.
 */

package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/walinzi/tps-gateway/internal/users"
)

// SessionContextKey is a custom type for the context key to avoid collisions.
type SessionContextKey string

const sessionClaimsKey SessionContextKey = "sessionClaims"

// SessionFromContext returns the verified session claims, if any.
func SessionFromContext(ctx context.Context) (*users.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(*users.SessionClaims)
	return claims, ok
}

func (h *Handlers) matchesAPIKey(key string) bool {
	if key == "" {
		return false
	}
	ok := false
	for _, configured := range h.apiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(configured)) == 1 {
			ok = true
		}
	}
	return ok
}

func (h *Handlers) sessionFromRequest(r *http.Request) (*users.SessionClaims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, false
	}
	claims, err := h.tokens.Verify(tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireAPIKey admits only requests carrying a configured X-API-Key.
func (h *Handlers) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.matchesAPIKey(r.Header.Get("X-API-Key")) {
			h.writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth admits a valid API key or a valid session token. A session, if
// present and valid, lands in the request context.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.matchesAPIKey(r.Header.Get("X-API-Key")) {
			next.ServeHTTP(w, r)
			return
		}
		if claims, ok := h.sessionFromRequest(r); ok {
			ctx := context.WithValue(r.Context(), sessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
	})
}

// RequireSession admits only a valid session token.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := h.sessionFromRequest(r)
		if !ok {
			h.writeError(w, http.StatusUnauthorized, "Valid session token required")
			return
		}
		ctx := context.WithValue(r.Context(), sessionClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin admits only sessions carrying the admin role. It must run
// after RequireSession.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := SessionFromContext(r.Context())
		if !ok || claims.Role != users.RoleAdmin {
			h.writeError(w, http.StatusForbidden, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
