package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-token-server/auth"
	"github.com/jrsteele09/go-token-server/roles"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyPrincipal stores the authenticated *auth.Principal
	ContextKeyPrincipal ContextKey = "principal"
)

// PrincipalFromContext returns the caller resolved by RequireAuth.
func PrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(*auth.Principal)
	return p, ok && p != nil
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "Missing Authorization header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", "Invalid Authorization header format"
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "Empty token"
	}
	return token, ""
}

// RequireAuth is middleware that validates a Bearer access token
// and injects the resolved principal into the request context
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				writeJSONError(w, errorUnauthorized, problem, http.StatusUnauthorized)
				return
			}

			if err := s.validator.ValidateAccessToken(token); err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				writeJSONError(w, errorUnauthorized, err.Error(), http.StatusUnauthorized)
				return
			}

			principal, err := s.auth.Authenticate(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				writeServiceError(w, err, errorUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAction is middleware that gates a route on a named action. It must
// be chained after RequireAuth. target may be nil for actions that don't
// inspect the request.
func (s *Server) RequireAction(action roles.Action, target func(*http.Request) roles.Request) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeJSONError(w, errorUnauthorized, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var request roles.Request
			if target != nil {
				request = target(r)
			}
			if err := s.authorizer.Authorize(principal, action, request); err != nil {
				writeServiceError(w, err, errorForbidden)
				return
			}
			next(w, r)
		}
	}
}
