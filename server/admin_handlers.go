package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/jrsteele09/go-token-server/token"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// AdminTokensListHandler lists stored token records. Token strings are never
// serialised.
func (s *Server) AdminTokensListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := pagination(r)
		tokens, err := s.auth.ListTokens(r.Context(), offset, limit)
		if err != nil {
			writeServiceError(w, err, errorServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tokens": tokens,
			"offset": offset,
			"limit":  limit,
		})
	}
}

// AdminRevokeTokenHandler deletes the token owned by the subject in the path.
// ?kind=client targets a client; users are the default.
func (s *Server) AdminRevokeTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID := r.PathValue("id")
		kind, ok := subjectKind(r.URL.Query().Get("kind"))
		if !ok {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "kind must be user or client", http.StatusBadRequest)
			return
		}
		revoked, err := s.auth.Revoke(r.Context(), kind, subjectID)
		if err != nil {
			writeServiceError(w, err, errorServerError)
			return
		}
		if !revoked {
			writeJSONError(w, "not_found", "Subject has no token", http.StatusNotFound)
			return
		}

		if principal, ok := PrincipalFromContext(r.Context()); ok {
			log.Info().Str("admin_id", principal.SubjectID()).Str("subject_kind", string(kind)).Str("subject_id", subjectID).Msg("admin revoked token")
		}
		writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
	}
}

func subjectKind(value string) (token.SubjectKind, bool) {
	switch token.SubjectKind(value) {
	case "", token.SubjectUser:
		return token.SubjectUser, true
	case token.SubjectClient:
		return token.SubjectClient, true
	}
	return "", false
}

// pagination reads ?offset= and ?limit=, clamping both.
func pagination(r *http.Request) (int, int) {
	q := r.URL.Query()
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}
