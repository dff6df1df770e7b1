package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-token-server/users"
)

// CurrentUser returns the authenticated user's record
func (s *Server) CurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok || principal.User == nil {
			writeJSONError(w, errorForbidden, "Only users have a current user record", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, principal.User)
	}
}

// FindUsers looks a user up by ?email=, or lists users for admins
func (s *Server) FindUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
			user, err := s.repos.Users.GetByEmail(r.Context(), email)
			if err != nil {
				writeServiceError(w, err, errorServerError)
				return
			}
			writeJSON(w, http.StatusOK, user)
			return
		}

		offset, limit := pagination(r)
		list, err := s.repos.Users.List(r.Context(), offset, limit)
		if err != nil {
			writeServiceError(w, err, errorServerError)
			return
		}
		if list == nil {
			list = []*users.User{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// UserByID returns the user named in the path
func (s *Server) UserByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.repos.Users.GetByID(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err, errorServerError)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
