package server

import (
	"net/http"

	"github.com/jrsteele09/go-token-server/roles"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.Health(), s.APIMiddleware()...))

	// OAuth2 token endpoint (credentials in the body, no bearer)
	s.RegisterRouteHandler("POST "+RouteOAuth2Token, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteFunc("OPTIONS "+RouteOAuth2Token, ChainMiddleware(preflightOnly, s.APIMiddleware()...))

	// Bearer protected routes
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.Logout(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteUsersCurrent, ChainMiddleware(s.CurrentUser(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteUsers, ChainMiddleware(s.FindUsers(),
		s.APIMiddleware(s.RequireAuth(), s.RequireAction(roles.ActionModifyUser, targetFromRequest))...))
	s.RegisterRouteHandler("GET "+RouteUserByID, ChainMiddleware(s.UserByID(),
		s.APIMiddleware(s.RequireAuth(), s.RequireAction(roles.ActionModifyUser, targetFromRequest))...))

	// Admin routes
	s.RegisterRouteHandler("GET "+RouteAdminTokens, ChainMiddleware(s.AdminTokensListHandler(),
		s.APIMiddleware(s.RequireAuth(), s.RequireAction(roles.ActionAdmin, nil))...))
	s.RegisterRouteHandler("DELETE "+RouteAdminSubjectToken, ChainMiddleware(s.AdminRevokeTokenHandler(),
		s.APIMiddleware(s.RequireAuth(), s.RequireAction(roles.ActionAdmin, nil))...))
}

// targetFromRequest reads the user a "modify user" request acts on.
func targetFromRequest(r *http.Request) roles.Request {
	return roles.Request{
		TargetID:    r.PathValue("id"),
		TargetEmail: r.URL.Query().Get("email"),
	}
}

// preflightOnly answers OPTIONS once CorsMiddleware has set its headers.
func preflightOnly(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
