package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 Routes
	RouteOAuth2Token = "/oauth2/token"
	RouteAuthLogout  = "/auth/logout"

	// User Routes
	RouteUsers        = "/users"
	RouteUsersCurrent = "/users/current"
	RouteUserByID     = "/users/{id}"

	// Admin Routes
	RouteAdminTokens       = "/admin/tokens"
	RouteAdminSubjectToken = "/admin/subjects/{id}/token"

	RouteHealth = "/health"
)
