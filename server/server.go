package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-token-server/auth"
	"github.com/jrsteele09/go-token-server/internal/config"
	"github.com/jrsteele09/go-token-server/roles"
	"github.com/jrsteele09/go-token-server/token"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	auth       *auth.Service
	authorizer *roles.Authorizer
	validator  *auth.Validator
	repos      auth.Repos
}

// New wires the token service over repos and seeds the configured admin user
// and client. serviceOptions reach auth.NewService, e.g. a shared Redis lock.
func New(config config.Config, repos auth.Repos, serviceOptions ...auth.ServiceOption) (*Server, error) {
	codec, err := token.NewCodec(config.GetJWTSecret(),
		token.WithExpiry(config.GetTokenExpiry()),
		token.WithIssuer(config.GetIssuer()),
	)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token codec: %w", err)
	}

	authService, err := auth.NewService(repos, codec, serviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token service: %w", err)
	}

	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		repos:      repos,
		auth:       authService,
		authorizer: roles.NewAuthorizer(roles.DefaultRules()),
		validator:  auth.NewValidator(config.GetRequireClientAuth()),
	}

	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Service exposes the token service, mainly for tests and tooling.
func (s *Server) Service() *auth.Service {
	return s.auth
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
