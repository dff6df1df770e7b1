package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-token-server/clients"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/users"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem creates the configured admin user and OAuth2 client when
// they don't exist yet. Unset seed settings are skipped.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	email, password := s.config.GetSeedAdmin()
	if err := s.createAdmin(ctx, email, password); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}

	clientID, secret := s.config.GetSeedClient()
	if err := s.createClient(ctx, clientID, secret); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap client: %w", err)
	}
	return nil
}

// createAdmin creates the admin user if no user holds the email
func (s *Server) createAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.repos.Users.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		log.Info().Str("email", email).Msg("admin user already exists")
		return nil
	}
	if err != nil && !errs.IsNotFound(err) {
		return err
	}

	passwordHash, err := users.HashPasswordWithCost(password, s.config.GetBcryptCost())
	if err != nil {
		return fmt.Errorf("[server createAdmin] failed to hash password: %w", err)
	}

	adminUser := &users.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "System",
		LastName:     "Administrator",
		Role:         users.RoleAdmin,
	}
	if err := s.repos.Users.Upsert(ctx, adminUser); err != nil {
		return fmt.Errorf("[server createAdmin] failed to create admin: %w", err)
	}
	log.Info().Str("email", email).Str("user_id", adminUser.ID).Msg("admin user created")
	return nil
}

// createClient registers the seed client if it isn't known yet
func (s *Server) createClient(ctx context.Context, clientID, secret string) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" || secret == "" {
		return nil
	}

	existing, err := s.repos.Clients.Get(ctx, clientID)
	if err == nil && existing != nil {
		log.Info().Str("client_id", clientID).Msg("client already exists")
		return nil
	}
	if err != nil && !errs.IsNotFound(err) {
		return err
	}

	client, err := clients.New(clientID, secret, "Seeded client", s.config.GetBcryptCost())
	if err != nil {
		return fmt.Errorf("[server createClient] failed to hash secret: %w", err)
	}
	if err := s.repos.Clients.Upsert(ctx, client); err != nil {
		return fmt.Errorf("[server createClient] failed to create client: %w", err)
	}
	log.Info().Str("client_id", clientID).Msg("client created")
	return nil
}
