package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-token-server/clients"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/internal/locks"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/jrsteele09/go-token-server/token"
	"github.com/jrsteele09/go-token-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users   users.Repo   // User directory
	Clients clients.Repo // Registered OAuth2 clients
	Tokens  token.Repo   // Issued access tokens, one per subject
}

// Service issues, validates and revokes bearer tokens.
type Service struct {
	repos   Repos
	codec   *token.Codec
	locker  locks.Locker     // Serialises grants for one subject
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(as *Service) {
		as.nowTime = nowFunc
	}
}

// WithLocker replaces the in-process per-subject lock, e.g. with a Redis
// lock shared by several instances.
func WithLocker(locker locks.Locker) ServiceOption {
	return func(as *Service) {
		as.locker = locker
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Clients == nil {
		return nil, errors.New("[NewService] Clients repo is required")
	}
	if repos.Tokens == nil {
		return nil, errors.New("[NewService] Tokens repo is required")
	}
	if codec == nil {
		return nil, errs.NewConfigurationError(token.SecretSetting, "token codec is required")
	}

	as := &Service{
		repos:   repos,
		codec:   codec,
		locker:  locks.NewKeyedMutex(),
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(as)
	}

	return as, nil
}

// AuthenticateClient checks a client's id and secret.
func (as *Service) AuthenticateClient(ctx context.Context, clientID, secret string) (*clients.Client, error) {
	if clientID == "" {
		return nil, errs.NewUnauthorized(InvalidClientMsg, errs.ErrInvalidClient)
	}
	client, err := as.repos.Clients.Get(ctx, clientID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NewUnauthorized(InvalidClientMsg, errs.ErrInvalidClient)
		}
		return nil, as.failure(ctx, DirectoryErrorMsg, err)
	}
	if !client.CheckSecret(secret) {
		return nil, errs.NewUnauthorized(InvalidClientMsg, errs.ErrInvalidClient)
	}
	return client, nil
}

// PasswordGrant exchanges a username and password for the user's bearer
// token. client is the already authenticated client making the request and
// may be nil when client authentication is not required.
//
// A user holding a valid token gets that same token back. An expired or
// otherwise unverifiable stored token is replaced.
func (as *Service) PasswordGrant(ctx context.Context, client *clients.Client, username, password string) (*oauth2.TokenResponse, error) {
	user, err := as.repos.Users.GetByEmail(ctx, strings.TrimSpace(username))
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NewUnauthorized(NoUserFoundMsg, errs.ErrInvalidCredentials)
		}
		return nil, as.failure(ctx, DirectoryErrorMsg, err)
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errs.NewUnauthorized(InvalidCredentialsMsg, errs.ErrInvalidCredentials)
	}

	logger := log.Debug().Str("user_id", user.ID)
	if client != nil {
		logger = logger.Str("client_id", client.ID)
	}
	logger.Msg("password grant accepted")

	return as.issue(ctx, token.Subject{ID: user.ID, Kind: token.SubjectUser, Role: user.Role.String()})
}

// ClientCredentialsGrant issues the client's own bearer token.
func (as *Service) ClientCredentialsGrant(ctx context.Context, client *clients.Client) (*oauth2.TokenResponse, error) {
	if client == nil {
		return nil, errs.NewUnauthorized(InvalidClientMsg, errs.ErrInvalidClient)
	}
	return as.issue(ctx, token.Subject{ID: client.ID, Kind: token.SubjectClient})
}

// issue returns the subject's stored token when it still verifies, or
// rotates it. The whole sequence runs under the subject's lock.
func (as *Service) issue(ctx context.Context, subject token.Subject) (*oauth2.TokenResponse, error) {
	unlock, err := as.locker.Lock(ctx, lockKey(subject.Kind, subject.ID))
	if err != nil {
		return nil, as.failure(ctx, TokenStoreErrorMsg, err)
	}
	defer unlock()

	existing, err := as.repos.Tokens.GetBySubject(ctx, subject.Kind, subject.ID)
	if err != nil {
		return nil, as.failure(ctx, TokenStoreErrorMsg, err)
	}

	if existing != nil {
		claims, err := as.codec.Verify(existing.Token)
		switch {
		case err != nil:
			log.Debug().Err(err).Str("subject_id", subject.ID).Msg("rotating stored token")
			if err := as.repos.Tokens.Delete(ctx, existing); err != nil {
				return nil, as.failure(ctx, TokenStoreErrorMsg, err)
			}
		case matchesRecord(claims, existing):
			return as.tokenResponse(existing.Token, claims), nil
		default:
			return nil, errs.NewUnauthorized(TokenValidationErrorMsg, errs.ErrInvalidToken)
		}
	}

	return as.mint(ctx, subject)
}

func (as *Service) mint(ctx context.Context, subject token.Subject) (*oauth2.TokenResponse, error) {
	signed, err := as.codec.Sign(subject)
	if err != nil {
		return nil, errs.NewUnauthorized(TokenValidationErrorMsg, err)
	}

	if _, err := as.repos.Tokens.Create(ctx, subject.ID, subject.Kind, signed); err != nil {
		if !errs.Is(err, errs.ErrSubjectHasToken) {
			return nil, as.failure(ctx, TokenStoreErrorMsg, err)
		}
		// Another instance created the record between our lookup and insert.
		return as.adoptExisting(ctx, subject)
	}

	return &oauth2.TokenResponse{
		AccessToken: signed,
		TokenType:   oauth2.TokenType,
		ExpiresIn:   int(as.codec.Expiry().Seconds()),
	}, nil
}

func (as *Service) adoptExisting(ctx context.Context, subject token.Subject) (*oauth2.TokenResponse, error) {
	winner, err := as.repos.Tokens.GetBySubject(ctx, subject.Kind, subject.ID)
	if err != nil {
		return nil, as.failure(ctx, TokenStoreErrorMsg, err)
	}
	if winner == nil {
		return nil, errs.NewUnauthorized(TokenValidationErrorMsg, errs.ErrInvalidToken)
	}
	claims, err := as.codec.Verify(winner.Token)
	if err != nil {
		return nil, errs.NewUnauthorized(TokenValidationErrorMsg, err)
	}
	if !matchesRecord(claims, winner) {
		return nil, errs.NewUnauthorized(TokenValidationErrorMsg, errs.ErrInvalidToken)
	}
	return as.tokenResponse(winner.Token, claims), nil
}

// Authenticate resolves a presented bearer token to its owner. It never
// modifies the token store.
func (as *Service) Authenticate(ctx context.Context, rawToken string) (*Principal, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errs.NewUnauthorized(UnauthorizedMsg, nil)
	}

	stored, err := as.repos.Tokens.GetByToken(ctx, rawToken)
	if err != nil {
		return nil, as.failure(ctx, TokenStoreErrorMsg, err)
	}
	if stored == nil {
		return nil, errs.NewUnauthorized(UnauthorizedMsg, nil)
	}

	claims, err := as.codec.Verify(stored.Token)
	if err != nil {
		return nil, errs.NewUnauthorized(TokenValidationErrorMsg, err)
	}
	if !matchesRecord(claims, stored) {
		return nil, errs.NewUnauthorized(TokenValidationErrorMsg, errs.ErrInvalidToken)
	}

	principal := &Principal{
		Kind:      stored.SubjectKind,
		Token:     stored,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	switch stored.SubjectKind {
	case token.SubjectClient:
		client, err := as.repos.Clients.Get(ctx, stored.SubjectID)
		if err != nil {
			return nil, as.ownerFailure(ctx, err)
		}
		principal.Client = client
	case token.SubjectUser:
		user, err := as.repos.Users.GetByID(ctx, stored.SubjectID)
		if err != nil {
			return nil, as.ownerFailure(ctx, err)
		}
		principal.User = user
	default:
		return nil, errs.NewUnauthorized(TokenValidationErrorMsg, errs.ErrInvalidToken)
	}

	return principal, nil
}

// Logout deletes the caller's token. Logging out twice is not an error.
func (as *Service) Logout(ctx context.Context, principal *Principal) error {
	if principal == nil {
		return errs.NewUnauthorized(UnauthorizedMsg, nil)
	}
	if _, err := as.Revoke(ctx, principal.Kind, principal.SubjectID()); err != nil {
		return errors.Wrap(err, "[Service.Logout]")
	}
	return nil
}

// Revoke deletes the token owned by the subject, reporting whether one existed.
func (as *Service) Revoke(ctx context.Context, kind token.SubjectKind, subjectID string) (bool, error) {
	if subjectID == "" {
		return false, nil
	}

	unlock, err := as.locker.Lock(ctx, lockKey(kind, subjectID))
	if err != nil {
		return false, errors.Wrap(err, "[Service.Revoke] lock")
	}
	defer unlock()

	existing, err := as.repos.Tokens.GetBySubject(ctx, kind, subjectID)
	if err != nil {
		return false, errors.Wrap(err, "[Service.Revoke] GetBySubject")
	}
	if existing == nil {
		return false, nil
	}
	if err := as.repos.Tokens.Delete(ctx, existing); err != nil {
		return false, errors.Wrap(err, "[Service.Revoke] Delete")
	}
	log.Info().Str("subject_kind", string(kind)).Str("subject_id", subjectID).Msg("token revoked")
	return true, nil
}

// ListTokens returns stored token records for the admin surface.
func (as *Service) ListTokens(ctx context.Context, offset, limit int) ([]*token.Token, error) {
	tokens, err := as.repos.Tokens.List(ctx, offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListTokens]")
	}
	return tokens, nil
}

// Users exposes the directory for handlers that serve user records.
func (as *Service) Users() users.Repo {
	return as.repos.Users
}

func (as *Service) tokenResponse(tokenString string, claims *token.Claims) *oauth2.TokenResponse {
	expiresIn := 0
	if claims != nil && claims.ExpiresAt != nil {
		expiresIn = int(claims.ExpiresAt.Time.Sub(as.nowTime()).Seconds())
		if expiresIn < 0 {
			expiresIn = 0
		}
	}
	return &oauth2.TokenResponse{
		AccessToken: tokenString,
		TokenType:   oauth2.TokenType,
		ExpiresIn:   expiresIn,
	}
}

func (as *Service) ownerFailure(ctx context.Context, err error) error {
	if errs.IsNotFound(err) {
		return errs.NewUnauthorized(UnauthorizedMsg, err)
	}
	return as.failure(ctx, DirectoryErrorMsg, err)
}

// failure normalises a collaborator error into an AuthError. A cancelled or
// timed out request is returned as a plain wrapped context error so callers
// can treat it as transient.
func (as *Service) failure(ctx context.Context, message string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, message)
	}
	return errs.NewUnauthorized(message, err)
}

// matchesRecord reports whether verified claims belong to the stored record.
func matchesRecord(claims *token.Claims, rec *token.Token) bool {
	return claims.Subject == rec.SubjectID && claims.Kind == rec.SubjectKind
}

func lockKey(kind token.SubjectKind, subjectID string) string {
	return "subject:" + string(kind) + ":" + subjectID
}
