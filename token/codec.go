package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/pkg/errors"
)

// DefaultExpiry is the lifetime embedded in every signed token.
const DefaultExpiry = 10 * time.Hour

// SecretSetting names the configuration value holding the signing secret.
const SecretSetting = "JWT_SECRET"

// Claims is the payload of a signed bearer token.
type Claims struct {
	Kind SubjectKind `json:"kind"`
	Role string      `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// InvalidTokenError is returned by Verify for expired, tampered or malformed
// tokens. It matches errors.ErrInvalidToken, and errors.ErrTokenExpired when
// the embedded expiry has passed.
type InvalidTokenError struct {
	Reason string
	Err    error
}

func (e *InvalidTokenError) Error() string {
	return "invalid token: " + e.Reason
}

func (e *InvalidTokenError) Unwrap() []error {
	return []error{errs.ErrInvalidToken, e.Err}
}

// Codec signs and verifies bearer tokens.
type Codec struct {
	signer  Signer
	issuer  string
	expiry  time.Duration
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

func WithExpiry(expiry time.Duration) CodecOption {
	return func(c *Codec) {
		c.expiry = expiry
	}
}

func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// WithSigner replaces the HMAC signer built from the secret.
func WithSigner(signer Signer) CodecOption {
	return func(c *Codec) {
		c.signer = signer
	}
}

// NewCodec builds an HS256 codec. An empty secret is a ConfigurationError.
func NewCodec(secret string, options ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errs.NewConfigurationError(SecretSetting, "signing secret is required")
	}

	c := &Codec{
		signer:  NewHMACSigner(secret),
		expiry:  DefaultExpiry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.expiry <= 0 {
		c.expiry = DefaultExpiry
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c, nil
}

// Expiry returns the lifetime of newly signed tokens.
func (c *Codec) Expiry() time.Duration {
	return c.expiry
}

// Sign mints a token for subject expiring Expiry() from now.
func (c *Codec) Sign(subject Subject) (string, error) {
	if c == nil || c.signer == nil {
		return "", errs.NewConfigurationError(SecretSetting, "token codec has no signer")
	}
	if subject.ID == "" {
		return "", errors.New("[Codec.Sign] subject id is required")
	}

	now := c.nowFunc()
	claims := &Claims{
		Kind: subject.Kind,
		Role: subject.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
			ID:        uuid.New().String(), // two tokens minted in the same second never collide
		},
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Sign]")
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	if c == nil || c.signer == nil {
		return nil, errs.NewConfigurationError(SecretSetting, "token codec has no signer")
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, &InvalidTokenError{Reason: "empty token", Err: jwt.ErrTokenMalformed}
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if c.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.NewParser(parserOptions...).ParseWithClaims(tokenString, claims, c.signer.GetVerificationKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &InvalidTokenError{Reason: "token expired", Err: fmt.Errorf("%w: %v", errs.ErrTokenExpired, err)}
		}
		return nil, &InvalidTokenError{Reason: err.Error(), Err: err}
	}
	if !parsed.Valid {
		return nil, &InvalidTokenError{Reason: "token not valid", Err: jwt.ErrTokenUnverifiable}
	}
	if claims.Subject == "" {
		return nil, &InvalidTokenError{Reason: "token has no subject", Err: jwt.ErrTokenInvalidClaims}
	}
	return claims, nil
}
