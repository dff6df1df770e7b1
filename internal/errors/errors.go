package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error values for the token service
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")

	// Token errors
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrSubjectHasToken = errors.New("subject already holds a token")

	// Client errors
	ErrInvalidClient   = errors.New("invalid client")
	ErrClientNotFound  = errors.New("client not found")
	ErrUnsupportedType = errors.New("unsupported grant type")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrMissingConf = errors.New("missing configuration")
)

// AuthError is an authentication or authorization failure.
// Status is 401 when the caller could not be identified and 403 when an
// identified caller was denied an action.
type AuthError struct {
	Message string
	Status  int
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewUnauthorized builds a 401 AuthError.
func NewUnauthorized(message string, err error) *AuthError {
	if err == nil {
		err = ErrUnauthorized
	}
	return &AuthError{Message: message, Status: http.StatusUnauthorized, Err: err}
}

// NewForbidden builds a 403 AuthError.
func NewForbidden(message string) *AuthError {
	return &AuthError{Message: message, Status: http.StatusForbidden, Err: ErrForbidden}
}

// IsForbidden reports whether err carries a 403 AuthError.
func IsForbidden(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Status == http.StatusForbidden
}

// ConfigurationError reports a missing or invalid process setting. It is fatal
// at startup and is never rendered to a caller.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrMissingConf
}

// NewConfigurationError builds a ConfigurationError for a setting.
func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Message: message}
}

// NotFoundError is returned by directory lookups when a record is absent.
type NotFoundError struct {
	Resource string
	Key      string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// NewNotFound builds a NotFoundError. sentinel may be nil.
func NewNotFound(resource, key string, sentinel error) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key, Err: sentinel}
}

// IsNotFound reports whether err is a NotFoundError or wraps ErrNotFound.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, ErrNotFound)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
