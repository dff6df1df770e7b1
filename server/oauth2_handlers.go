package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/jrsteele09/go-token-server/auth"
	"github.com/jrsteele09/go-token-server/clients"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	maxTokenRequestBytes = 1 << 20

	// genericGrantFailure is all a caller learns about a rejected password
	// grant, so accounts can't be enumerated.
	genericGrantFailure = "invalid username or password"
)

const (
	errorUnauthorized = oauth2.ErrorUnauthorized
	errorForbidden    = oauth2.ErrorForbidden
	errorServerError  = oauth2.ErrorServerError
)

// Token exchanges user or client credentials for a bearer token
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenReq, err := parseTokenRequest(w, r)
		if err != nil {
			writeJSONError(w, oauth2.ErrorInvalidRequest, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.validator.ValidateTokenRequest(tokenReq); err != nil {
			code := oauth2.ErrorInvalidRequest
			if errs.Is(err, errs.ErrUnsupportedType) {
				code = oauth2.ErrorUnsupportedGrantType
			}
			writeJSONError(w, code, err.Error(), http.StatusBadRequest)
			return
		}

		var client *clients.Client
		switch {
		case tokenReq.ClientID != "":
			client, err = s.auth.AuthenticateClient(r.Context(), tokenReq.ClientID, tokenReq.ClientSecret)
			if err != nil {
				writeGrantError(w, err)
				return
			}
		case s.validator.RequiresClient(tokenReq.GrantType):
			writeGrantError(w, errs.NewUnauthorized(auth.InvalidClientMsg, errs.ErrInvalidClient))
			return
		}

		var tokenResponse *oauth2.TokenResponse
		switch tokenReq.GrantType {
		case oauth2.ClientCredentialsGrantType:
			tokenResponse, err = s.auth.ClientCredentialsGrant(r.Context(), client)
		default:
			tokenResponse, err = s.auth.PasswordGrant(r.Context(), client, tokenReq.Username, tokenReq.Password)
		}
		if err != nil {
			writeGrantError(w, err)
			return
		}

		tokenResponse.Scope = tokenReq.Scope
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, tokenResponse)
	}
}

// Logout deletes the caller's bearer token
func (s *Server) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeJSONError(w, errorUnauthorized, auth.UnauthorizedMsg, http.StatusUnauthorized)
			return
		}

		if err := s.auth.Logout(r.Context(), principal); err != nil {
			writeServiceError(w, err, errorUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
	}
}

// parseTokenRequest reads a form or JSON token request. HTTP Basic client
// credentials take precedence over client_id/client_secret in the body.
func parseTokenRequest(w http.ResponseWriter, r *http.Request) (oauth2.TokenRequest, error) {
	var req oauth2.TokenRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxTokenRequestBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("failed to parse JSON body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, errors.New("failed to parse form data")
		}
		req = oauth2.TokenRequest{
			GrantType:    oauth2.GrantType(r.PostFormValue("grant_type")),
			Username:     r.PostFormValue("username"),
			Password:     r.PostFormValue("password"),
			ClientID:     r.PostFormValue("client_id"),
			ClientSecret: r.PostFormValue("client_secret"),
			Scope:        r.PostFormValue("scope"),
		}
	}

	if id, secret, ok := r.BasicAuth(); ok {
		req.ClientID = id
		req.ClientSecret = secret
	}
	return req, nil
}

// writeGrantError maps token endpoint failures. Credential failures share
// one description so the response doesn't reveal which part was wrong.
func writeGrantError(w http.ResponseWriter, err error) {
	var ae *errs.AuthError
	switch {
	case errs.Is(err, errs.ErrInvalidClient):
		w.Header().Set("WWW-Authenticate", `Basic realm="OAuth2 Client Authentication"`)
		writeJSONError(w, oauth2.ErrorInvalidClient, "Client authentication failed", http.StatusUnauthorized)
	case errs.Is(err, errs.ErrInvalidCredentials):
		log.Info().Err(err).Msg("password grant rejected")
		writeJSONError(w, oauth2.ErrorInvalidGrant, genericGrantFailure, http.StatusUnauthorized)
	case errs.As(err, &ae):
		log.Warn().Err(err).Msg("grant failed")
		writeJSONError(w, oauth2.ErrorInvalidGrant, ae.Message, ae.Status)
	default:
		writeServiceError(w, err, oauth2.ErrorInvalidGrant)
	}
}

// writeServiceError renders AuthErrors with their own status. A request
// that ran out of time is 503; anything else is a 500.
func writeServiceError(w http.ResponseWriter, err error, code string) {
	var ae *errs.AuthError
	switch {
	case errs.As(err, &ae):
		if ae.Status == http.StatusForbidden {
			code = errorForbidden
		}
		writeJSONError(w, code, ae.Message, ae.Status)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn().Err(err).Msg("request abandoned")
		writeJSONError(w, oauth2.ErrorUnavailable, "request timed out", http.StatusServiceUnavailable)
	case errs.IsNotFound(err):
		writeJSONError(w, "not_found", err.Error(), http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSONError(w, errorServerError, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, oauth2.ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	})
}
