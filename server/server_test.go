package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-token-server/auth"
	fakeclientrepo "github.com/jrsteele09/go-token-server/clients/fakerepo"
	"github.com/jrsteele09/go-token-server/internal/config"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/jrsteele09/go-token-server/server"
	tokenfakerepo "github.com/jrsteele09/go-token-server/token/repofake"
	"github.com/jrsteele09/go-token-server/users"
	fakeuserrepo "github.com/jrsteele09/go-token-server/users/repofake"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	xoauth2 "golang.org/x/oauth2"
)

const (
	adminEmail     = "test.admin@gmail.com"
	adminPassword  = "admin-password"
	memberEmail    = "test.member@gmail.com"
	memberPassword = "member-password"
	clientID       = "test-client"
	clientSecret   = "test-client-secret"
)

type testFixture struct {
	ts     *httptest.Server
	repos  auth.Repos
	tokens *tokenfakerepo.FakeTokenRepo
	member *users.User
	admin  *users.User
}

func setupTestFixture(t *testing.T, env ...string) *testFixture {
	t.Helper()

	t.Setenv("JWT_SECRET", "server-test-secret")
	t.Setenv("ENV", "TEST")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("SEED_ADMIN_EMAIL", adminEmail)
	t.Setenv("SEED_ADMIN_PASSWORD", adminPassword)
	t.Setenv("SEED_CLIENT_ID", clientID)
	t.Setenv("SEED_CLIENT_SECRET", clientSecret)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example")
	for i := 0; i+1 < len(env); i += 2 {
		t.Setenv(env[i], env[i+1])
	}

	cfg, err := config.FromEnvironment()
	require.NoError(t, err)

	tokens := tokenfakerepo.NewFakeTokensRepo()
	repos := auth.Repos{
		Users:   fakeuserrepo.NewFakeUserRepo(),
		Clients: fakeclientrepo.NewFakeClientRepo(),
		Tokens:  tokens,
	}

	hash, err := users.HashPasswordWithCost(memberPassword, bcrypt.MinCost)
	require.NoError(t, err)
	member := &users.User{Email: memberEmail, PasswordHash: hash, Role: users.RoleMember, FirstName: "Test"}
	require.NoError(t, repos.Users.Upsert(context.Background(), member))

	srv, err := server.New(cfg, repos)
	require.NoError(t, err)

	admin, err := repos.Users.GetByEmail(context.Background(), adminEmail)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testFixture{ts: ts, repos: repos, tokens: tokens, member: member, admin: admin}
}

func (f *testFixture) grant(t *testing.T, form url.Values, basicAuth bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.ts.URL+server.RouteOAuth2Token, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicAuth {
		req.SetBasicAuth(clientID, clientSecret)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *testFixture) passwordToken(t *testing.T, email, password string) string {
	t.Helper()
	resp := f.grant(t, url.Values{
		"grant_type": {"password"},
		"username":   {email},
		"password":   {password},
	}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body oauth2.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func (f *testFixture) call(t *testing.T, method, path, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.ts.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) oauth2.ErrorResponse {
	t.Helper()
	var body oauth2.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestPasswordGrant_OAuth2Client(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	cfg := xoauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: xoauth2.Endpoint{
			TokenURL:  f.ts.URL + server.RouteOAuth2Token,
			AuthStyle: xoauth2.AuthStyleInHeader,
		},
	}

	tok, err := cfg.PasswordCredentialsToken(ctx, memberEmail, memberPassword)
	require.NoError(t, err)
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, "Bearer", tok.Type())
	require.False(t, tok.Expiry.IsZero())

	resp, err := cfg.Client(ctx, tok).Get(f.ts.URL + server.RouteUsersCurrent)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me users.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	require.Equal(t, f.member.ID, me.ID)
	require.Equal(t, memberEmail, me.Email)
	require.Empty(t, me.PasswordHash)

	again, err := cfg.PasswordCredentialsToken(ctx, memberEmail, memberPassword)
	require.NoError(t, err)
	require.Equal(t, tok.AccessToken, again.AccessToken)
}

func TestPasswordGrant_FailuresDoNotEnumerateUsers(t *testing.T) {
	f := setupTestFixture(t)

	for name, form := range map[string]url.Values{
		"wrong password": {"grant_type": {"password"}, "username": {memberEmail}, "password": {"nope"}},
		"unknown user":   {"grant_type": {"password"}, "username": {"ghost@example.com"}, "password": {"nope"}},
	} {
		t.Run(name, func(t *testing.T) {
			resp := f.grant(t, form, false)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			body := decodeError(t, resp)
			require.Equal(t, oauth2.ErrorInvalidGrant, body.Error)
			require.Equal(t, "invalid username or password", body.ErrorDescription)
		})
	}
	require.Equal(t, 0, f.tokens.Count())
}

func TestTokenEndpoint_RequestValidation(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.grant(t, url.Values{"grant_type": {"authorization_code"}}, false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, oauth2.ErrorUnsupportedGrantType, decodeError(t, resp).Error)

	resp = f.grant(t, url.Values{"username": {memberEmail}}, false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, oauth2.ErrorInvalidRequest, decodeError(t, resp).Error)

	resp = f.grant(t, url.Values{"grant_type": {"password"}, "username": {memberEmail}}, false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTokenEndpoint_JSONBody(t *testing.T) {
	f := setupTestFixture(t)

	body := `{"grant_type":"password","username":"` + memberEmail + `","password":"` + memberPassword + `"}`
	resp, err := http.Post(f.ts.URL+server.RouteOAuth2Token, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var tr oauth2.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	require.Equal(t, "bearer", tr.TokenType)
	require.InDelta(t, 36000, tr.ExpiresIn, 2)
}

func TestClientCredentialsGrant(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.grant(t, url.Values{"grant_type": {"client_credentials"}}, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, oauth2.ErrorInvalidClient, decodeError(t, resp).Error)

	resp = f.grant(t, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {"wrong"},
	}, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

	resp = f.grant(t, url.Values{"grant_type": {"client_credentials"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tr oauth2.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))

	// Clients have no user record and no role.
	require.Equal(t, http.StatusForbidden, f.call(t, http.MethodGet, server.RouteUsersCurrent, tr.AccessToken).StatusCode)
	require.Equal(t, http.StatusForbidden, f.call(t, http.MethodGet, server.RouteAdminTokens, tr.AccessToken).StatusCode)
}

func TestRequireClientAuth(t *testing.T) {
	f := setupTestFixture(t, "REQUIRE_CLIENT_AUTH", "true")
	form := url.Values{"grant_type": {"password"}, "username": {memberEmail}, "password": {memberPassword}}

	resp := f.grant(t, form, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, oauth2.ErrorInvalidClient, decodeError(t, resp).Error)

	require.Equal(t, http.StatusOK, f.grant(t, form, true).StatusCode)
}

func TestBearerAuthentication(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.call(t, http.MethodGet, server.RouteUsersCurrent, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Missing Authorization header", decodeError(t, resp).ErrorDescription)

	resp = f.call(t, http.MethodGet, server.RouteUsersCurrent, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

	req, err := http.NewRequest(http.MethodGet, f.ts.URL+server.RouteUsersCurrent, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic abc")
	basicResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer basicResp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, basicResp.StatusCode)
}

func TestModifyUserAuthorization(t *testing.T) {
	f := setupTestFixture(t)
	memberToken := f.passwordToken(t, memberEmail, memberPassword)
	adminToken := f.passwordToken(t, adminEmail, adminPassword)

	resp := f.call(t, http.MethodGet, "/users/"+f.admin.ID, memberToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decodeError(t, resp)
	require.Equal(t, oauth2.ErrorForbidden, body.Error)
	require.Equal(t, "Access Denied - You don't have permission to: modify user", body.ErrorDescription)

	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/users/"+f.member.ID, memberToken).StatusCode)
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/users?email="+url.QueryEscape(memberEmail), memberToken).StatusCode)
	require.Equal(t, http.StatusForbidden, f.call(t, http.MethodGet, "/users?email="+url.QueryEscape(adminEmail), memberToken).StatusCode)
	require.Equal(t, http.StatusForbidden, f.call(t, http.MethodGet, server.RouteUsers, memberToken).StatusCode)

	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/users/"+f.member.ID, adminToken).StatusCode)
	require.Equal(t, http.StatusNotFound, f.call(t, http.MethodGet, "/users/missing", adminToken).StatusCode)

	resp = f.call(t, http.MethodGet, server.RouteUsers, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []users.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	memberToken := f.passwordToken(t, memberEmail, memberPassword)

	resp := f.call(t, http.MethodPost, server.RouteAuthLogout, memberToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 0, f.tokens.Count())

	require.Equal(t, http.StatusUnauthorized, f.call(t, http.MethodGet, server.RouteUsersCurrent, memberToken).StatusCode)
	require.Equal(t, http.StatusUnauthorized, f.call(t, http.MethodPost, server.RouteAuthLogout, memberToken).StatusCode)

	require.NotEqual(t, memberToken, f.passwordToken(t, memberEmail, memberPassword))
}

func TestAdminRoutes(t *testing.T) {
	f := setupTestFixture(t)
	memberToken := f.passwordToken(t, memberEmail, memberPassword)
	adminToken := f.passwordToken(t, adminEmail, adminPassword)

	resp := f.call(t, http.MethodGet, server.RouteAdminTokens, memberToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Access Denied - You don't have permission to: ADMIN", decodeError(t, resp).ErrorDescription)

	resp = f.call(t, http.MethodGet, server.RouteAdminTokens+"?limit=10", adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Tokens []map[string]any `json:"tokens"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed.Tokens, 2)
	for _, rec := range listed.Tokens {
		require.NotContains(t, rec, "token")
	}

	revokePath := "/admin/subjects/" + f.member.ID + "/token"
	require.Equal(t, http.StatusOK, f.call(t, http.MethodDelete, revokePath, adminToken).StatusCode)
	require.Equal(t, http.StatusNotFound, f.call(t, http.MethodDelete, revokePath, adminToken).StatusCode)
	require.Equal(t, http.StatusUnauthorized, f.call(t, http.MethodGet, server.RouteUsersCurrent, memberToken).StatusCode)
}

func TestHealthAndCors(t *testing.T) {
	f := setupTestFixture(t)

	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, server.RouteHealth, "").StatusCode)

	req, err := http.NewRequest(http.MethodOptions, f.ts.URL+server.RouteOAuth2Token, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestNew_SeedingIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)

	cfg, err := config.FromEnvironment()
	require.NoError(t, err)
	_, err = server.New(cfg, f.repos)
	require.NoError(t, err)

	list, err := f.repos.Users.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, users.RoleAdmin, f.admin.Role)
}

func TestBearerAuthentication_TamperedToken(t *testing.T) {
	f := setupTestFixture(t)
	memberToken := f.passwordToken(t, memberEmail, memberPassword)

	i := len(memberToken) - 10
	replacement := "A"
	if memberToken[i] == 'A' {
		replacement = "B"
	}
	tampered := memberToken[:i] + replacement + memberToken[i+1:]

	resp := f.call(t, http.MethodGet, server.RouteUsersCurrent, tampered)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, server.RouteUsersCurrent, memberToken).StatusCode)
}

func TestAdminRevoke_ByKind(t *testing.T) {
	f := setupTestFixture(t)
	adminToken := f.passwordToken(t, adminEmail, adminPassword)

	resp := f.grant(t, url.Values{"grant_type": {"client_credentials"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tr oauth2.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))

	path := "/admin/subjects/" + clientID + "/token"
	require.Equal(t, http.StatusNotFound, f.call(t, http.MethodDelete, path, adminToken).StatusCode)
	require.Equal(t, http.StatusBadRequest, f.call(t, http.MethodDelete, path+"?kind=robot", adminToken).StatusCode)
	require.Equal(t, http.StatusOK, f.call(t, http.MethodDelete, path+"?kind=client", adminToken).StatusCode)

	// The client's token is gone; the admin's own token is untouched.
	require.Equal(t, http.StatusUnauthorized, f.call(t, http.MethodGet, server.RouteAdminTokens, tr.AccessToken).StatusCode)
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, server.RouteAdminTokens, adminToken).StatusCode)
}
