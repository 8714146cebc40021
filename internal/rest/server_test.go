// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/codrava/prospectd/pkg/account"
	"github.com/codrava/prospectd/pkg/login"
	"github.com/codrava/prospectd/pkg/securitylog"
	"github.com/codrava/prospectd/pkg/token"
	"github.com/codrava/prospectd/pkg/webauthn"
)

const testSecret = "rest-handler-test-secret-0123456789"

type testEnv struct {
	server   *Server
	router   http.Handler
	accounts *account.MemoryStore
	events   *securitylog.Service
	tokens   *token.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := token.NewService([]byte(testSecret))
	require.NoError(t, err)

	accounts := account.NewMemoryStore()

	webauthnSvc, err := webauthn.NewService(webauthn.ServiceParams{
		Config: &webauthn.Config{
			RPID:          "example.com",
			RPDisplayName: "Example Corp",
			RPOrigins:     []string{"https://example.com"},
		},
		Accounts: accounts,
		Tokens:   tokens,
		Logger:   logger,
	})
	require.NoError(t, err)

	events := securitylog.NewService(securitylog.NewMemoryStore(), logger)

	engine, err := login.NewEngine(login.EngineParams{
		Accounts:   accounts,
		Tokens:     tokens,
		Events:     events,
		Logger:     logger,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	server, err := NewServer(&Config{
		WebAuthn:    webauthnSvc,
		Engine:      engine,
		Events:      events,
		Tokens:      tokens,
		SessionTTL:  time.Hour,
		MetricsPath: "/metrics",
		Logger:      logger,
	})
	require.NoError(t, err)

	return &testEnv{
		server:   server,
		router:   server.Router(),
		accounts: accounts,
		events:   events,
		tokens:   tokens,
	}
}

// seedAccount creates an account with a bcrypt password hash directly in the
// store.
func (env *testEnv) seedAccount(t *testing.T, email, password string, role account.Role) *account.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	acct := &account.Account{
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, env.accounts.Create(context.Background(), acct))
	return acct
}

// request performs a JSON request against the router.
func (env *testEnv) request(t *testing.T, method, path string, body interface{}, sessionToken string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// rawRequest performs a request with a preserialized JSON body.
func (env *testEnv) rawRequest(t *testing.T, method, path, body, sessionToken string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestNewServerValidation(t *testing.T) {
	env := newTestEnv(t)

	base := Config{
		WebAuthn: env.server.webauthnSvc,
		Engine:   env.server.engine,
		Events:   env.server.events,
		Tokens:   env.server.tokens,
		Logger:   env.server.logger,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing webauthn", func(c *Config) { c.WebAuthn = nil }},
		{"missing engine", func(c *Config) { c.Engine = nil }},
		{"missing events", func(c *Config) { c.Events = nil }},
		{"missing tokens", func(c *Config) { c.Tokens = nil }},
		{"missing logger", func(c *Config) { c.Logger = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := NewServer(&cfg)
			assert.Error(t, err)
		})
	}

	if _, err := NewServer(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.request(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.request(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Body.String())
}

func TestSessionRequired(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/webauthn/register/options"},
		{http.MethodPost, "/api/v1/webauthn/register/verify"},
		{http.MethodGet, "/api/v1/security/logs"},
		{http.MethodPost, "/api/v1/admin/accounts"},
	}

	for _, tt := range paths {
		rr := env.request(t, tt.method, tt.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, ErrorCodeUnauthorized, decodeError(t, rr).Error)
	}

	// A garbage token is rejected the same way.
	rr := env.request(t, http.MethodGet, "/api/v1/security/logs", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
