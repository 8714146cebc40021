// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codrava/prospectd/pkg/login"
	"github.com/codrava/prospectd/pkg/metrics"
	"github.com/codrava/prospectd/pkg/ratelimit"
	"github.com/codrava/prospectd/pkg/securitylog"
	"github.com/codrava/prospectd/pkg/token"
	"github.com/codrava/prospectd/pkg/webauthn"
)

// Server is the REST API server for the authentication core.
type Server struct {
	server        *http.Server
	host          string
	port          int
	tlsConfig     *tls.Config
	webauthnSvc   *webauthn.Service
	engine        *login.Engine
	events        *securitylog.Service
	tokens        *token.Service
	limiter       *ratelimit.Limiter
	sessionTTL    time.Duration
	secureCookies bool
	metricsPath   string
	logger        *slog.Logger
}

// Config holds the REST server configuration.
type Config struct {
	// Host is the listen address (default: 0.0.0.0).
	Host string

	// Port is the HTTP port to listen on (default: 8080).
	Port int

	// WebAuthn performs the registration and login ceremonies.
	WebAuthn *webauthn.Service

	// Engine makes password and biometric-token login decisions.
	Engine *login.Engine

	// Events is the owner-scoped security event surface.
	Events *securitylog.Service

	// Tokens verifies sessions and issues them at login.
	Tokens *token.Service

	// SessionTTL is the lifetime of issued session tokens.
	SessionTTL time.Duration

	// RateLimiter limits the public authentication endpoints (optional).
	RateLimiter *ratelimit.Limiter

	// MetricsPath exposes the Prometheus endpoint when set.
	MetricsPath string

	// SecureCookies marks the challenge cookie Secure. Enable behind TLS.
	SecureCookies bool

	// TLSConfig is the TLS configuration for HTTPS (optional).
	TLSConfig *tls.Config

	// Logger is the structured logger (required).
	Logger *slog.Logger

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.WebAuthn == nil {
		return nil, fmt.Errorf("webauthn service is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("login engine is required")
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("security event service is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}

	server := &Server{
		host:          cfg.Host,
		port:          cfg.Port,
		tlsConfig:     cfg.TLSConfig,
		webauthnSvc:   cfg.WebAuthn,
		engine:        cfg.Engine,
		events:        cfg.Events,
		tokens:        cfg.Tokens,
		limiter:       cfg.RateLimiter,
		sessionTTL:    cfg.SessionTTL,
		secureCookies: cfg.SecureCookies,
		metricsPath:   cfg.MetricsPath,
		logger:        cfg.Logger,
	}

	router := server.setupRouter()

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		TLSConfig:    cfg.TLSConfig,
	}

	return server, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)

	r.Get("/healthz", s.HealthHandler)
	r.Head("/healthz", s.HealthHandler)

	if s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil && s.limiter.IsEnabled() {
			r.Use(ratelimit.Middleware(s.limiter))
		}

		// Public authentication surface.
		r.Post("/auth/login", s.LoginHandler)
		r.Post("/webauthn/login/options", s.LoginOptionsHandler)
		r.Post("/webauthn/login/verify", s.LoginVerifyHandler)

		// Everything else requires a session.
		r.Group(func(r chi.Router) {
			r.Use(s.SessionMiddleware())

			r.Post("/webauthn/register/options", s.RegisterOptionsHandler)
			r.Post("/webauthn/register/verify", s.RegisterVerifyHandler)

			r.Get("/security/logs", s.ListSecurityLogsHandler)
			r.Patch("/security/logs", s.MarkSecurityLogReadHandler)
			r.Delete("/security/logs", s.DeleteSecurityLogsHandler)

			r.Group(func(r chi.Router) {
				r.Use(s.RequireAdmin())
				r.Post("/admin/accounts", s.CreateAccountHandler)
				r.Get("/admin/accounts", s.ListAccountsHandler)
			})
		})
	})

	return r
}

// Router returns the configured handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.server.Handler
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// Start starts the REST API server.
func (s *Server) Start() error {
	if s.tlsConfig != nil {
		s.logger.Info("Starting HTTPS server", "host", s.host, "port", s.port)

		if err := s.server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTPS server: %w", err)
		}
	} else {
		s.logger.Info("Starting HTTP server", "host", s.host, "port", s.port)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", "error", err)
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}
