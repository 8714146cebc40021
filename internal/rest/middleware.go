// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codrava/prospectd/pkg/account"
	"github.com/codrava/prospectd/pkg/token"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the verified session claims attached by the
// session middleware.
func SessionFromContext(ctx context.Context) (*token.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionContextKey).(*token.SessionClaims)
	return claims, ok
}

// accountIDFromContext parses the session subject as the account UUID.
func accountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := SessionFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs HTTP requests using the configured logger.
func (s *Server) LoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			s.logger.Info("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", time.Since(start).String())
		})
	}
}

// RecoveryMiddleware recovers from panics and returns a 500 error.
func (s *Server) RecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					s.logger.Error("Panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"error", err)
					writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "An unexpected error occurred")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// SessionMiddleware authenticates requests with a Bearer session token and
// attaches the verified claims to the request context.
func (s *Server) SessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing bearer token")
				return
			}

			claims, err := s.tokens.VerifySession(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				s.logger.Warn("Session verification failed",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects sessions without the admin role. It must run after
// SessionMiddleware.
func (s *Server) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := SessionFromContext(r.Context())
			if !ok || claims.Role != string(account.RoleAdmin) {
				writeError(w, http.StatusForbidden, ErrorCodeForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
