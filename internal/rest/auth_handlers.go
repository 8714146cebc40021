// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codrava/prospectd/pkg/login"
	"github.com/codrava/prospectd/pkg/metrics"
	"github.com/codrava/prospectd/pkg/ratelimit"
	"github.com/codrava/prospectd/pkg/token"
)

// LoginHandler handles POST /api/v1/auth/login.
//
// A password login carries email and password; a biometric login carries
// the biometric token minted by the login/verify endpoint. Both yield a
// session token and the verified identity.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	var (
		identity *login.Identity
		err      error
		method   string
	)

	switch {
	case req.BiometricToken != "":
		method = metrics.MethodBiometric
		identity, err = s.engine.TokenLogin(r.Context(), req.BiometricToken)
	case req.Email != "" && req.Password != "":
		method = metrics.MethodPassword
		identity, err = s.engine.PasswordLogin(r.Context(), req.Email, req.Password, login.RequestMeta{
			IP:        ratelimit.ClientIP(r),
			UserAgent: r.UserAgent(),
		})
	default:
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "email and password, or a biometric token, are required")
		return
	}

	if err != nil {
		metrics.RecordLoginAttempt(method, false)
		if errors.Is(err, login.ErrPasswordLoginDisabled) {
			metrics.RecordIntrusionAttempt()
		}
		handleServiceError(w, err)
		return
	}

	sessionToken, err := s.tokens.IssueSession(token.SessionClaims{
		AccountID:          identity.AccountID.String(),
		Email:              identity.Email,
		Name:               identity.Name,
		Role:               identity.Role,
		BiometricEnabled:   identity.BiometricEnabled,
		ExclusiveBiometric: identity.ExclusiveBiometric,
	}, s.sessionTTL)
	if err != nil {
		s.logger.Error("Session issuance failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal server error")
		return
	}

	metrics.RecordLoginAttempt(method, true)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token: sessionToken,
		User:  identity,
	})
}
