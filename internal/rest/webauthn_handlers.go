// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/codrava/prospectd/pkg/metrics"
)

// RegisterOptionsHandler handles POST /api/v1/webauthn/register/options.
//
// The account comes from the authenticated session; the response is the
// credential creation options for the browser.
func (s *Server) RegisterOptionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid session subject")
		return
	}

	options, err := s.webauthnSvc.BeginRegistration(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

// RegisterVerifyHandler handles POST /api/v1/webauthn/register/verify.
//
// The body is the raw attestation response from the authenticator.
func (s *Server) RegisterVerifyHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid session subject")
		return
	}

	response, err := protocol.ParseCredentialCreationResponseBody(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid attestation response")
		return
	}

	acct, err := s.webauthnSvc.FinishRegistration(r.Context(), accountID, response)
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyRegistration, false)
		handleServiceError(w, err)
		return
	}

	metrics.RecordCeremony(metrics.CeremonyRegistration, true)
	writeJSON(w, http.StatusOK, RegisterVerifyResponse{
		Verified:           true,
		BiometricEnabled:   acct.BiometricEnabled,
		ExclusiveBiometric: acct.ExclusiveBiometric,
	})
}

// LoginOptionsHandler handles POST /api/v1/webauthn/login/options.
//
// The signed challenge travels back in an HttpOnly cookie so the verify
// request can present it without the client script ever seeing it. Unknown
// emails receive the same response shape as known ones.
func (s *Server) LoginOptionsHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An empty body requests a discoverable ceremony.
		req = LoginOptionsRequest{}
	}

	options, challengeToken, err := s.webauthnSvc.BeginLogin(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ChallengeCookieName,
		Value:    challengeToken,
		Path:     "/api/v1/webauthn",
		MaxAge:   int(s.webauthnSvc.Config().ChallengeTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, options)
}

// LoginVerifyHandler handles POST /api/v1/webauthn/login/verify.
//
// Reads the challenge cookie set by LoginOptionsHandler, verifies the
// assertion and returns the biometric token for session issuance. The
// cookie is cleared whatever the outcome; challenges are single use.
func (s *Server) LoginVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var challengeToken string
	if cookie, err := r.Cookie(ChallengeCookieName); err == nil {
		challengeToken = cookie.Value
	}
	s.clearChallengeCookie(w)

	var req LoginVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}
	if len(req.Assertion) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "assertion is required")
		return
	}

	response, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(req.Assertion))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid assertion response")
		return
	}

	assertion, err := s.webauthnSvc.FinishLogin(r.Context(), req.Email, challengeToken, response)
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyLogin, false)
		handleServiceError(w, err)
		return
	}

	metrics.RecordCeremony(metrics.CeremonyLogin, true)
	writeJSON(w, http.StatusOK, LoginVerifyResponse{
		Verified:       true,
		BiometricToken: assertion.Token,
	})
}

func (s *Server) clearChallengeCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ChallengeCookieName,
		Value:    "",
		Path:     "/api/v1/webauthn",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
