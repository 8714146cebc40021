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
	"log"
	"net/http"

	"github.com/codrava/prospectd/pkg/account"
	"github.com/codrava/prospectd/pkg/login"
	"github.com/codrava/prospectd/pkg/securitylog"
	"github.com/codrava/prospectd/pkg/webauthn"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// writeError writes an error response with a machine-readable code.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// handleServiceError maps service errors to HTTP responses. Credential
// failures collapse to the same code regardless of cause so the response
// does not reveal whether the email exists.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, webauthn.ErrChallengeMissing):
		writeError(w, http.StatusBadRequest, ErrorCodeChallengeMissing, "no pending challenge")
	case errors.Is(err, webauthn.ErrChallengeExpired):
		writeError(w, http.StatusBadRequest, ErrorCodeChallengeExpired, "challenge expired or invalid")
	case errors.Is(err, webauthn.ErrCredentialNotRecognized):
		writeError(w, http.StatusUnauthorized, ErrorCodeCredentialNotRecognized, "credential not recognized")
	case errors.Is(err, webauthn.ErrVerificationFailed):
		writeError(w, http.StatusUnauthorized, ErrorCodeVerificationFailed, "verification failed")
	case errors.Is(err, login.ErrPasswordLoginDisabled):
		writeError(w, http.StatusForbidden, ErrorCodePasswordLoginDisabled, "password login is disabled for this account")
	case errors.Is(err, login.ErrInvalidCredentials),
		errors.Is(err, login.ErrAccountNotFound),
		errors.Is(err, login.ErrBiometricTokenInvalid):
		writeError(w, http.StatusUnauthorized, ErrorCodeInvalidCredentials, "invalid credentials")
	case errors.Is(err, webauthn.ErrAccountNotFound),
		errors.Is(err, account.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrorCodeAccountNotFound, "account not found")
	case errors.Is(err, account.ErrEmailTaken):
		writeError(w, http.StatusConflict, ErrorCodeEmailTaken, "email already registered")
	case errors.Is(err, account.ErrCredentialExists):
		writeError(w, http.StatusConflict, ErrorCodeCredentialExists, "credential already registered")
	case errors.Is(err, securitylog.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "security event not found")
	default:
		writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal server error")
	}
}
