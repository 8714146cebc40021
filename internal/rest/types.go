// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"encoding/json"

	"github.com/codrava/prospectd/pkg/login"
	"github.com/codrava/prospectd/pkg/securitylog"
)

// ChallengeCookieName is the cookie carrying the signed login challenge
// between the options and verify requests.
const ChallengeCookieName = "webauthn_challenge"

// LoginRequest is the body for POST /api/v1/auth/login. Either the
// password pair or the biometric token is set, never both.
type LoginRequest struct {
	Email          string `json:"email,omitempty"`
	Password       string `json:"password,omitempty"`
	BiometricToken string `json:"biometric_token,omitempty"`
}

// LoginResponse carries the session token and the verified identity.
type LoginResponse struct {
	Token string          `json:"token"`
	User  *login.Identity `json:"user"`
}

// LoginOptionsRequest is the body for POST /api/v1/webauthn/login/options.
type LoginOptionsRequest struct {
	// Email selects the account whose credentials are allowed. Empty
	// requests a discoverable (usernameless) ceremony.
	Email string `json:"email,omitempty"`
}

// LoginVerifyRequest is the body for POST /api/v1/webauthn/login/verify.
type LoginVerifyRequest struct {
	Email string `json:"email,omitempty"`

	// Assertion is the raw authenticator assertion response.
	Assertion json.RawMessage `json:"assertion"`
}

// LoginVerifyResponse is returned after a verified assertion.
type LoginVerifyResponse struct {
	Verified bool `json:"verified"`

	// BiometricToken proves the ceremony outcome to the session-issuance
	// endpoint.
	BiometricToken string `json:"biometric_token"`
}

// RegisterVerifyResponse is returned after a verified attestation.
type RegisterVerifyResponse struct {
	Verified           bool `json:"verified"`
	BiometricEnabled   bool `json:"biometric_enabled"`
	ExclusiveBiometric bool `json:"exclusive_biometric"`
}

// CreateAccountRequest is the body for POST /api/v1/admin/accounts.
type CreateAccountRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Company  string `json:"company,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// SecurityLogsResponse wraps the owner-scoped event list.
type SecurityLogsResponse struct {
	Events []*securitylog.Event `json:"events"`
}

// MarkReadRequest is the body for PATCH /api/v1/security/logs.
type MarkReadRequest struct {
	ID string `json:"id"`
}

// StatusResponse is a minimal acknowledgement body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the response format for errors.
type ErrorResponse struct {
	// Error is the machine-readable error code.
	Error string `json:"error"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeUnauthorized            = "unauthorized"
	ErrorCodeForbidden               = "forbidden"
	ErrorCodeInvalidCredentials      = "invalid_credentials"
	ErrorCodePasswordLoginDisabled   = "password_login_disabled"
	ErrorCodeChallengeMissing        = "challenge_missing"
	ErrorCodeChallengeExpired        = "challenge_expired"
	ErrorCodeCredentialNotRecognized = "credential_not_recognized"
	ErrorCodeVerificationFailed      = "verification_failed"
	ErrorCodeAccountNotFound         = "account_not_found"
	ErrorCodeEmailTaken              = "email_taken"
	ErrorCodeCredentialExists        = "credential_exists"
	ErrorCodeNotFound                = "not_found"
	ErrorCodeRateLimited             = "rate_limited"
	ErrorCodeInternalError           = "internal_error"
)
