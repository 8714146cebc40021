// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package token issues and verifies the short-lived signed tokens that carry
// authentication state across stateless boundaries: the WebAuthn challenge
// cookie, the post-ceremony biometric assertion token, and the session token
// handed to clients after a successful login.
//
// Each token kind carries a purpose claim and is verified only by the method
// for that kind, so a token of one purpose can never be replayed as another.
// All verification failures (bad signature, tampering, expiry, wrong purpose)
// collapse into the single ErrTokenInvalid sentinel; callers translate it at
// the policy boundary and must not leak which check failed.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose tags a token with the single use it was minted for.
type Purpose string

const (
	// PurposeChallenge marks a token carrying a pending WebAuthn challenge.
	PurposeChallenge Purpose = "webauthn-challenge"

	// PurposeBiometric marks a token minted after a verified authentication
	// ceremony. It crosses the trust boundary into session issuance.
	PurposeBiometric Purpose = "biometric-verified"

	// PurposeSession marks a session token minted at login.
	PurposeSession Purpose = "session"
)

// ErrTokenInvalid is returned for every verification failure. The cause is
// deliberately not distinguishable by the caller.
var ErrTokenInvalid = errors.New("token invalid or expired")

// MinSecretLength is the minimum accepted HMAC secret size in bytes.
const MinSecretLength = 32

type challengeClaims struct {
	Challenge string  `json:"challenge"`
	Purpose   Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// BiometricClaims is the verified identity carried by a biometric assertion
// token.
type BiometricClaims struct {
	AccountID string  `json:"sub"`
	Email     string  `json:"email"`
	Purpose   Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// SessionClaims is the identity snapshot embedded in a session token.
type SessionClaims struct {
	AccountID          string  `json:"sub"`
	Email              string  `json:"email"`
	Name               string  `json:"name"`
	Role               string  `json:"role"`
	BiometricEnabled   bool    `json:"biometric_enabled"`
	ExclusiveBiometric bool    `json:"exclusive_biometric"`
	Purpose            Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Service signs and verifies purpose-tagged tokens with a single server-held
// secret. It is constructed once at process start and injected wherever
// tokens are needed; there is no package-level signing state.
type Service struct {
	secret []byte
	issuer string
}

// NewService creates a token service from the server secret.
func NewService(secret []byte) (*Service, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)
	}
	return &Service{
		secret: secret,
		issuer: "prospectd",
	}, nil
}

// IssueChallenge signs a challenge token valid for ttl. A negative ttl
// produces an already-expired token, which tests use to exercise expiry.
func (s *Service) IssueChallenge(challenge string, ttl time.Duration) (string, error) {
	if challenge == "" {
		return "", fmt.Errorf("challenge is required")
	}
	return s.sign(&challengeClaims{
		Challenge:        challenge,
		Purpose:          PurposeChallenge,
		RegisteredClaims: s.registered(ttl),
	})
}

// VerifyChallenge checks signature, expiry, and purpose, returning the
// embedded challenge. Any failure yields ErrTokenInvalid and nothing else;
// verification has no side effects, so a failed token fails identically on
// every retry.
func (s *Service) VerifyChallenge(tokenString string) (string, error) {
	claims := &challengeClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return "", ErrTokenInvalid
	}
	if claims.Purpose != PurposeChallenge || claims.Challenge == "" {
		return "", ErrTokenInvalid
	}
	return claims.Challenge, nil
}

// IssueBiometric mints the post-ceremony assertion token for a verified
// identity.
func (s *Service) IssueBiometric(accountID, email string, ttl time.Duration) (string, error) {
	if accountID == "" || email == "" {
		return "", fmt.Errorf("account id and email are required")
	}
	return s.sign(&BiometricClaims{
		AccountID:        accountID,
		Email:            email,
		Purpose:          PurposeBiometric,
		RegisteredClaims: s.registered(ttl),
	})
}

// VerifyBiometric checks a biometric assertion token and returns its claims.
func (s *Service) VerifyBiometric(tokenString string) (*BiometricClaims, error) {
	claims := &BiometricClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != PurposeBiometric || claims.AccountID == "" || claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IssueSession mints a session token for the given identity snapshot.
func (s *Service) IssueSession(claims SessionClaims, ttl time.Duration) (string, error) {
	if claims.AccountID == "" || claims.Email == "" {
		return "", fmt.Errorf("account id and email are required")
	}
	claims.Purpose = PurposeSession
	claims.RegisteredClaims = s.registered(ttl)
	return s.sign(&claims)
}

// VerifySession checks a session token and returns the identity snapshot.
func (s *Service) VerifySession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != PurposeSession || claims.AccountID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *Service) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Service) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) parse(tokenString string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// Pin the signing method so an attacker cannot swap algorithms.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
