// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package webauthn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/codrava/prospectd/pkg/account"
	"github.com/codrava/prospectd/pkg/token"
)

// Service runs WebAuthn registration and login ceremonies against the
// account store.
//
// Challenge state is split across two carriers: the account row holds the
// pending challenge for registration, while login challenges travel as a
// signed token so the login endpoints stay stateless for unknown emails.
type Service struct {
	webauthn *webauthn.WebAuthn
	config   *Config
	accounts account.Store
	tokens   *token.Service
	logger   *slog.Logger
}

// ServiceParams contains dependencies for creating a ceremony service.
type ServiceParams struct {
	// Config is the WebAuthn configuration (required).
	Config *Config

	// Accounts is the account persistence layer (required).
	Accounts account.Store

	// Tokens signs and verifies challenge and biometric tokens (required).
	Tokens *token.Service

	// Logger is optional; slog.Default() is used when nil.
	Logger *slog.Logger
}

// NewService creates a ceremony service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}

	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	wa, err := webauthn.New(params.Config.ToWebAuthnConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn instance: %w", err)
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		webauthn: wa,
		config:   params.Config,
		accounts: params.Accounts,
		tokens:   params.Tokens,
		logger:   logger,
	}, nil
}

// BeginRegistration starts a registration ceremony for an existing account.
// The generated challenge is persisted on the account so a later ceremony
// overwrites it.
func (s *Service) BeginRegistration(ctx context.Context, accountID uuid.UUID) (*protocol.CredentialCreation, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, wrapError("get account", ErrAccountNotFound)
		}
		return nil, wrapError("get account", err)
	}

	user := &ceremonyUser{acct: acct}

	// Exclude already registered credentials so the browser prompts for a
	// new authenticator instead of re-registering one.
	excludeList := make([]protocol.CredentialDescriptor, len(acct.Authenticators))
	for i, auth := range acct.Authenticators {
		transports := make([]protocol.AuthenticatorTransport, len(auth.Transports))
		for j, t := range auth.Transports {
			transports[j] = protocol.AuthenticatorTransport(t)
		}
		excludeList[i] = protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: auth.CredentialID,
			Transport:    transports,
		}
	}

	options, session, err := s.webauthn.BeginRegistration(user,
		webauthn.WithExclusions(excludeList),
	)
	if err != nil {
		return nil, wrapError("begin registration", err)
	}

	if err := s.accounts.SetChallenge(ctx, acct.ID, session.Challenge); err != nil {
		return nil, wrapError("store challenge", err)
	}

	return options, nil
}

// FinishRegistration verifies an attestation response against the account's
// pending challenge and persists the new authenticator. On success the
// account's biometric flags are updated atomically with the credential and
// the pending challenge is consumed. Returns the updated account.
func (s *Service) FinishRegistration(ctx context.Context, accountID uuid.UUID, response *protocol.ParsedCredentialCreationData) (*account.Account, error) {
	acct, err := s.accounts.GetByID(ctx, accountID, account.WithSecrets())
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, wrapError("get account", ErrAccountNotFound)
		}
		return nil, wrapError("get account", err)
	}

	if acct.CurrentChallenge == "" {
		return nil, wrapError("resolve challenge", ErrChallengeMissing)
	}

	user := &ceremonyUser{acct: acct}
	session := webauthn.SessionData{
		Challenge: acct.CurrentChallenge,
		UserID:    user.WebAuthnID(),
	}

	credential, err := s.webauthn.CreateCredential(user, session, response)
	if err != nil {
		s.logger.Debug("attestation verification failed",
			"account_id", acct.ID.String(),
			"error", err)
		return nil, wrapError("verify attestation", ErrVerificationFailed)
	}

	auth := fromLibraryCredential(credential)
	if err := s.accounts.AddAuthenticator(ctx, acct.ID, auth, s.config.Exclusive()); err != nil {
		return nil, wrapError("store authenticator", err)
	}

	updated, err := s.accounts.GetByID(ctx, acct.ID)
	if err != nil {
		return nil, wrapError("get account", err)
	}
	return updated, nil
}

// BeginLogin starts a login ceremony. When the email resolves to an account
// with registered authenticators, the options restrict allowed credentials
// to that account's and the challenge is additionally persisted on it.
// Otherwise discoverable-credential options are returned so the response
// shape does not reveal whether the email exists.
//
// The returned token carries the challenge and is required to finish the
// ceremony.
func (s *Service) BeginLogin(ctx context.Context, email string) (*protocol.CredentialAssertion, string, error) {
	var (
		options *protocol.CredentialAssertion
		session *webauthn.SessionData
		err     error
	)

	var acct *account.Account
	if email != "" {
		acct, err = s.accounts.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, account.ErrNotFound) {
			return nil, "", wrapError("get account", err)
		}
	}

	if acct != nil && len(acct.Authenticators) > 0 {
		options, session, err = s.webauthn.BeginLogin(&ceremonyUser{acct: acct})
		if err != nil {
			return nil, "", wrapError("begin login", err)
		}
		if err := s.accounts.SetChallenge(ctx, acct.ID, session.Challenge); err != nil {
			return nil, "", wrapError("store challenge", err)
		}
	} else {
		options, session, err = s.webauthn.BeginDiscoverableLogin()
		if err != nil {
			return nil, "", wrapError("begin login", err)
		}
	}

	challengeToken, err := s.tokens.IssueChallenge(session.Challenge, s.config.ChallengeTTL)
	if err != nil {
		return nil, "", wrapError("issue challenge token", err)
	}

	return options, challengeToken, nil
}

// FinishLogin verifies an assertion response against the challenge carried
// by the token. The account is resolved by email when given, otherwise by
// the asserted credential ID. On success the stored signature counter is
// advanced, the pending challenge is cleared and a short-lived biometric
// token is minted.
//
// A response whose counter has not advanced past the stored value is treated
// as a cloned authenticator: the ceremony fails and nothing is persisted.
func (s *Service) FinishLogin(ctx context.Context, email, challengeToken string, response *protocol.ParsedCredentialAssertionData) (*Assertion, error) {
	if challengeToken == "" {
		return nil, wrapError("resolve challenge", ErrChallengeMissing)
	}
	challenge, err := s.tokens.VerifyChallenge(challengeToken)
	if err != nil {
		return nil, wrapError("resolve challenge", ErrChallengeExpired)
	}

	var acct *account.Account
	if email != "" {
		acct, err = s.accounts.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return nil, wrapError("get account", ErrAccountNotFound)
			}
			return nil, wrapError("get account", err)
		}
	} else {
		acct, err = s.accounts.GetByCredentialID(ctx, response.RawID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return nil, wrapError("resolve credential", ErrCredentialNotRecognized)
			}
			return nil, wrapError("resolve credential", err)
		}
	}

	// The asserted credential must belong to the resolved account.
	if _, ok := acct.Authenticator(response.RawID); !ok {
		return nil, wrapError("resolve credential", ErrCredentialNotRecognized)
	}

	user := &ceremonyUser{acct: acct}
	session := webauthn.SessionData{
		Challenge: challenge,
		UserID:    user.WebAuthnID(),
	}

	credential, err := s.webauthn.ValidateLogin(user, session, response)
	if err != nil {
		s.logger.Debug("assertion verification failed",
			"account_id", acct.ID.String(),
			"error", err)
		return nil, wrapError("verify assertion", ErrVerificationFailed)
	}

	if credential.Authenticator.CloneWarning {
		s.logger.Warn("authenticator counter did not advance, possible clone",
			"account_id", acct.ID.String())
		return nil, wrapError("verify assertion", ErrVerificationFailed)
	}

	if err := s.accounts.UpdateCounter(ctx, acct.ID, credential.ID, credential.Authenticator.SignCount); err != nil {
		return nil, wrapError("update counter", err)
	}

	// Challenge cleanup is best-effort; the token already expires on its own.
	if err := s.accounts.ClearChallenge(ctx, acct.ID); err != nil {
		s.logger.Warn("failed to clear pending challenge",
			"account_id", acct.ID.String(),
			"error", err)
	}

	biometricToken, err := s.tokens.IssueBiometric(acct.ID.String(), acct.Email, s.config.BiometricTokenTTL)
	if err != nil {
		return nil, wrapError("issue biometric token", err)
	}

	return &Assertion{
		AccountID: acct.ID,
		Email:     acct.Email,
		Token:     biometricToken,
	}, nil
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}
