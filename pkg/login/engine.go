// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package login is the authentication decision engine. It owns the policy
// that decides whether a password or a biometric token may authenticate an
// account, and it records intrusion attempts against accounts whose
// password login has been disabled.
//
// Every attempt is decided independently; there is no retry counting or
// temporary lockout.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/codrava/prospectd/pkg/account"
	"github.com/codrava/prospectd/pkg/securitylog"
	"github.com/codrava/prospectd/pkg/token"
)

// DefaultBcryptCost matches the cost used when accounts are provisioned.
const DefaultBcryptCost = 12

// Sentinel errors for authentication decisions.
var (
	// ErrAccountNotFound is returned when the email resolves to no account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordLoginDisabled is returned for password attempts against an
	// account in biometric-only mode. The password itself is never checked.
	ErrPasswordLoginDisabled = errors.New("password login disabled for this account")

	// ErrBiometricTokenInvalid is returned when a biometric token fails
	// verification for any reason.
	ErrBiometricTokenInvalid = errors.New("biometric token invalid or expired")
)

// Identity is the verified outcome of a successful authentication decision.
type Identity struct {
	AccountID          uuid.UUID `json:"account_id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	BiometricEnabled   bool      `json:"biometric_enabled"`
	ExclusiveBiometric bool      `json:"exclusive_biometric"`
}

// RequestMeta carries the request context recorded on security events.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Engine decides authentication attempts against the account store.
type Engine struct {
	accounts   account.Store
	tokens     *token.Service
	events     *securitylog.Service
	logger     *slog.Logger
	bcryptCost int
}

// EngineParams contains dependencies for creating an Engine.
type EngineParams struct {
	// Accounts is the account persistence layer (required).
	Accounts account.Store

	// Tokens verifies biometric tokens (required).
	Tokens *token.Service

	// Events records intrusion attempts (required).
	Events *securitylog.Service

	// Logger is optional; slog.Default() is used when nil.
	Logger *slog.Logger

	// BcryptCost is used when provisioning accounts. Defaults to
	// DefaultBcryptCost.
	BcryptCost int
}

// NewEngine creates an authentication decision engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("security event service is required")
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cost := params.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &Engine{
		accounts:   params.Accounts,
		tokens:     params.Tokens,
		events:     params.Events,
		logger:     logger,
		bcryptCost: cost,
	}, nil
}

// PasswordLogin decides a password authentication attempt.
//
// Accounts in biometric-only mode reject the attempt before the password is
// ever compared, and each such attempt is recorded as an intrusion event.
// Recording failures never change the outcome.
func (e *Engine) PasswordLogin(ctx context.Context, email, password string, meta RequestMeta) (*Identity, error) {
	acct, err := e.accounts.GetByEmail(ctx, email, account.WithSecrets())
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if acct.ExclusiveBiometric {
		e.events.Record(ctx, acct.ID,
			"Password login attempt while biometric-only login is enforced",
			meta.IP, meta.UserAgent)
		e.logger.Warn("password attempt against biometric-only account",
			"account_id", acct.ID.String(),
			"ip", meta.IP)
		return nil, ErrPasswordLoginDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return identityOf(acct), nil
}

// TokenLogin decides an authentication attempt backed by a biometric token
// minted after a verified WebAuthn ceremony. Password policy is not
// consulted on this path.
func (e *Engine) TokenLogin(ctx context.Context, biometricToken string) (*Identity, error) {
	claims, err := e.tokens.VerifyBiometric(biometricToken)
	if err != nil {
		return nil, ErrBiometricTokenInvalid
	}

	acct, err := e.accounts.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrBiometricTokenInvalid
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	// The token must still describe the account it was minted for.
	if acct.ID.String() != claims.AccountID {
		return nil, ErrBiometricTokenInvalid
	}

	return identityOf(acct), nil
}

// CreateAccountParams describes a new account to provision.
type CreateAccountParams struct {
	Email    string
	Name     string
	Company  string
	Password string
	Role     account.Role
}

// CreateAccount provisions an account with a hashed password. Callers are
// responsible for authorizing the operation; the REST layer restricts it to
// administrators.
func (e *Engine) CreateAccount(ctx context.Context, params CreateAccountParams) (*account.Account, error) {
	if params.Email == "" || params.Name == "" || params.Password == "" {
		return nil, fmt.Errorf("name, email and password are required")
	}
	role := params.Role
	if role == "" {
		role = account.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), e.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &account.Account{
		Email:        params.Email,
		Name:         params.Name,
		Company:      params.Company,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := e.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}

	created, err := e.accounts.GetByID(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return created, nil
}

// ListAccounts returns all accounts without secret fields.
func (e *Engine) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	return e.accounts.List(ctx)
}

func identityOf(acct *account.Account) *Identity {
	return &Identity{
		AccountID:          acct.ID,
		Email:              acct.Email,
		Name:               acct.Name,
		Role:               string(acct.Role),
		BiometricEnabled:   acct.BiometricEnabled,
		ExclusiveBiometric: acct.ExclusiveBiometric,
	}
}
