// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Sentinel errors for account storage.
var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")

	// ErrEmailTaken is returned when creating an account with an email that
	// already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrCredentialExists is returned when registering a credential ID that
	// is already stored, on any account.
	ErrCredentialExists = errors.New("credential already registered")
)

// LookupOption adjusts the projection of a read.
type LookupOption func(*lookupConfig)

type lookupConfig struct {
	secrets bool
}

// WithSecrets includes the password hash and pending challenge in the read.
// Only the authentication path should use it.
func WithSecrets() LookupOption {
	return func(c *lookupConfig) { c.secrets = true }
}

func applyLookupOptions(opts []LookupOption) lookupConfig {
	var cfg lookupConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Store is the account persistence contract. Mutations are scoped commands
// naming exactly the fields they change, so concurrent writers cannot
// clobber each other's unrelated fields; every read returns the current
// stored value, never a cached snapshot.
type Store interface {
	// Create persists a new account. Returns ErrEmailTaken on duplicates.
	Create(ctx context.Context, acct *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id uuid.UUID, opts ...LookupOption) (*Account, error)

	// GetByEmail retrieves an account by normalized email.
	GetByEmail(ctx context.Context, email string, opts ...LookupOption) (*Account, error)

	// GetByCredentialID retrieves the account owning the given WebAuthn
	// credential. This serves discoverable login, where the client presents
	// only a credential.
	GetByCredentialID(ctx context.Context, credentialID []byte, opts ...LookupOption) (*Account, error)

	// List returns all accounts, always sanitized. Admin surface only.
	List(ctx context.Context) ([]*Account, error)

	// SetChallenge records a pending ceremony challenge on the account,
	// overwriting any previous one.
	SetChallenge(ctx context.Context, id uuid.UUID, challenge string) error

	// ClearChallenge removes the pending ceremony challenge.
	ClearChallenge(ctx context.Context, id uuid.UUID) error

	// AddAuthenticator appends a newly verified credential and, in the same
	// command, sets BiometricEnabled, optionally escalates
	// ExclusiveBiometric, and clears the pending challenge. Returns
	// ErrCredentialExists if the credential ID is already stored anywhere.
	AddAuthenticator(ctx context.Context, id uuid.UUID, auth Authenticator, makeExclusive bool) error

	// UpdateCounter persists a new signature counter for one credential.
	UpdateCounter(ctx context.Context, id uuid.UUID, credentialID []byte, counter uint32) error
}
