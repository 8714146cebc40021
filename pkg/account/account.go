// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package account defines the user account model, its registered WebAuthn
// authenticators, and the store contract the authentication core depends on.
//
// Accounts carry two sensitive fields, the password hash and the pending
// ceremony challenge. Both are excluded from every read by default; callers
// on the authentication path request them explicitly with WithSecrets.
package account

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the account's authorization level. It is carried through the
// verified-identity assertion but never consulted by the authentication core.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account represents a registered dashboard user.
type Account struct {
	// ID is the stable account identifier, also used as the WebAuthn user
	// handle.
	ID uuid.UUID `json:"id"`

	// Email is the unique login identifier, stored lowercase.
	Email string `json:"email"`

	// Name is the display name shown in ceremony prompts.
	Name string `json:"name"`

	// Company is descriptive profile metadata.
	Company string `json:"company,omitempty"`

	// PasswordHash is the bcrypt hash of the password credential. It is
	// retained even in exclusive-biometric mode and zeroed on default reads.
	PasswordHash string `json:"-"`

	// Role is the authorization level (user or admin).
	Role Role `json:"role"`

	// BiometricEnabled is true once at least one authenticator is registered.
	BiometricEnabled bool `json:"biometric_enabled"`

	// ExclusiveBiometric permanently disables password login for the
	// account. One-way policy escalation.
	ExclusiveBiometric bool `json:"exclusive_biometric"`

	// CurrentChallenge is the pending ceremony challenge, set when a
	// ceremony begins and cleared when it completes. Zeroed on default
	// reads.
	CurrentChallenge string `json:"-"`

	// Authenticators are the account's registered WebAuthn credentials.
	Authenticators []Authenticator `json:"authenticators,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Authenticator is one registered credential, owned by exactly one account.
type Authenticator struct {
	// CredentialID is the opaque identifier assigned by the authenticator,
	// globally unique across the system.
	CredentialID []byte `json:"credential_id"`

	// PublicKey is the credential public key in COSE format. Opaque to
	// everything except the verification routine; never mutated.
	PublicKey []byte `json:"public_key"`

	// Counter is the monotonic signature counter used for clone detection.
	Counter uint32 `json:"counter"`

	// DeviceType distinguishes single-device from multi-device (synced)
	// credentials.
	DeviceType string `json:"device_type,omitempty"`

	// BackedUp reports whether the credential is backed up by the platform.
	BackedUp bool `json:"backed_up"`

	// Transports are the transport hints reported at registration.
	Transports []string `json:"transports,omitempty"`

	// AddedAt is when the credential was registered.
	AddedAt time.Time `json:"added_at"`
}

// Authenticator returns the registered credential with the given ID.
func (a *Account) Authenticator(credentialID []byte) (*Authenticator, bool) {
	for i := range a.Authenticators {
		if bytes.Equal(a.Authenticators[i].CredentialID, credentialID) {
			return &a.Authenticators[i], true
		}
	}
	return nil, false
}

// WebAuthnUserID returns the byte form of the account ID used as the
// WebAuthn user handle.
func (a *Account) WebAuthnUserID() []byte {
	id := a.ID
	return id[:]
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	clone := *a
	clone.Authenticators = make([]Authenticator, len(a.Authenticators))
	for i, auth := range a.Authenticators {
		clone.Authenticators[i] = auth
		clone.Authenticators[i].CredentialID = append([]byte(nil), auth.CredentialID...)
		clone.Authenticators[i].PublicKey = append([]byte(nil), auth.PublicKey...)
		clone.Authenticators[i].Transports = append([]string(nil), auth.Transports...)
	}
	return &clone
}

// Sanitize zeroes the fields excluded from default projections.
func (a *Account) Sanitize() {
	a.PasswordHash = ""
	a.CurrentChallenge = ""
}

// NormalizeEmail lowercases and trims an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
