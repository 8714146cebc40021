// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package webauthn

import (
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/codrava/prospectd/pkg/account"
)

// Device type values recorded on stored authenticators, following the
// credential backup eligibility flag.
const (
	DeviceTypeSingle = "singleDevice"
	DeviceTypeMulti  = "multiDevice"
)

// Assertion is the outcome of a successfully verified login ceremony.
type Assertion struct {
	// AccountID is the verified account.
	AccountID uuid.UUID `json:"account_id"`

	// Email is the verified account's email.
	Email string `json:"email"`

	// Token is a short-lived proof of biometric verification, redeemable for
	// a session by the authentication decision engine.
	Token string `json:"token"`
}

// ceremonyUser adapts an account to the go-webauthn user contract.
type ceremonyUser struct {
	acct *account.Account
}

// WebAuthnID returns the account's stable user handle.
func (u *ceremonyUser) WebAuthnID() []byte {
	return u.acct.WebAuthnUserID()
}

// WebAuthnName returns the account's email.
func (u *ceremonyUser) WebAuthnName() string {
	return u.acct.Email
}

// WebAuthnDisplayName returns the account's display name, falling back to
// the email.
func (u *ceremonyUser) WebAuthnDisplayName() string {
	if u.acct.Name == "" {
		return u.acct.Email
	}
	return u.acct.Name
}

// WebAuthnCredentials returns the account's registered credentials.
func (u *ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, len(u.acct.Authenticators))
	for i, auth := range u.acct.Authenticators {
		creds[i] = toLibraryCredential(&auth)
	}
	return creds
}

// toLibraryCredential converts a stored authenticator to the go-webauthn
// credential type.
func toLibraryCredential(auth *account.Authenticator) webauthn.Credential {
	transports := make([]protocol.AuthenticatorTransport, len(auth.Transports))
	for i, t := range auth.Transports {
		transports[i] = protocol.AuthenticatorTransport(t)
	}
	return webauthn.Credential{
		ID:        auth.CredentialID,
		PublicKey: auth.PublicKey,
		Transport: transports,
		Flags: webauthn.CredentialFlags{
			BackupEligible: auth.DeviceType == DeviceTypeMulti,
			BackupState:    auth.BackedUp,
		},
		Authenticator: webauthn.Authenticator{
			SignCount: auth.Counter,
		},
	}
}

// fromLibraryCredential converts a freshly created go-webauthn credential to
// the stored authenticator shape.
func fromLibraryCredential(cred *webauthn.Credential) account.Authenticator {
	transports := make([]string, len(cred.Transport))
	for i, t := range cred.Transport {
		transports[i] = string(t)
	}
	deviceType := DeviceTypeSingle
	if cred.Flags.BackupEligible {
		deviceType = DeviceTypeMulti
	}
	return account.Authenticator{
		CredentialID: cred.ID,
		PublicKey:    cred.PublicKey,
		Counter:      cred.Authenticator.SignCount,
		DeviceType:   deviceType,
		BackedUp:     cred.Flags.BackupState,
		Transports:   transports,
		AddedAt:      time.Now().UTC(),
	}
}
