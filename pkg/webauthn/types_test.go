// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package webauthn

import (
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codrava/prospectd/pkg/account"
)

func TestCeremonyUserAdapter(t *testing.T) {
	acct := &account.Account{
		ID:    uuid.New(),
		Email: "adapter@example.com",
		Name:  "Adapter Test",
		Authenticators: []account.Authenticator{
			{
				CredentialID: []byte("cred-1"),
				PublicKey:    []byte("pk-1"),
				Counter:      7,
				DeviceType:   DeviceTypeMulti,
				BackedUp:     true,
				Transports:   []string{"internal", "hybrid"},
			},
		},
	}

	user := &ceremonyUser{acct: acct}

	assert.Equal(t, acct.WebAuthnUserID(), user.WebAuthnID())
	assert.Equal(t, "adapter@example.com", user.WebAuthnName())
	assert.Equal(t, "Adapter Test", user.WebAuthnDisplayName())

	creds := user.WebAuthnCredentials()
	require.Len(t, creds, 1)
	assert.Equal(t, []byte("cred-1"), creds[0].ID)
	assert.Equal(t, []byte("pk-1"), creds[0].PublicKey)
	assert.Equal(t, uint32(7), creds[0].Authenticator.SignCount)
	assert.True(t, creds[0].Flags.BackupEligible)
	assert.True(t, creds[0].Flags.BackupState)
	assert.Equal(t, []protocol.AuthenticatorTransport{"internal", "hybrid"}, creds[0].Transport)
}

func TestCeremonyUserDisplayNameFallback(t *testing.T) {
	user := &ceremonyUser{acct: &account.Account{Email: "noname@example.com"}}
	assert.Equal(t, "noname@example.com", user.WebAuthnDisplayName())
}

func TestFromLibraryCredential(t *testing.T) {
	cred := &webauthn.Credential{
		ID:        []byte("cred-2"),
		PublicKey: []byte("pk-2"),
		Transport: []protocol.AuthenticatorTransport{"usb"},
		Flags: webauthn.CredentialFlags{
			BackupEligible: false,
			BackupState:    false,
		},
		Authenticator: webauthn.Authenticator{SignCount: 3},
	}

	auth := fromLibraryCredential(cred)

	assert.Equal(t, []byte("cred-2"), auth.CredentialID)
	assert.Equal(t, []byte("pk-2"), auth.PublicKey)
	assert.Equal(t, uint32(3), auth.Counter)
	assert.Equal(t, DeviceTypeSingle, auth.DeviceType)
	assert.False(t, auth.BackedUp)
	assert.Equal(t, []string{"usb"}, auth.Transports)
	assert.False(t, auth.AddedAt.IsZero())
}

func TestCredentialRoundTrip(t *testing.T) {
	original := account.Authenticator{
		CredentialID: []byte("round-trip"),
		PublicKey:    []byte("pk"),
		Counter:      42,
		DeviceType:   DeviceTypeMulti,
		BackedUp:     true,
		Transports:   []string{"internal"},
	}

	cred := toLibraryCredential(&original)
	back := fromLibraryCredential(&cred)

	assert.Equal(t, original.CredentialID, back.CredentialID)
	assert.Equal(t, original.PublicKey, back.PublicKey)
	assert.Equal(t, original.Counter, back.Counter)
	assert.Equal(t, original.DeviceType, back.DeviceType)
	assert.Equal(t, original.BackedUp, back.BackedUp)
	assert.Equal(t, original.Transports, back.Transports)
}
