// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package login

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/codrava/prospectd/pkg/account"
	"github.com/codrava/prospectd/pkg/securitylog"
	"github.com/codrava/prospectd/pkg/token"
)

const testSecret = "engine-test-secret-0123456789abcdef"

type engineFixture struct {
	engine   *Engine
	accounts *account.MemoryStore
	events   *securitylog.MemoryStore
	tokens   *token.Service
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	tokens, err := token.NewService([]byte(testSecret))
	require.NoError(t, err)

	accounts := account.NewMemoryStore()
	events := securitylog.NewMemoryStore()

	engine, err := NewEngine(EngineParams{
		Accounts:   accounts,
		Tokens:     tokens,
		Events:     securitylog.NewService(events, nil),
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	return &engineFixture{engine: engine, accounts: accounts, events: events, tokens: tokens}
}

func (f *engineFixture) seedAccount(t *testing.T, email, password string, exclusive bool) *account.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	acct := &account.Account{
		Email:              email,
		Name:               "Seed User",
		PasswordHash:       string(hash),
		Role:               account.RoleUser,
		BiometricEnabled:   exclusive,
		ExclusiveBiometric: exclusive,
	}
	require.NoError(t, f.accounts.Create(context.Background(), acct))
	return acct
}

func TestPasswordLoginSuccess(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	acct := f.seedAccount(t, "user@example.com", "correct horse", false)

	identity, err := f.engine.PasswordLogin(ctx, "user@example.com", "correct horse", RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, acct.ID, identity.AccountID)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "Seed User", identity.Name)
	assert.Equal(t, string(account.RoleUser), identity.Role)
	assert.False(t, identity.ExclusiveBiometric)

	// A clean login records nothing.
	events, err := f.events.ListByAccount(ctx, acct.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPasswordLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedAccount(t, "user@example.com", "correct horse", false)

	_, err := f.engine.PasswordLogin(ctx, "user@example.com", "battery staple", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordLoginUnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.engine.PasswordLogin(ctx, "nobody@example.com", "whatever", RequestMeta{})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestPasswordLoginBiometricOnlyAccount(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	acct := f.seedAccount(t, "locked@example.com", "correct horse", true)

	meta := RequestMeta{IP: "203.0.113.7", UserAgent: "Mozilla/5.0"}

	// Even the correct password is rejected without being checked.
	_, err := f.engine.PasswordLogin(ctx, "locked@example.com", "correct horse", meta)
	assert.ErrorIs(t, err, ErrPasswordLoginDisabled)

	events, err := f.events.ListByAccount(ctx, acct.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1, "exactly one intrusion event per attempt")
	assert.Equal(t, securitylog.ActionIntrusionAttempt, events[0].Action)
	assert.Equal(t, "203.0.113.7", events[0].IP)
	assert.Equal(t, "Mozilla/5.0", events[0].UserAgent)

	// A wrong password gets the same rejection and another event.
	_, err = f.engine.PasswordLogin(ctx, "locked@example.com", "battery staple", meta)
	assert.ErrorIs(t, err, ErrPasswordLoginDisabled)

	events, err = f.events.ListByAccount(ctx, acct.ID, 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

type failingEventStore struct {
	securitylog.Store
}

func (f *failingEventStore) Insert(ctx context.Context, event *securitylog.Event) error {
	return errors.New("event store down")
}

func TestPasswordLoginEventFailureDoesNotChangeOutcome(t *testing.T) {
	ctx := context.Background()

	tokens, err := token.NewService([]byte(testSecret))
	require.NoError(t, err)
	accounts := account.NewMemoryStore()

	engine, err := NewEngine(EngineParams{
		Accounts:   accounts,
		Tokens:     tokens,
		Events:     securitylog.NewService(&failingEventStore{}, nil),
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	acct := &account.Account{
		Email:              "locked@example.com",
		Name:               "Locked",
		PasswordHash:       string(hash),
		ExclusiveBiometric: true,
	}
	require.NoError(t, accounts.Create(ctx, acct))

	// The rejection stands even though the event could not be recorded.
	_, err = engine.PasswordLogin(ctx, "locked@example.com", "correct horse", RequestMeta{})
	assert.ErrorIs(t, err, ErrPasswordLoginDisabled)
}

func TestTokenLoginSuccess(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	acct := f.seedAccount(t, "bio@example.com", "correct horse", true)

	biometricToken, err := f.tokens.IssueBiometric(acct.ID.String(), "bio@example.com", time.Minute)
	require.NoError(t, err)

	identity, err := f.engine.TokenLogin(ctx, biometricToken)
	require.NoError(t, err)

	assert.Equal(t, acct.ID, identity.AccountID)
	assert.Equal(t, "bio@example.com", identity.Email)
	assert.True(t, identity.BiometricEnabled)
	assert.True(t, identity.ExclusiveBiometric)
}

func TestTokenLoginWorksOnBiometricOnlyAccounts(t *testing.T) {
	// The biometric path is not subject to the password lockout.
	ctx := context.Background()
	f := newEngineFixture(t)
	acct := f.seedAccount(t, "locked@example.com", "correct horse", true)

	biometricToken, err := f.tokens.IssueBiometric(acct.ID.String(), "locked@example.com", time.Minute)
	require.NoError(t, err)

	_, err = f.engine.TokenLogin(ctx, biometricToken)
	assert.NoError(t, err)
}

func TestTokenLoginRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	acct := f.seedAccount(t, "bio@example.com", "correct horse", true)

	// Garbage.
	_, err := f.engine.TokenLogin(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrBiometricTokenInvalid)

	// Expired.
	expired, err := f.tokens.IssueBiometric(acct.ID.String(), "bio@example.com", -time.Minute)
	require.NoError(t, err)
	_, err = f.engine.TokenLogin(ctx, expired)
	assert.ErrorIs(t, err, ErrBiometricTokenInvalid)

	// Wrong purpose: a challenge token is not a biometric token.
	challenge, err := f.tokens.IssueChallenge("some-challenge", time.Minute)
	require.NoError(t, err)
	_, err = f.engine.TokenLogin(ctx, challenge)
	assert.ErrorIs(t, err, ErrBiometricTokenInvalid)
}

func TestTokenLoginAccountGone(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	biometricToken, err := f.tokens.IssueBiometric("3f6b1f2e-0000-0000-0000-000000000000", "ghost@example.com", time.Minute)
	require.NoError(t, err)

	_, err = f.engine.TokenLogin(ctx, biometricToken)
	assert.ErrorIs(t, err, ErrBiometricTokenInvalid)
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	created, err := f.engine.CreateAccount(ctx, CreateAccountParams{
		Email:    "New@Example.COM",
		Name:     "New User",
		Company:  "Acme",
		Password: "initial password",
	})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, string(account.RoleUser), string(created.Role))
	assert.Empty(t, created.PasswordHash, "returned account is sanitized")

	// The stored hash verifies against the original password.
	stored, err := f.accounts.GetByEmail(ctx, "new@example.com", account.WithSecrets())
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("initial password")))

	// Duplicates are rejected.
	_, err = f.engine.CreateAccount(ctx, CreateAccountParams{
		Email:    "new@example.com",
		Name:     "Other",
		Password: "pw",
	})
	assert.ErrorIs(t, err, account.ErrEmailTaken)

	// Missing fields are rejected.
	_, err = f.engine.CreateAccount(ctx, CreateAccountParams{Email: "x@example.com"})
	assert.Error(t, err)
}

func TestListAccounts(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedAccount(t, "a@example.com", "pw-a", false)
	f.seedAccount(t, "b@example.com", "pw-b", true)

	accounts, err := f.engine.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, acct := range accounts {
		assert.Empty(t, acct.PasswordHash)
	}
}
