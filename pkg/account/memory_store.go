// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package account

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation for development and
// testing.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Account
	byEmail map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]*Account),
		byEmail: make(map[string]uuid.UUID),
	}
}

// Create persists a new account.
func (s *MemoryStore) Create(ctx context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := NormalizeEmail(acct.Email)
	if _, ok := s.byEmail[email]; ok {
		return ErrEmailTaken
	}
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	now := time.Now().UTC()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now
	acct.Email = email

	stored := acct.Clone()
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return nil
}

// GetByID retrieves an account by ID.
func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID, opts ...LookupOption) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.project(stored, opts), nil
}

// GetByEmail retrieves an account by normalized email.
func (s *MemoryStore) GetByEmail(ctx context.Context, email string, opts ...LookupOption) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return s.project(s.byID[id], opts), nil
}

// GetByCredentialID scans all accounts for one owning the credential.
func (s *MemoryStore) GetByCredentialID(ctx context.Context, credentialID []byte, opts ...LookupOption) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, stored := range s.byID {
		if _, ok := stored.Authenticator(credentialID); ok {
			return s.project(stored, opts), nil
		}
	}
	return nil, ErrNotFound
}

// List returns all accounts, sanitized, ordered by creation time.
func (s *MemoryStore) List(ctx context.Context) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*Account, 0, len(s.byID))
	for _, stored := range s.byID {
		accounts = append(accounts, s.project(stored, nil))
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// SetChallenge records a pending ceremony challenge.
func (s *MemoryStore) SetChallenge(ctx context.Context, id uuid.UUID, challenge string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	stored.CurrentChallenge = challenge
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearChallenge removes the pending ceremony challenge.
func (s *MemoryStore) ClearChallenge(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	stored.CurrentChallenge = ""
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// AddAuthenticator appends a verified credential and updates policy flags in
// one command.
func (s *MemoryStore) AddAuthenticator(ctx context.Context, id uuid.UUID, auth Authenticator, makeExclusive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range s.byID {
		if _, dup := existing.Authenticator(auth.CredentialID); dup {
			return ErrCredentialExists
		}
	}
	if auth.AddedAt.IsZero() {
		auth.AddedAt = time.Now().UTC()
	}
	auth.CredentialID = append([]byte(nil), auth.CredentialID...)
	auth.PublicKey = append([]byte(nil), auth.PublicKey...)
	auth.Transports = append([]string(nil), auth.Transports...)

	stored.Authenticators = append(stored.Authenticators, auth)
	stored.BiometricEnabled = true
	if makeExclusive {
		stored.ExclusiveBiometric = true
	}
	stored.CurrentChallenge = ""
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateCounter persists a new signature counter for one credential.
func (s *MemoryStore) UpdateCounter(ctx context.Context, id uuid.UUID, credentialID []byte, counter uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	for i := range stored.Authenticators {
		if bytes.Equal(stored.Authenticators[i].CredentialID, credentialID) {
			stored.Authenticators[i].Counter = counter
			stored.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

// project deep-copies the stored record, applying the requested projection.
func (s *MemoryStore) project(stored *Account, opts []LookupOption) *Account {
	cfg := applyLookupOptions(opts)
	clone := stored.Clone()
	if !cfg.secrets {
		clone.Sanitize()
	}
	return clone
}
