// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package securitylog

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation for development and
// testing.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*Event
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[uuid.UUID]*Event)}
}

// Insert appends one event.
func (s *MemoryStore) Insert(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	stored := *event
	s.events[stored.ID] = &stored
	return nil
}

// ListByAccount returns up to limit events owned by accountID, newest first.
func (s *MemoryStore) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*Event
	for _, event := range s.events {
		if event.AccountID == accountID {
			clone := *event
			owned = append(owned, &clone)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].Timestamp.After(owned[j].Timestamp)
	})
	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

// MarkRead flags one owned event as read.
func (s *MemoryStore) MarkRead(ctx context.Context, accountID, eventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok || event.AccountID != accountID {
		return ErrNotFound
	}
	event.Read = true
	return nil
}

// Delete removes one owned event.
func (s *MemoryStore) Delete(ctx context.Context, accountID, eventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok || event.AccountID != accountID {
		return ErrNotFound
	}
	delete(s.events, eventID)
	return nil
}

// DeleteAll removes every event owned by the account.
func (s *MemoryStore) DeleteAll(ctx context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, event := range s.events {
		if event.AccountID == accountID {
			delete(s.events, id)
		}
	}
	return nil
}
