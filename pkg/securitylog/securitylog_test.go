// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package securitylog

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreOwnershipScoping(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	owner := uuid.New()
	other := uuid.New()

	event := &Event{AccountID: owner, Action: ActionIntrusionAttempt, Timestamp: time.Now()}
	require.NoError(t, store.Insert(ctx, event))

	// The owner sees the event; the other account does not.
	events, err := store.ListByAccount(ctx, owner, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = store.ListByAccount(ctx, other, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	// Cross-account mutations are not-found, never successes.
	assert.ErrorIs(t, store.MarkRead(ctx, other, event.ID), ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, other, event.ID), ErrNotFound)

	require.NoError(t, store.MarkRead(ctx, owner, event.ID))
	events, err = store.ListByAccount(ctx, owner, 10)
	require.NoError(t, err)
	assert.True(t, events[0].Read)

	require.NoError(t, store.Delete(ctx, owner, event.ID))
	events, err = store.ListByAccount(ctx, owner, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMemoryStoreOrderingAndBound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Insert(ctx, &Event{
			AccountID: owner,
			Action:    ActionIntrusionAttempt,
			Details:   string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := store.ListByAccount(ctx, owner, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	// Newest first.
	assert.Equal(t, "e", events[0].Details)
	assert.Equal(t, "d", events[1].Details)
	assert.Equal(t, "c", events[2].Details)
}

func TestMemoryStoreDeleteAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := uuid.New()
	other := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Insert(ctx, &Event{AccountID: owner, Timestamp: time.Now()}))
	}
	require.NoError(t, store.Insert(ctx, &Event{AccountID: other, Timestamp: time.Now()}))

	require.NoError(t, store.DeleteAll(ctx, owner))

	events, err := store.ListByAccount(ctx, owner, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	// Other owners are untouched.
	events, err = store.ListByAccount(ctx, other, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

type failingStore struct {
	Store
}

func (f *failingStore) Insert(ctx context.Context, event *Event) error {
	return errors.New("store down")
}

func TestServiceRecordSwallowsStoreFailures(t *testing.T) {
	svc := NewService(&failingStore{}, slog.Default())

	// Must not panic or propagate; the caller's auth decision is unaffected.
	svc.Record(context.Background(), uuid.New(), "detail", "1.2.3.4", "agent")
}

func TestServiceListBounds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, nil)
	owner := uuid.New()

	for i := 0; i < DefaultListLimit+10; i++ {
		require.NoError(t, store.Insert(ctx, &Event{
			AccountID: owner,
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := svc.List(ctx, owner, 0)
	require.NoError(t, err)
	assert.Len(t, events, DefaultListLimit)

	events, err = svc.List(ctx, owner, DefaultListLimit+100)
	require.NoError(t, err)
	assert.Len(t, events, DefaultListLimit)

	events, err = svc.List(ctx, owner, 5)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestServiceRecordShape(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, nil)
	owner := uuid.New()

	svc.Record(ctx, owner, "password attempt from 1.2.3.4", "1.2.3.4", "Mozilla/5.0")

	events, err := svc.List(ctx, owner, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionIntrusionAttempt, events[0].Action)
	assert.Equal(t, "1.2.3.4", events[0].IP)
	assert.Equal(t, "Mozilla/5.0", events[0].UserAgent)
	assert.False(t, events[0].Read)
	assert.False(t, events[0].Timestamp.IsZero())
}
