// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package securitylog keeps the append-only record of authentication
// anomalies, currently rejected password attempts against accounts in
// exclusive-biometric mode.
//
// Events are owned by one account. Every query and mutation is scoped by the
// owner's ID; an identifier belonging to another account resolves to
// not-found, never to another owner's data.
package securitylog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ActionIntrusionAttempt marks a password attempt against an account whose
// password login is disabled.
const ActionIntrusionAttempt = "INTRUSION_ATTEMPT"

// DefaultListLimit bounds List when the caller passes no positive limit.
const DefaultListLimit = 50

// ErrNotFound is returned when no event matches the owner-scoped lookup.
var ErrNotFound = errors.New("security event not found")

// Event is one recorded authentication anomaly.
type Event struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Store is the event persistence contract.
type Store interface {
	// Insert appends one event.
	Insert(ctx context.Context, event *Event) error

	// ListByAccount returns up to limit events owned by accountID, newest
	// first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*Event, error)

	// MarkRead flags one owned event as read. Returns ErrNotFound when the
	// event does not exist or belongs to another account.
	MarkRead(ctx context.Context, accountID, eventID uuid.UUID) error

	// Delete removes one owned event, with the same ownership semantics as
	// MarkRead.
	Delete(ctx context.Context, accountID, eventID uuid.UUID) error

	// DeleteAll removes every event owned by accountID.
	DeleteAll(ctx context.Context, accountID uuid.UUID) error
}

// Service wraps a Store with the recording policy the decision engine
// relies on: Record never propagates storage failures, so a logging outage
// cannot change an authentication outcome.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a security event service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Record appends an intrusion event. Failures are logged and swallowed.
func (s *Service) Record(ctx context.Context, accountID uuid.UUID, details, ip, userAgent string) {
	event := &Event{
		ID:        uuid.New(),
		AccountID: accountID,
		Action:    ActionIntrusionAttempt,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, event); err != nil {
		s.logger.Error("security event insert failed",
			"account_id", accountID.String(),
			"error", err)
	}
}

// List returns the owner's events, newest first, bounded.
func (s *Service) List(ctx context.Context, accountID uuid.UUID, limit int) ([]*Event, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.store.ListByAccount(ctx, accountID, limit)
}

// MarkRead flags one owned event as read.
func (s *Service) MarkRead(ctx context.Context, accountID, eventID uuid.UUID) error {
	return s.store.MarkRead(ctx, accountID, eventID)
}

// Delete removes one owned event.
func (s *Service) Delete(ctx context.Context, accountID, eventID uuid.UUID) error {
	return s.store.Delete(ctx, accountID, eventID)
}

// DeleteAll removes every event owned by the account.
func (s *Service) DeleteAll(ctx context.Context, accountID uuid.UUID) error {
	return s.store.DeleteAll(ctx, accountID)
}
