// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package securitylog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert appends one event.
func (s *PostgresStore) Insert(ctx context.Context, event *Event) error {
	const query = `
		INSERT INTO security_events (
			id, account_id, action, details, ip, user_agent, read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, query,
		event.ID, event.AccountID, event.Action, event.Details,
		event.IP, event.UserAgent, event.Read, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// ListByAccount returns up to limit events owned by accountID, newest first.
func (s *PostgresStore) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*Event, error) {
	const query = `
		SELECT id, account_id, action, details, ip, user_agent, read, created_at
		FROM security_events
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID, &event.AccountID, &event.Action, &event.Details,
			&event.IP, &event.UserAgent, &event.Read, &event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan security event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	return events, nil
}

// MarkRead flags one owned event as read.
func (s *PostgresStore) MarkRead(ctx context.Context, accountID, eventID uuid.UUID) error {
	const query = `UPDATE security_events SET read = TRUE WHERE id = $1 AND account_id = $2`

	tag, err := s.pool.Exec(ctx, query, eventID, accountID)
	if err != nil {
		return fmt.Errorf("mark security event read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one owned event.
func (s *PostgresStore) Delete(ctx context.Context, accountID, eventID uuid.UUID) error {
	const query = `DELETE FROM security_events WHERE id = $1 AND account_id = $2`

	tag, err := s.pool.Exec(ctx, query, eventID, accountID)
	if err != nil {
		return fmt.Errorf("delete security event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every event owned by the account.
func (s *PostgresStore) DeleteAll(ctx context.Context, accountID uuid.UUID) error {
	const query = `DELETE FROM security_events WHERE account_id = $1`

	if _, err := s.pool.Exec(ctx, query, accountID); err != nil {
		return fmt.Errorf("delete security events: %w", err)
	}
	return nil
}
