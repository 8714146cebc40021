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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PostgresStore is the PostgreSQL-backed Store implementation.
//
// The authenticators table keys on credential_id, so the discoverable-login
// lookup (account by credential) is a primary-key probe rather than a scan.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const accountColumns = `
	id, email, name, company, password_hash, role,
	biometric_enabled, exclusive_biometric, COALESCE(current_challenge, ''),
	created_at, updated_at`

// Create persists a new account.
func (s *PostgresStore) Create(ctx context.Context, acct *Account) error {
	const query = `
		INSERT INTO accounts (
			id, email, name, company, password_hash, role,
			biometric_enabled, exclusive_biometric, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	now := time.Now().UTC()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now
	acct.Email = NormalizeEmail(acct.Email)

	_, err := s.pool.Exec(ctx, query,
		acct.ID, acct.Email, acct.Name, acct.Company, acct.PasswordHash,
		string(acct.Role), acct.BiometricEnabled, acct.ExclusiveBiometric,
		acct.CreatedAt, acct.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID, opts ...LookupOption) (*Account, error) {
	return s.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, opts, id)
}

// GetByEmail retrieves an account by normalized email.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string, opts ...LookupOption) (*Account, error) {
	return s.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, opts, NormalizeEmail(email))
}

// GetByCredentialID retrieves the account owning the given credential.
func (s *PostgresStore) GetByCredentialID(ctx context.Context, credentialID []byte, opts ...LookupOption) (*Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = (SELECT account_id FROM authenticators WHERE credential_id = $1)`
	return s.getOne(ctx, query, opts, credentialID)
}

// List returns all accounts, sanitized, ordered by creation time.
func (s *PostgresStore) List(ctx context.Context) ([]*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		acct.Sanitize()
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	for _, acct := range accounts {
		if err := s.loadAuthenticators(ctx, acct); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// SetChallenge records a pending ceremony challenge.
func (s *PostgresStore) SetChallenge(ctx context.Context, id uuid.UUID, challenge string) error {
	return s.updateOne(ctx,
		`UPDATE accounts SET current_challenge = $2, updated_at = now() WHERE id = $1`,
		id, challenge)
}

// ClearChallenge removes the pending ceremony challenge.
func (s *PostgresStore) ClearChallenge(ctx context.Context, id uuid.UUID) error {
	return s.updateOne(ctx,
		`UPDATE accounts SET current_challenge = NULL, updated_at = now() WHERE id = $1`,
		id)
}

// AddAuthenticator appends a verified credential and updates policy flags in
// one transaction.
func (s *PostgresStore) AddAuthenticator(ctx context.Context, id uuid.UUID, auth Authenticator, makeExclusive bool) error {
	const insertQuery = `
		INSERT INTO authenticators (
			credential_id, account_id, public_key, counter,
			device_type, backed_up, transports, added_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	const updateQuery = `
		UPDATE accounts
		SET biometric_enabled = TRUE,
		    exclusive_biometric = exclusive_biometric OR $2,
		    current_challenge = NULL,
		    updated_at = now()
		WHERE id = $1`

	if auth.AddedAt.IsZero() {
		auth.AddedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin add authenticator: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insertQuery,
		auth.CredentialID, id, auth.PublicKey, int64(auth.Counter),
		auth.DeviceType, auth.BackedUp, auth.Transports, auth.AddedAt,
	)
	if isUniqueViolation(err) {
		return ErrCredentialExists
	}
	if err != nil {
		return fmt.Errorf("insert authenticator: %w", err)
	}

	tag, err := tx.Exec(ctx, updateQuery, id, makeExclusive)
	if err != nil {
		return fmt.Errorf("update account policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit add authenticator: %w", err)
	}
	return nil
}

// UpdateCounter persists a new signature counter for one credential.
func (s *PostgresStore) UpdateCounter(ctx context.Context, id uuid.UUID, credentialID []byte, counter uint32) error {
	const query = `
		UPDATE authenticators SET counter = $3
		WHERE account_id = $1 AND credential_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, credentialID, int64(counter))
	if err != nil {
		return fmt.Errorf("update counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) getOne(ctx context.Context, query string, opts []LookupOption, args ...any) (*Account, error) {
	cfg := applyLookupOptions(opts)

	row := s.pool.QueryRow(ctx, query, args...)
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !cfg.secrets {
		acct.Sanitize()
	}
	if err := s.loadAuthenticators(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *PostgresStore) updateOne(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) loadAuthenticators(ctx context.Context, acct *Account) error {
	const query = `
		SELECT credential_id, public_key, counter, device_type, backed_up, transports, added_at
		FROM authenticators
		WHERE account_id = $1
		ORDER BY added_at`

	rows, err := s.pool.Query(ctx, query, acct.ID)
	if err != nil {
		return fmt.Errorf("load authenticators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var auth Authenticator
		var counter int64
		if err := rows.Scan(
			&auth.CredentialID, &auth.PublicKey, &counter,
			&auth.DeviceType, &auth.BackedUp, &auth.Transports, &auth.AddedAt,
		); err != nil {
			return fmt.Errorf("scan authenticator: %w", err)
		}
		auth.Counter = uint32(counter)
		acct.Authenticators = append(acct.Authenticators, auth)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load authenticators: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var acct Account
	var role string
	if err := row.Scan(
		&acct.ID, &acct.Email, &acct.Name, &acct.Company, &acct.PasswordHash,
		&role, &acct.BiometricEnabled, &acct.ExclusiveBiometric,
		&acct.CurrentChallenge, &acct.CreatedAt, &acct.UpdatedAt,
	); err != nil {
		return nil, err
	}
	acct.Role = Role(role)
	return &acct, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
