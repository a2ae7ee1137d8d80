package lockout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresStore persists lockout records. Pure I/O, the Guard owns the
// counting and lock decisions.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, username string) (*Record, error) {
	const query = `
		SELECT username, failure_count, locked_until, last_failure_at
		FROM auth_lockouts
		WHERE username = $1`

	var record Record
	err := s.db.QueryRowContext(ctx, query, strings.ToLower(username)).Scan(
		&record.Username,
		&record.FailureCount,
		&record.LockedUntil,
		&record.LastFailureAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lockout record: %w", err)
	}
	return &record, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record *Record) error {
	const query = `
		INSERT INTO auth_lockouts (username, failure_count, locked_until, last_failure_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE SET
			failure_count = EXCLUDED.failure_count,
			locked_until = EXCLUDED.locked_until,
			last_failure_at = EXCLUDED.last_failure_at`

	_, err := s.db.ExecContext(ctx, query,
		strings.ToLower(record.Username),
		record.FailureCount,
		record.LockedUntil,
		record.LastFailureAt,
	)
	if err != nil {
		return fmt.Errorf("upsert lockout record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, username string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_lockouts WHERE username = $1`, strings.ToLower(username)); err != nil {
		return fmt.Errorf("clear lockout record: %w", err)
	}
	return nil
}
