package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"corebank/internal/audit"
	"corebank/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresStore persists ledger entries in the audit_entries table. Appends
// join the caller's transaction when one is carried in the context so a
// ledger write commits atomically with the action it records.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_entries (
			id, kind, actor_id, actor_type, action,
			target_account, module, details, outcome, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID, string(entry.Kind), entry.ActorID, entry.ActorType, string(entry.Action),
		entry.TargetAccount, entry.Module, entry.Details, string(entry.Outcome), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]audit.Entry, error) {
	query := selectColumns + ` ORDER BY created_at DESC, id DESC`
	return s.list(ctx, query)
}

func (s *PostgresStore) ListByActor(ctx context.Context, actorID uuid.UUID) ([]audit.Entry, error) {
	query := selectColumns + ` WHERE actor_id = $1 ORDER BY created_at DESC, id DESC`
	return s.list(ctx, query, actorID)
}

func (s *PostgresStore) ListFailedLogins(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := selectColumns + `
		WHERE action = $1 AND outcome = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`
	return s.list(ctx, query, string(audit.ActionLogin), string(audit.OutcomeFailed), limit)
}

const selectColumns = `
	SELECT id, kind, actor_id, actor_type, action,
	       target_account, module, details, outcome, created_at
	FROM audit_entries`

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]audit.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var kind, action, outcome string
		if err := rows.Scan(
			&e.ID, &kind, &e.ActorID, &e.ActorType, &action,
			&e.TargetAccount, &e.Module, &e.Details, &outcome, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Kind = audit.Kind(kind)
		e.Action = audit.Action(action)
		e.Outcome = audit.Outcome(outcome)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
