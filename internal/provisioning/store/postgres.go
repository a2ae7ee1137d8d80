package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"corebank/internal/provisioning/models"
	"corebank/pkg/platform/sentinel"
)

// PostgresStore persists requests and accounts. Decide relies on
// SELECT ... FOR UPDATE so concurrent decisions on one request serialize at
// the row; account numbers come from the account_number_seq sequence inside
// the same transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const requestColumns = `
	id, applicant_name, email, phone, address,
	document_type, document_number, account_type, initial_deposit,
	status, submitted_at, processed_by, processed_at, remarks, account_number`

func (s *PostgresStore) CreateRequest(ctx context.Context, req *models.AccountRequest) error {
	query := `
		INSERT INTO account_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := s.pool.Exec(ctx, query,
		req.ID, req.ApplicantName, req.Email, req.Phone, req.Address,
		req.DocumentType, req.DocumentNumber, string(req.AccountType), req.InitialDeposit,
		string(req.Status), req.SubmittedAt, nilIfZero(req.ProcessedBy), req.ProcessedAt, req.Remarks, nullIfEmpty(req.AccountNumber),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert account request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRequest(ctx context.Context, id uuid.UUID) (*models.AccountRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM account_requests WHERE id = $1`
	return scanRequest(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*models.AccountRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM account_requests
		WHERE status = $1
		ORDER BY submitted_at ASC`
	return s.listRequests(ctx, query, string(models.RequestPending))
}

func (s *PostgresStore) ListAll(ctx context.Context, limit int) ([]*models.AccountRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM account_requests
		ORDER BY submitted_at DESC`
	if limit > 0 {
		return s.listRequests(ctx, query+` LIMIT $1`, limit)
	}
	return s.listRequests(ctx, query)
}

func (s *PostgresStore) listRequests(ctx context.Context, query string, args ...any) ([]*models.AccountRequest, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query account requests: %w", err)
	}
	defer rows.Close()

	var out []*models.AccountRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account requests: %w", err)
	}
	return out, nil
}

// txCreator assigns account numbers from the sequence inside the decision
// transaction so a rollback discards both the account and the number's use.
type txCreator struct {
	tx pgx.Tx
}

func (c *txCreator) Create(ctx context.Context, account *models.Account) (string, error) {
	var number string
	err := c.tx.QueryRow(ctx,
		`SELECT nextval('account_number_seq')::text`,
	).Scan(&number)
	if err != nil {
		return "", fmt.Errorf("assign account number: %w", err)
	}

	_, err = c.tx.Exec(ctx, `
		INSERT INTO accounts (number, holder_name, email, phone, account_type, balance, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		number, account.HolderName, account.Email, account.Phone,
		string(account.AccountType), account.Balance, account.RequestID, account.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	return number, nil
}

func (s *PostgresStore) Decide(ctx context.Context, id uuid.UUID, fn DecideFunc) (*models.AccountRequest, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin decision transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + requestColumns + ` FROM account_requests WHERE id = $1 FOR UPDATE`
	req, err := scanRequest(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := fn(ctx, req, &txCreator{tx: tx}); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE account_requests
		SET status = $2, processed_by = $3, processed_at = $4, remarks = $5, account_number = $6
		WHERE id = $1`,
		req.ID, string(req.Status), nilIfZero(req.ProcessedBy), req.ProcessedAt, req.Remarks, nullIfEmpty(req.AccountNumber),
	)
	if err != nil {
		return nil, fmt.Errorf("update account request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit decision: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, number string) (*models.Account, error) {
	var account models.Account
	var accountType string
	err := s.pool.QueryRow(ctx, `
		SELECT number, holder_name, email, phone, account_type, balance, request_id, created_at
		FROM accounts WHERE number = $1`, number,
	).Scan(
		&account.Number, &account.HolderName, &account.Email, &account.Phone,
		&accountType, &account.Balance, &account.RequestID, &account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	account.AccountType = models.AccountType(accountType)
	return &account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.AccountRequest, error) {
	var req models.AccountRequest
	var status, accountType string
	var processedBy *uuid.UUID
	var accountNumber *string
	err := row.Scan(
		&req.ID, &req.ApplicantName, &req.Email, &req.Phone, &req.Address,
		&req.DocumentType, &req.DocumentNumber, &accountType, &req.InitialDeposit,
		&status, &req.SubmittedAt, &processedBy, &req.ProcessedAt, &req.Remarks, &accountNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account request: %w", err)
	}
	req.Status = models.RequestStatus(status)
	req.AccountType = models.AccountType(accountType)
	if processedBy != nil {
		req.ProcessedBy = *processedBy
	}
	if accountNumber != nil {
		req.AccountNumber = *accountNumber
	}
	return &req, nil
}

func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
