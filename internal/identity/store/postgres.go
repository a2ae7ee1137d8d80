package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"corebank/internal/identity/models"
	"corebank/pkg/platform/sentinel"
	txcontext "corebank/pkg/platform/tx"
)

// PostgresStaffStore persists staff identities in the staff_identities table.
type PostgresStaffStore struct {
	db *sql.DB
}

func NewPostgresStaffStore(db *sql.DB) *PostgresStaffStore {
	return &PostgresStaffStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStaffStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *PostgresStaffStore) Create(ctx context.Context, staff *models.StaffIdentity) error {
	query := `
		INSERT INTO staff_identities (
			id, username, password_hash, display_name, email, phone,
			role, status, created_by, created_at, last_login
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		staff.ID,
		staff.Username,
		staff.PasswordHash,
		staff.DisplayName,
		staff.Email,
		staff.Phone,
		string(staff.Role),
		string(staff.Status),
		staff.CreatedBy,
		staff.CreatedAt,
		staff.LastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert staff identity: %w", err)
	}
	return nil
}

const staffColumns = `
	id, username, password_hash, display_name, email, phone,
	role, status, created_by, created_at, last_login
`

func (s *PostgresStaffStore) FindByID(ctx context.Context, id uuid.UUID) (*models.StaffIdentity, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_identities WHERE id = $1`
	return s.scanStaff(s.execer(ctx).QueryRowContext(ctx, query, id))
}

func (s *PostgresStaffStore) FindByUsername(ctx context.Context, username string) (*models.StaffIdentity, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_identities WHERE lower(username) = lower($1)`
	return s.scanStaff(s.execer(ctx).QueryRowContext(ctx, query, username))
}

func (s *PostgresStaffStore) scanStaff(row *sql.Row) (*models.StaffIdentity, error) {
	var (
		staff  models.StaffIdentity
		role   string
		status string
	)
	err := row.Scan(
		&staff.ID,
		&staff.Username,
		&staff.PasswordHash,
		&staff.DisplayName,
		&staff.Email,
		&staff.Phone,
		&role,
		&status,
		&staff.CreatedBy,
		&staff.CreatedAt,
		&staff.LastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan staff identity: %w", err)
	}
	staff.Role = models.Role(role)
	staff.Status = models.Status(status)
	return &staff, nil
}

func (s *PostgresStaffStore) Update(ctx context.Context, staff *models.StaffIdentity) error {
	query := `
		UPDATE staff_identities
		SET password_hash = $2, display_name = $3, email = $4, phone = $5,
			role = $6, status = $7, last_login = $8
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		staff.ID,
		staff.PasswordHash,
		staff.DisplayName,
		staff.Email,
		staff.Phone,
		string(staff.Role),
		string(staff.Status),
		staff.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("update staff identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update staff identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStaffStore) List(ctx context.Context) ([]*models.StaffIdentity, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_identities ORDER BY created_at DESC`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list staff identities: %w", err)
	}
	defer rows.Close()

	var out []*models.StaffIdentity
	for rows.Next() {
		var (
			staff  models.StaffIdentity
			role   string
			status string
		)
		err := rows.Scan(
			&staff.ID,
			&staff.Username,
			&staff.PasswordHash,
			&staff.DisplayName,
			&staff.Email,
			&staff.Phone,
			&role,
			&status,
			&staff.CreatedBy,
			&staff.CreatedAt,
			&staff.LastLogin,
		)
		if err != nil {
			return nil, fmt.Errorf("scan staff identity: %w", err)
		}
		staff.Role = models.Role(role)
		staff.Status = models.Status(status)
		out = append(out, &staff)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff identities: %w", err)
	}
	return out, nil
}

// PostgresAdminStore persists admin identities in the admin_identities table.
type PostgresAdminStore struct {
	db *sql.DB
}

func NewPostgresAdminStore(db *sql.DB) *PostgresAdminStore {
	return &PostgresAdminStore{db: db}
}

func (s *PostgresAdminStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const adminColumns = `
	id, username, password_hash, display_name, email,
	is_super_admin, status, created_by, created_at, last_login
`

func (s *PostgresAdminStore) Create(ctx context.Context, admin *models.AdminIdentity) error {
	query := `
		INSERT INTO admin_identities (
			id, username, password_hash, display_name, email,
			is_super_admin, status, created_by, created_at, last_login
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		admin.ID,
		admin.Username,
		admin.PasswordHash,
		admin.DisplayName,
		admin.Email,
		admin.IsSuperAdmin,
		string(admin.Status),
		admin.CreatedBy,
		admin.CreatedAt,
		admin.LastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert admin identity: %w", err)
	}
	return nil
}

func (s *PostgresAdminStore) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminIdentity, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_identities WHERE id = $1`
	return s.scanAdmin(s.execer(ctx).QueryRowContext(ctx, query, id))
}

func (s *PostgresAdminStore) FindByUsername(ctx context.Context, username string) (*models.AdminIdentity, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_identities WHERE lower(username) = lower($1)`
	return s.scanAdmin(s.execer(ctx).QueryRowContext(ctx, query, username))
}

func (s *PostgresAdminStore) scanAdmin(row *sql.Row) (*models.AdminIdentity, error) {
	var (
		admin  models.AdminIdentity
		status string
	)
	err := row.Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.DisplayName,
		&admin.Email,
		&admin.IsSuperAdmin,
		&status,
		&admin.CreatedBy,
		&admin.CreatedAt,
		&admin.LastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan admin identity: %w", err)
	}
	admin.Status = models.Status(status)
	return &admin, nil
}

func (s *PostgresAdminStore) Update(ctx context.Context, admin *models.AdminIdentity) error {
	query := `
		UPDATE admin_identities
		SET password_hash = $2, display_name = $3, email = $4,
			is_super_admin = $5, status = $6, last_login = $7
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		admin.ID,
		admin.PasswordHash,
		admin.DisplayName,
		admin.Email,
		admin.IsSuperAdmin,
		string(admin.Status),
		admin.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("update admin identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresAdminStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM admin_identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete admin identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
