package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/scheduling-platform/internal/sqlitestore"
)

// SQLiteRepository implements Repository against the user service's
// private SQLite database. Grounded on internal/tenant/sqlite.go's
// hand-written SQL + RFC3339 timestamp + sqlitestore.MapError pattern.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a SQLiteRepository over an opened,
// migrated *sql.DB.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, u User) error {
	permissions, err := json.Marshal(u.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, name, email, phone, user_type, department, is_active, permissions, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.TenantID, u.Name, u.Email, u.Phone, string(u.UserType), u.Department, u.IsActive, string(permissions),
		u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return mapUserError(err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (User, error) {
	return r.scanOne(ctx, "SELECT id, tenant_id, name, email, phone, user_type, department, is_active, permissions, password_hash, created_at FROM users WHERE id = ?", id)
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, tenantID, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, tenant_id, name, email, phone, user_type, department, is_active, permissions, password_hash, created_at FROM users WHERE tenant_id = ? AND email = ?", tenantID, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, mapUserError(err)
	}
	return u, nil
}

func (r *SQLiteRepository) scanOne(ctx context.Context, query string, arg any) (User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, mapUserError(err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var userType, permissionsRaw, createdAt string
	if err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.Phone, &userType, &u.Department, &u.IsActive, &permissionsRaw, &u.PasswordHash, &createdAt); err != nil {
		return User{}, err
	}
	u.UserType = UserType(userType)
	if err := json.Unmarshal([]byte(permissionsRaw), &u.Permissions); err != nil {
		return User{}, fmt.Errorf("unmarshal permissions: %w", err)
	}
	var err error
	if u.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return User{}, fmt.Errorf("parse created_at: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) List(ctx context.Context, tenantID string) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, tenant_id, name, email, phone, user_type, department, is_active, permissions, password_hash, created_at FROM users WHERE tenant_id = ? ORDER BY name ASC, id ASC", tenantID)
	if err != nil {
		return nil, mapUserError(err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapUserError(err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) Update(ctx context.Context, u User) error {
	permissions, err := json.Marshal(u.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, phone = ?, department = ?, is_active = ?, permissions = ?
		WHERE id = ?
	`, u.Name, u.Phone, u.Department, u.IsActive, string(permissions), u.ID)
	if err != nil {
		return mapUserError(err)
	}
	return requireRowsAffected(result)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return mapUserError(err)
	}
	return requireRowsAffected(result)
}

func (r *SQLiteRepository) DeleteByTenant(ctx context.Context, tenantID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE tenant_id = ?", tenantID)
	if err != nil {
		return mapUserError(err)
	}
	return nil
}

func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func mapUserError(err error) error {
	mapped := sqlitestore.MapError(err)
	switch {
	case errors.Is(mapped, sqlitestore.ErrDuplicate):
		return ErrDuplicateEmail
	case errors.Is(mapped, sqlitestore.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
