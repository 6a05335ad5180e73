package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/scheduling-platform/internal/sqlitestore"
)

// SQLiteRepository implements Repository against the booking service's
// private SQLite database, grounded on internal/resource/sqlite.go's
// hand-written SQL + JSON-column + sqlitestore.MapError pattern.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a SQLiteRepository over an opened,
// migrated *sql.DB.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const bookingColumns = `id, tenant_id, resource_id, user_id, client_id, start_time, end_time, status, notes,
	recurring_enabled, recurring_pattern, recurrence_group_id, created_at, updated_at`

func (r *SQLiteRepository) Create(ctx context.Context, exec sqlitestore.Executor, b Booking) error {
	pattern, err := json.Marshal(b.RecurringPattern)
	if err != nil {
		return fmt.Errorf("marshal recurring_pattern: %w", err)
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.TenantID, b.ResourceID, b.UserID, b.ClientID, b.StartTime.UTC(), b.EndTime.UTC(),
		string(b.Status), b.Notes, b.RecurringEnabled, string(pattern), b.RecurrenceGroupID,
		b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return mapBookingError(err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (Booking, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return Booking{}, ErrNotFound
	}
	if err != nil {
		return Booking{}, mapBookingError(err)
	}
	return b, nil
}

func scanBooking(row rowScanner) (Booking, error) {
	var b Booking
	var status, patternRaw string
	if err := row.Scan(&b.ID, &b.TenantID, &b.ResourceID, &b.UserID, &b.ClientID, &b.StartTime, &b.EndTime,
		&status, &b.Notes, &b.RecurringEnabled, &patternRaw, &b.RecurrenceGroupID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Booking{}, err
	}
	b.Status = Status(status)
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	if patternRaw != "" && patternRaw != "null" {
		var pattern RecurringPattern
		if err := json.Unmarshal([]byte(patternRaw), &pattern); err != nil {
			return Booking{}, fmt.Errorf("unmarshal recurring_pattern: %w", err)
		}
		b.RecurringPattern = &pattern
	}
	return b, nil
}

func (r *SQLiteRepository) List(ctx context.Context, filter ListFilter) ([]Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE 1=1"
	var args []any
	if filter.TenantID != "" {
		query += " AND tenant_id = ?"
		args = append(args, filter.TenantID)
	}
	if filter.ResourceID != "" {
		query += " AND resource_id = ?"
		args = append(args, filter.ResourceID)
	}
	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapBookingError(err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapBookingError(err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *SQLiteRepository) Update(ctx context.Context, exec sqlitestore.Executor, b Booking) error {
	pattern, err := json.Marshal(b.RecurringPattern)
	if err != nil {
		return fmt.Errorf("marshal recurring_pattern: %w", err)
	}
	result, err := exec.ExecContext(ctx, `
		UPDATE bookings
		SET resource_id = ?, start_time = ?, end_time = ?, status = ?, notes = ?,
			recurring_enabled = ?, recurring_pattern = ?, recurrence_group_id = ?, updated_at = ?
		WHERE id = ?
	`, b.ResourceID, b.StartTime.UTC(), b.EndTime.UTC(), string(b.Status), b.Notes,
		b.RecurringEnabled, string(pattern), b.RecurrenceGroupID, b.UpdatedAt.UTC(), b.ID)
	if err != nil {
		return mapBookingError(err)
	}
	return requireRowsAffected(result, ErrNotFound)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return mapBookingError(err)
	}
	return requireRowsAffected(result, ErrNotFound)
}

// FindOverlapping returns every non-cancelled booking of resourceID whose
// [start_time, end_time) interval intersects [start, end), excluding
// excludeID. Implements I1 at the storage layer; the caller must hold the
// BEGIN IMMEDIATE write lock for this check to be race-free (spec.md §5).
func (r *SQLiteRepository) FindOverlapping(ctx context.Context, exec sqlitestore.Executor, resourceID string, start, end time.Time, excludeID string) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE resource_id = ? AND status != ? AND start_time < ? AND end_time > ?
	`
	args := []any{resourceID, string(StatusCancelado), end.UTC(), start.UTC()}
	if excludeID != "" {
		query += " AND id != ?"
		args = append(args, excludeID)
	}

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapBookingError(err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapBookingError(err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// BulkCancel sets status = cancelado on every non-cancelled booking
// matching filter and returns the rows that were changed (pre-update IDs,
// post-update status), for the caller to publish one event per row.
func (r *SQLiteRepository) BulkCancel(ctx context.Context, filter ListFilter) ([]Booking, error) {
	return sqlitestoreBulkCancel(ctx, r.db, filter)
}

func sqlitestoreBulkCancel(ctx context.Context, db *sql.DB, filter ListFilter) ([]Booking, error) {
	var cancelled []Booking
	err := sqlitestore.WithTx(ctx, db, func(ctx context.Context, exec sqlitestore.Executor) error {
		query := "SELECT " + bookingColumns + " FROM bookings WHERE status != ?"
		args := []any{string(StatusCancelado)}
		if filter.TenantID != "" {
			query += " AND tenant_id = ?"
			args = append(args, filter.TenantID)
		}
		if filter.ResourceID != "" {
			query += " AND resource_id = ?"
			args = append(args, filter.ResourceID)
		}
		if filter.UserID != "" {
			query += " AND user_id = ?"
			args = append(args, filter.UserID)
		}

		rows, err := exec.QueryContext(ctx, query, args...)
		if err != nil {
			return mapBookingError(err)
		}
		var toCancel []Booking
		for rows.Next() {
			b, scanErr := scanBooking(rows)
			if scanErr != nil {
				rows.Close()
				return mapBookingError(scanErr)
			}
			toCancel = append(toCancel, b)
		}
		closeErr := rows.Err()
		rows.Close()
		if closeErr != nil {
			return mapBookingError(closeErr)
		}

		for i := range toCancel {
			toCancel[i].Status = StatusCancelado
			if _, err := exec.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ?", string(StatusCancelado), toCancel[i].ID); err != nil {
				return mapBookingError(err)
			}
		}
		cancelled = toCancel
		return nil
	})
	return cancelled, err
}

func (r *SQLiteRepository) DeleteByTenant(ctx context.Context, tenantID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE tenant_id = ?", tenantID)
	if err != nil {
		return mapBookingError(err)
	}
	return nil
}

func requireRowsAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func mapBookingError(err error) error {
	mapped := sqlitestore.MapError(err)
	if errors.Is(mapped, sqlitestore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
