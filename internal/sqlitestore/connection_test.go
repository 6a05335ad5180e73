package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(DefaultConfig("file::memory:?cache=shared"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE counters (id TEXT PRIMARY KEY, value INTEGER NOT NULL)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO counters (id, value) VALUES ('a', 0)"); err != nil {
		t.Fatalf("seed row: %v", err)
	}
	return db
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(ctx context.Context, tx Executor) error {
		_, err := tx.ExecContext(ctx, "UPDATE counters SET value = value + 1 WHERE id = 'a'")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	var value int
	if err := db.QueryRowContext(ctx, "SELECT value FROM counters WHERE id = 'a'").Scan(&value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if value != 1 {
		t.Fatalf("expected value 1, got %d", value)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sentinel := errors.New("boom")

	err := WithTx(ctx, db, func(ctx context.Context, tx Executor) error {
		if _, err := tx.ExecContext(ctx, "UPDATE counters SET value = value + 1 WHERE id = 'a'"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	var value int
	if err := db.QueryRowContext(ctx, "SELECT value FROM counters WHERE id = 'a'").Scan(&value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if value != 0 {
		t.Fatalf("expected rollback to leave value at 0, got %d", value)
	}
}

func TestWithImmediateTx_CommitsOnSuccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := WithImmediateTx(ctx, db, func(ctx context.Context, tx Executor) error {
		_, err := tx.ExecContext(ctx, "UPDATE counters SET value = value + 5 WHERE id = 'a'")
		return err
	})
	if err != nil {
		t.Fatalf("WithImmediateTx: %v", err)
	}

	var value int
	if err := db.QueryRowContext(ctx, "SELECT value FROM counters WHERE id = 'a'").Scan(&value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if value != 5 {
		t.Fatalf("expected value 5, got %d", value)
	}
}

func TestWithImmediateTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sentinel := errors.New("boom")

	err := WithImmediateTx(ctx, db, func(ctx context.Context, tx Executor) error {
		if _, err := tx.ExecContext(ctx, "UPDATE counters SET value = value + 5 WHERE id = 'a'"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	var value int
	if err := db.QueryRowContext(ctx, "SELECT value FROM counters WHERE id = 'a'").Scan(&value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if value != 0 {
		t.Fatalf("expected rollback to leave value at 0, got %d", value)
	}
}
