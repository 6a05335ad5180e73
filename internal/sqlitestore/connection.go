// Package sqlitestore provides the shared SQLite connection and migration
// plumbing used by every service's private database. Grounded on the
// teacher's internal/persistence/sqlite/connection.go (pragma configuration,
// transaction helpers) and internal/persistence/sqlite/migration (version
// tracking), generalized so each service supplies its own embedded
// migration set instead of scanning a directory at runtime.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Config configures how a service's SQLite database is opened.
type Config struct {
	DSN             string
	BusyTimeout     time.Duration
	JournalMode     string
	Synchronous     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible defaults for a single-writer service
// database, matching the teacher's DefaultSQLiteConfig values.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		BusyTimeout:     30 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Open opens a configured *sql.DB with foreign keys enabled and the pragmas
// from cfg applied.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlitestore: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", cfg.DSN, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+cfg.JournalMode)
	}
	if cfg.Synchronous != "" {
		pragmas = append(pragmas, "PRAGMA synchronous = "+cfg.Synchronous)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitestore: apply %q: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}

	return db, nil
}

// Executor is the subset of *sql.DB / *sql.Tx / *sql.Conn that repository
// code needs. Accepting it instead of a concrete *sql.Tx lets the same
// repository method run inside WithTx, WithImmediateTx, or directly against
// the pool.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is executed within a transaction by WithTx / WithImmediateTx.
type TxFunc func(ctx context.Context, tx Executor) error

// WithTx runs fn inside a plain deferred transaction, committing on success
// and rolling back on error or panic.
func WithTx(ctx context.Context, db *sql.DB, fn TxFunc) (err error) {
	tx, beginErr := db.BeginTx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("sqlitestore: begin transaction: %w", beginErr)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore: commit: %w", err)
	}
	return nil
}

// WithImmediateTx runs fn inside a SQLite "BEGIN IMMEDIATE" transaction,
// acquiring the write lock up front instead of on first write. This is what
// the booking service's admission pipeline uses to satisfy spec.md §5's
// "single serializable transaction" requirement: two concurrent admissions
// against the same resource cannot interleave their conflict-check and
// insert, because the second connection's BEGIN IMMEDIATE blocks until the
// first transaction commits or rolls back. database/sql's *sql.Tx has no
// direct way to express BEGIN IMMEDIATE, so this reserves a single
// connection and issues BEGIN/COMMIT/ROLLBACK as plain statements on it.
func WithImmediateTx(ctx context.Context, db *sql.DB, fn TxFunc) (err error) {
	conn, connErr := db.Conn(ctx)
	if connErr != nil {
		return fmt.Errorf("sqlitestore: reserve connection: %w", connErr)
	}
	defer conn.Close()

	if _, err = conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("sqlitestore: begin immediate: %w", err)
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			_, _ = conn.ExecContext(ctx, "ROLLBACK")
			panic(p)
		}
		if !committed && err != nil {
			_, _ = conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	if err = fn(ctx, conn); err != nil {
		return err
	}

	if _, execErr := conn.ExecContext(ctx, "COMMIT"); execErr != nil {
		err = fmt.Errorf("sqlitestore: commit immediate: %w", execErr)
		return err
	}
	committed = true
	return nil
}
