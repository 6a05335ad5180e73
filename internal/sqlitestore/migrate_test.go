package sqlitestore

import (
	"context"
	"testing"
	"testing/fstest"
)

func TestMigrate_AppliesInOrderAndIsIdempotent(t *testing.T) {
	cfg := DefaultConfig("file::memory:?cache=shared")
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	migrations := fstest.MapFS{
		"0001_init.sql": &fstest.MapFile{Data: []byte(`
			CREATE TABLE widgets (id TEXT PRIMARY KEY, name TEXT NOT NULL);
		`)},
		"0002_add_column.sql": &fstest.MapFile{Data: []byte(`
			ALTER TABLE widgets ADD COLUMN created_at TEXT;
		`)},
	}

	ctx := context.Background()
	if err := Migrate(ctx, db, migrations); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO widgets (id, name, created_at) VALUES (?, ?, ?)", "w1", "gadget", "2026-01-01"); err != nil {
		t.Fatalf("insert after migration: %v", err)
	}

	if err := Migrate(ctx, db, migrations); err != nil {
		t.Fatalf("second Migrate call should be a no-op, got error: %v", err)
	}

	var count int
	row := db.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 applied migrations, got %d", count)
	}
}
