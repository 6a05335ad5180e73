package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migrate applies every .sql file under migrations, in filename order,
// tracking applied versions in a schema_migrations table. Grounded on the
// teacher's internal/persistence/sqlite/migration package (version table,
// one transaction per file) but scans an embed.FS baked into the service
// binary instead of a filesystem directory, since each of our services
// ships its own fixed migration set rather than discovering one at
// runtime.
func Migrate(ctx context.Context, db *sql.DB, migrations fs.FS) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("sqlitestore: initialize schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return fmt.Errorf("sqlitestore: read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var applied int
		row := db.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", name)
		if scanErr := row.Scan(&applied); scanErr != nil {
			return fmt.Errorf("sqlitestore: check migration %s: %w", name, scanErr)
		}
		if applied > 0 {
			continue
		}

		content, readErr := fs.ReadFile(migrations, name)
		if readErr != nil {
			return fmt.Errorf("sqlitestore: read migration %s: %w", name, readErr)
		}

		if execErr := applyMigration(ctx, db, name, string(content)); execErr != nil {
			return execErr
		}
	}

	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, name, sqlText string) error {
	return WithTx(ctx, db, func(ctx context.Context, exec Executor) error {
		for _, stmt := range splitStatements(sqlText) {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := exec.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("sqlitestore: apply migration %s: %w", name, err)
			}
		}
		if _, err := exec.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", name); err != nil {
			return fmt.Errorf("sqlitestore: record migration %s: %w", name, err)
		}
		return nil
	})
}

// splitStatements splits a migration file on semicolon-terminated
// statements. Migration SQL in this codebase never embeds a semicolon
// inside a string literal, so a naive split is sufficient.
func splitStatements(sqlText string) []string {
	return strings.Split(sqlText, ";")
}
