package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/scheduling-platform/internal/sqlitestore"
)

// SQLiteRepository implements Repository against the tenant service's
// private SQLite database. Grounded on the teacher's
// internal/persistence/sqlite/room_repository.go: hand-written SQL,
// RFC3339 timestamp columns, error mapping via sqlitestore.MapError.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a SQLiteRepository over an opened,
// migrated *sql.DB.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, t Tenant) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, domain, logo_url, theme_primary_color, plan, is_active, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Domain, t.LogoURL, t.ThemePrimaryColor, string(t.Plan), t.IsActive, string(settings),
		t.CreatedAt.UTC().Format(time.RFC3339), t.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return mapTenantError(err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (Tenant, error) {
	return r.scanOne(ctx, "SELECT id, name, domain, logo_url, theme_primary_color, plan, is_active, settings, created_at, updated_at FROM tenants WHERE id = ?", id)
}

func (r *SQLiteRepository) GetByDomain(ctx context.Context, domain string) (Tenant, error) {
	return r.scanOne(ctx, "SELECT id, name, domain, logo_url, theme_primary_color, plan, is_active, settings, created_at, updated_at FROM tenants WHERE domain = ?", domain)
}

func (r *SQLiteRepository) scanOne(ctx context.Context, query string, arg any) (Tenant, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	t, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return Tenant{}, ErrNotFound
	}
	if err != nil {
		return Tenant{}, mapTenantError(err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (Tenant, error) {
	var t Tenant
	var plan, settingsRaw, createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.Name, &t.Domain, &t.LogoURL, &t.ThemePrimaryColor, &plan, &t.IsActive, &settingsRaw, &createdAt, &updatedAt); err != nil {
		return Tenant{}, err
	}
	t.Plan = Plan(plan)
	if err := json.Unmarshal([]byte(settingsRaw), &t.Settings); err != nil {
		return Tenant{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Tenant{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Tenant{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, domain, logo_url, theme_primary_color, plan, is_active, settings, created_at, updated_at FROM tenants ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, mapTenantError(err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, mapTenantError(err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *SQLiteRepository) Update(ctx context.Context, t Tenant) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE tenants
		SET name = ?, logo_url = ?, theme_primary_color = ?, plan = ?, is_active = ?, settings = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, t.LogoURL, t.ThemePrimaryColor, string(t.Plan), t.IsActive, string(settings), t.UpdatedAt.UTC().Format(time.RFC3339), t.ID)
	if err != nil {
		return mapTenantError(err)
	}
	return requireRowsAffected(result)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	return sqlitestore.WithTx(ctx, r.db, func(ctx context.Context, tx sqlitestore.Executor) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM webhooks WHERE tenant_id = ?", id); err != nil {
			return mapTenantError(err)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM tenants WHERE id = ?", id)
		if err != nil {
			return mapTenantError(err)
		}
		return requireRowsAffected(result)
	})
}

func (r *SQLiteRepository) CreateWebhook(ctx context.Context, w Webhook) error {
	events, err := json.Marshal(w.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, tenant_id, url, events, secret, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, w.ID, w.TenantID, w.URL, string(events), w.Secret, w.IsActive)
	if err != nil {
		return mapTenantError(err)
	}
	return nil
}

func (r *SQLiteRepository) GetWebhook(ctx context.Context, tenantID, id string) (Webhook, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, tenant_id, url, events, secret, is_active FROM webhooks WHERE tenant_id = ? AND id = ?", tenantID, id)
	w, err := scanWebhook(row)
	if err == sql.ErrNoRows {
		return Webhook{}, ErrNotFound
	}
	if err != nil {
		return Webhook{}, mapTenantError(err)
	}
	return w, nil
}

func scanWebhook(row rowScanner) (Webhook, error) {
	var w Webhook
	var eventsRaw string
	if err := row.Scan(&w.ID, &w.TenantID, &w.URL, &eventsRaw, &w.Secret, &w.IsActive); err != nil {
		return Webhook{}, err
	}
	if err := json.Unmarshal([]byte(eventsRaw), &w.Events); err != nil {
		return Webhook{}, fmt.Errorf("unmarshal events: %w", err)
	}
	return w, nil
}

func (r *SQLiteRepository) ListWebhooks(ctx context.Context, tenantID string) ([]Webhook, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, tenant_id, url, events, secret, is_active FROM webhooks WHERE tenant_id = ? ORDER BY id ASC", tenantID)
	if err != nil {
		return nil, mapTenantError(err)
	}
	defer rows.Close()

	var webhooks []Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, mapTenantError(err)
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func (r *SQLiteRepository) UpdateWebhook(ctx context.Context, w Webhook) error {
	events, err := json.Marshal(w.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE webhooks SET url = ?, events = ?, secret = ?, is_active = ?
		WHERE tenant_id = ? AND id = ?
	`, w.URL, string(events), w.Secret, w.IsActive, w.TenantID, w.ID)
	if err != nil {
		return mapTenantError(err)
	}
	return requireRowsAffected(result)
}

func (r *SQLiteRepository) DeleteWebhook(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM webhooks WHERE tenant_id = ? AND id = ?", tenantID, id)
	if err != nil {
		return mapTenantError(err)
	}
	return requireRowsAffected(result)
}

func (r *SQLiteRepository) ListActiveWebhooksForEvent(ctx context.Context, tenantID string, event EventKind) ([]Webhook, error) {
	all, err := r.ListWebhooks(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var matched []Webhook
	for _, w := range all {
		if !w.IsActive {
			continue
		}
		for _, e := range w.Events {
			if e == event {
				matched = append(matched, w)
				break
			}
		}
	}
	return matched, nil
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

// mapTenantError translates the shared sqlitestore sentinels into this
// package's own ErrNotFound / ErrDuplicateDomain, since callers match on
// the tenant package's errors rather than sqlitestore's generic ones.
func mapTenantError(err error) error {
	mapped := sqlitestore.MapError(err)
	switch {
	case errors.Is(mapped, sqlitestore.ErrDuplicate):
		return ErrDuplicateDomain
	case errors.Is(mapped, sqlitestore.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
