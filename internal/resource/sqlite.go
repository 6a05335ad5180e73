package resource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/scheduling-platform/internal/sqlitestore"
)

// SQLiteRepository implements Repository against the resource service's
// private SQLite database, grounded on internal/tenant/sqlite.go's
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

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c Category) error {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO categories (id, tenant_id, name, description, type, icon, color, is_active, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.TenantID, c.Name, c.Description, string(c.Type), c.Icon, c.Color, c.IsActive, string(metadata))
	if err != nil {
		return mapResourceError(err)
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (Category, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, tenant_id, name, description, type, icon, color, is_active, metadata FROM categories WHERE id = ?", id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return Category{}, mapResourceError(err)
	}
	return c, nil
}

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	var categoryType, metadataRaw string
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &categoryType, &c.Icon, &c.Color, &c.IsActive, &metadataRaw); err != nil {
		return Category{}, err
	}
	c.Type = CategoryType(categoryType)
	if err := json.Unmarshal([]byte(metadataRaw), &c.Metadata); err != nil {
		return Category{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, tenantID string) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, tenant_id, name, description, type, icon, color, is_active, metadata FROM categories WHERE tenant_id = ? ORDER BY name ASC, id ASC", tenantID)
	if err != nil {
		return nil, mapResourceError(err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, mapResourceError(err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c Category) error {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, description = ?, type = ?, icon = ?, color = ?, is_active = ?, metadata = ?
		WHERE id = ?
	`, c.Name, c.Description, string(c.Type), c.Icon, c.Color, c.IsActive, string(metadata), c.ID)
	if err != nil {
		return mapResourceError(err)
	}
	return requireRowsAffected(result, ErrCategoryNotFound)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return mapResourceError(err)
	}
	return requireRowsAffected(result, ErrCategoryNotFound)
}

func (r *SQLiteRepository) DeleteCategoriesByTenant(ctx context.Context, tenantID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE tenant_id = ?", tenantID)
	if err != nil {
		return mapResourceError(err)
	}
	return nil
}

func (r *SQLiteRepository) CreateResource(ctx context.Context, res Resource) error {
	attributes, err := json.Marshal(res.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	schedule, err := json.Marshal(res.AvailabilitySchedule)
	if err != nil {
		return fmt.Errorf("marshal availability_schedule: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO resources (id, tenant_id, category_id, name, description, status, capacity, location, attributes, availability_schedule, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.ID, res.TenantID, res.CategoryID, res.Name, res.Description, string(res.Status), res.Capacity,
		res.Location, string(attributes), string(schedule), res.ImageURL)
	if err != nil {
		return mapResourceError(err)
	}
	return nil
}

func (r *SQLiteRepository) GetResource(ctx context.Context, id string) (Resource, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, tenant_id, category_id, name, description, status, capacity, location, attributes, availability_schedule, image_url FROM resources WHERE id = ?", id)
	res, err := scanResource(row)
	if err == sql.ErrNoRows {
		return Resource{}, ErrResourceNotFound
	}
	if err != nil {
		return Resource{}, mapResourceError(err)
	}
	return res, nil
}

func scanResource(row rowScanner) (Resource, error) {
	var res Resource
	var status, attributesRaw, scheduleRaw string
	var capacity sql.NullInt64
	if err := row.Scan(&res.ID, &res.TenantID, &res.CategoryID, &res.Name, &res.Description, &status,
		&capacity, &res.Location, &attributesRaw, &scheduleRaw, &res.ImageURL); err != nil {
		return Resource{}, err
	}
	if capacity.Valid {
		v := int(capacity.Int64)
		res.Capacity = &v
	}
	res.Status = Status(status)
	if err := json.Unmarshal([]byte(attributesRaw), &res.Attributes); err != nil {
		return Resource{}, fmt.Errorf("unmarshal attributes: %w", err)
	}
	if err := json.Unmarshal([]byte(scheduleRaw), &res.AvailabilitySchedule); err != nil {
		return Resource{}, fmt.Errorf("unmarshal availability_schedule: %w", err)
	}
	return res, nil
}

func (r *SQLiteRepository) ListResources(ctx context.Context, tenantID string) ([]Resource, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, tenant_id, category_id, name, description, status, capacity, location, attributes, availability_schedule, image_url FROM resources WHERE tenant_id = ? ORDER BY name ASC, id ASC", tenantID)
	if err != nil {
		return nil, mapResourceError(err)
	}
	defer rows.Close()

	var resources []Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, mapResourceError(err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *SQLiteRepository) UpdateResource(ctx context.Context, res Resource) error {
	attributes, err := json.Marshal(res.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	schedule, err := json.Marshal(res.AvailabilitySchedule)
	if err != nil {
		return fmt.Errorf("marshal availability_schedule: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE resources
		SET category_id = ?, name = ?, description = ?, status = ?, capacity = ?, location = ?, attributes = ?, availability_schedule = ?, image_url = ?
		WHERE id = ?
	`, res.CategoryID, res.Name, res.Description, string(res.Status), res.Capacity, res.Location,
		string(attributes), string(schedule), res.ImageURL, res.ID)
	if err != nil {
		return mapResourceError(err)
	}
	return requireRowsAffected(result, ErrResourceNotFound)
}

func (r *SQLiteRepository) DeleteResource(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	if err != nil {
		return mapResourceError(err)
	}
	return requireRowsAffected(result, ErrResourceNotFound)
}

func (r *SQLiteRepository) DeleteResourcesByTenant(ctx context.Context, tenantID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM resources WHERE tenant_id = ?", tenantID)
	if err != nil {
		return mapResourceError(err)
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

func mapResourceError(err error) error {
	mapped := sqlitestore.MapError(err)
	if errors.Is(mapped, sqlitestore.ErrNotFound) {
		return ErrResourceNotFound
	}
	return err
}
