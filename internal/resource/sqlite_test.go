package resource

import (
	"context"
	"embed"
	"io/fs"
	"testing"

	"github.com/example/scheduling-platform/internal/sqlitestore"
)

//go:embed testdata/*.sql
var testMigrations embed.FS

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sqlitestore.Open(sqlitestore.DefaultConfig("file::memory:?cache=shared"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrations, err := fs.Sub(testMigrations, "testdata")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	if err := sqlitestore.Migrate(context.Background(), db, migrations); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewSQLiteRepository(db)
}

func sampleCategory(id, tenantID string) Category {
	return Category{
		ID: id, TenantID: tenantID, Name: "Salas", Description: "Meeting rooms",
		Type: CategoryTypeFisico, Icon: "door", Color: "#fff", IsActive: true,
		Metadata: map[string]any{"floor": "2"},
	}
}

func sampleResource(id, tenantID, categoryID string) Resource {
	capacity := 8
	return Resource{
		ID: id, TenantID: tenantID, CategoryID: categoryID, Name: "Sala 1",
		Description: "Main conference room", Status: StatusDisponivel, Capacity: &capacity,
		Location: "2nd floor", Attributes: map[string]any{"projector": true},
		AvailabilitySchedule: map[int][]TimeRange{1: {{Start: "09:00", End: "17:00"}}},
		ImageURL:             "https://example.com/sala1.png",
	}
}

func TestSQLiteRepository_CreateAndGetCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cat := sampleCategory("c1", "t1")

	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	got, err := repo.GetCategory(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != "Salas" || got.Metadata["floor"] != "2" {
		t.Fatalf("unexpected category: %+v", got)
	}
}

func TestSQLiteRepository_GetCategoryMissingReturnsErrCategoryNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetCategory(context.Background(), "missing"); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestSQLiteRepository_ListCategoriesScopedPerTenant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.CreateCategory(ctx, sampleCategory("c1", "t1")); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := repo.CreateCategory(ctx, sampleCategory("c2", "t2")); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	categories, err := repo.ListCategories(ctx, "t1")
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 1 || categories[0].ID != "c1" {
		t.Fatalf("unexpected categories: %+v", categories)
	}
}

func TestSQLiteRepository_CreateAndGetResource(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.CreateCategory(ctx, sampleCategory("c1", "t1")); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	res := sampleResource("r1", "t1", "c1")
	if err := repo.CreateResource(ctx, res); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	got, err := repo.GetResource(ctx, "r1")
	if err != nil {
		t.Fatalf("GetResource: %v", err)
	}
	if got.Name != "Sala 1" || got.Capacity == nil || *got.Capacity != 8 {
		t.Fatalf("unexpected resource: %+v", got)
	}
	if len(got.AvailabilitySchedule[1]) != 1 || got.AvailabilitySchedule[1][0].Start != "09:00" {
		t.Fatalf("unexpected schedule: %+v", got.AvailabilitySchedule)
	}
}

func TestSQLiteRepository_GetResourceMissingReturnsErrResourceNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetResource(context.Background(), "missing"); err != ErrResourceNotFound {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestSQLiteRepository_ResourceWithoutCapacityScansAsNil(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.CreateCategory(ctx, sampleCategory("c1", "t1")); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	res := sampleResource("r1", "t1", "c1")
	res.Capacity = nil
	if err := repo.CreateResource(ctx, res); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	got, err := repo.GetResource(ctx, "r1")
	if err != nil {
		t.Fatalf("GetResource: %v", err)
	}
	if got.Capacity != nil {
		t.Fatalf("expected nil capacity, got %v", *got.Capacity)
	}
}

func TestSQLiteRepository_DeleteResourcesAndCategoriesByTenant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.CreateCategory(ctx, sampleCategory("c1", "t1")); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := repo.CreateResource(ctx, sampleResource("r1", "t1", "c1")); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	if err := repo.DeleteResourcesByTenant(ctx, "t1"); err != nil {
		t.Fatalf("DeleteResourcesByTenant: %v", err)
	}
	if err := repo.DeleteCategoriesByTenant(ctx, "t1"); err != nil {
		t.Fatalf("DeleteCategoriesByTenant: %v", err)
	}

	if _, err := repo.GetResource(ctx, "r1"); err != ErrResourceNotFound {
		t.Fatalf("expected resource to be gone, got %v", err)
	}
	if _, err := repo.GetCategory(ctx, "c1"); err != ErrCategoryNotFound {
		t.Fatalf("expected category to be gone, got %v", err)
	}
}
