package user

import (
	"context"
	"embed"
	"io/fs"
	"testing"
	"time"

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

func sampleUser(id, tenantID, email string) User {
	return User{
		ID: id, TenantID: tenantID, Name: "Ana Silva", Email: email, Phone: "+5511999990000",
		UserType: UserTypeUser, Department: "ops", IsActive: true,
		Permissions:  Permissions{CanBook: true},
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := sampleUser("u1", "t1", "ana@example.com")

	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "ana@example.com" || got.Permissions.CanBook != true {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestSQLiteRepository_GetMissingReturnsErrNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepository_GetByEmailScopedPerTenant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Create(ctx, sampleUser("u1", "t1", "ana@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, sampleUser("u2", "t2", "ana@example.com")); err != nil {
		t.Fatalf("Create second tenant's user with same email: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "t2", "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != "u2" {
		t.Fatalf("expected u2, got %s", got.ID)
	}
}

func TestSQLiteRepository_DuplicateEmailWithinTenantFails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Create(ctx, sampleUser("u1", "t1", "ana@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, sampleUser("u2", "t1", "ana@example.com"))
	if err != ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestSQLiteRepository_DeleteByTenant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Create(ctx, sampleUser("u1", "t1", "ana@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, sampleUser("u2", "t1", "bia@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.DeleteByTenant(ctx, "t1"); err != nil {
		t.Fatalf("DeleteByTenant: %v", err)
	}
	users, err := repo.List(ctx, "t1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected all users of t1 to be gone, got %d", len(users))
	}
}
