package booking

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

func sampleBooking(id, tenantID, resourceID string, start time.Time) Booking {
	return Booking{
		ID: id, TenantID: tenantID, ResourceID: resourceID, UserID: "user-1",
		StartTime: start, EndTime: start.Add(time.Hour), Status: StatusPendente,
		CreatedAt: start, UpdatedAt: start,
	}
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	b := sampleBooking("b1", "t1", "r1", start)

	if err := repo.Create(ctx, repo.db, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.Get(ctx, "b1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ResourceID != "r1" || got.Status != StatusPendente {
		t.Fatalf("unexpected booking: %+v", got)
	}
	if !got.StartTime.Equal(start) {
		t.Fatalf("expected start_time to round-trip, got %v want %v", got.StartTime, start)
	}
}

func TestSQLiteRepository_GetNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepository_FindOverlappingExcludesCancelled(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	confirmed := sampleBooking("b1", "t1", "r1", start)
	confirmed.Status = StatusConfirmado
	if err := repo.Create(ctx, repo.db, confirmed); err != nil {
		t.Fatalf("Create confirmed: %v", err)
	}

	cancelled := sampleBooking("b2", "t1", "r1", start.Add(2*time.Hour))
	cancelled.Status = StatusCancelado
	if err := repo.Create(ctx, repo.db, cancelled); err != nil {
		t.Fatalf("Create cancelled: %v", err)
	}

	overlaps, err := repo.FindOverlapping(ctx, repo.db, "r1", start.Add(30*time.Minute), start.Add(90*time.Minute), "")
	if err != nil {
		t.Fatalf("FindOverlapping: %v", err)
	}
	if len(overlaps) != 1 || overlaps[0].ID != "b1" {
		t.Fatalf("expected only the confirmed overlap, got %+v", overlaps)
	}

	noOverlap, err := repo.FindOverlapping(ctx, repo.db, "r1", start.Add(2*time.Hour), start.Add(3*time.Hour), "")
	if err != nil {
		t.Fatalf("FindOverlapping (cancelled window): %v", err)
	}
	if len(noOverlap) != 0 {
		t.Fatalf("expected the cancelled booking to be excluded, got %+v", noOverlap)
	}
}

func TestSQLiteRepository_FindOverlappingExcludesGivenID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	b := sampleBooking("b1", "t1", "r1", start)
	if err := repo.Create(ctx, repo.db, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	overlaps, err := repo.FindOverlapping(ctx, repo.db, "r1", start, start.Add(time.Hour), "b1")
	if err != nil {
		t.Fatalf("FindOverlapping: %v", err)
	}
	if len(overlaps) != 0 {
		t.Fatalf("expected the excluded ID to be filtered out, got %+v", overlaps)
	}
}

func TestSQLiteRepository_RecurringPatternRoundTrips(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)
	b := sampleBooking("b1", "t1", "r1", start)
	b.RecurringEnabled = true
	b.RecurringPattern = &RecurringPattern{Frequency: FrequencyWeekly, Interval: 1, EndDate: &end, DaysOfWeek: []time.Weekday{time.Monday}}
	b.RecurrenceGroupID = "group-1"

	if err := repo.Create(ctx, repo.db, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.Get(ctx, "b1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RecurringPattern == nil {
		t.Fatalf("expected recurring_pattern to round-trip, got nil")
	}
	if got.RecurringPattern.Frequency != FrequencyWeekly || got.RecurringPattern.Interval != 1 {
		t.Fatalf("unexpected pattern: %+v", got.RecurringPattern)
	}
	if got.RecurrenceGroupID != "group-1" {
		t.Fatalf("expected recurrence_group_id to round-trip, got %q", got.RecurrenceGroupID)
	}
}

func TestSQLiteRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	b := sampleBooking("b1", "t1", "r1", start)
	if err := repo.Create(ctx, repo.db, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	b.Status = StatusConfirmado
	b.Notes = "confirmed by front desk"
	if err := repo.Update(ctx, repo.db, b); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(ctx, "b1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusConfirmado || got.Notes != "confirmed by front desk" {
		t.Fatalf("update did not persist: %+v", got)
	}
}

func TestSQLiteRepository_BulkCancel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"b1", "b2"} {
		b := sampleBooking(id, "t1", "r1", start.Add(time.Duration(i)*3*time.Hour))
		if err := repo.Create(ctx, repo.db, b); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	other := sampleBooking("b3", "t1", "r2", start)
	if err := repo.Create(ctx, repo.db, other); err != nil {
		t.Fatalf("Create b3: %v", err)
	}

	cancelled, err := repo.BulkCancel(ctx, ListFilter{ResourceID: "r1"})
	if err != nil {
		t.Fatalf("BulkCancel: %v", err)
	}
	if len(cancelled) != 2 {
		t.Fatalf("expected 2 bookings cancelled, got %d", len(cancelled))
	}

	untouched, err := repo.Get(ctx, "b3")
	if err != nil {
		t.Fatalf("Get b3: %v", err)
	}
	if untouched.Status != StatusPendente {
		t.Fatalf("expected b3 to be untouched, got status %s", untouched.Status)
	}
}

func TestSQLiteRepository_DeleteByTenant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.Create(ctx, repo.db, sampleBooking("b1", "t1", "r1", start)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, repo.db, sampleBooking("b2", "t2", "r2", start)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.DeleteByTenant(ctx, "t1"); err != nil {
		t.Fatalf("DeleteByTenant: %v", err)
	}

	if _, err := repo.Get(ctx, "b1"); err != ErrNotFound {
		t.Fatalf("expected b1 to be deleted, got err=%v", err)
	}
	if _, err := repo.Get(ctx, "b2"); err != nil {
		t.Fatalf("expected b2 (other tenant) to survive, got err=%v", err)
	}
}
