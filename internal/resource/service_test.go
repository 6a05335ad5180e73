package resource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/cache"
	"github.com/redis/go-redis/v9"
)

// fakeRedis mirrors internal/cache/cache_test.go's double, reimplemented
// here since cache's fake is unexported and resource only needs the three
// methods NewTTLStore requires.
type fakeRedis struct {
	values map[string][]byte
}

func newFakeRedis() *fakeRedis { return &fakeRedis{values: make(map[string][]byte)} }

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	value, ok := f.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(value))
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	switch v := value.(type) {
	case []byte:
		f.values[key] = v
	case string:
		f.values[key] = []byte(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

type fakeSettingsFetcher struct {
	settings cache.TenantSettings
	err      error
}

func (f *fakeSettingsFetcher) FetchTenantSettings(ctx context.Context, tenantID string) (cache.TenantSettings, error) {
	return f.settings, f.err
}

type fakeBookingClient struct {
	windows []BookingWindow
	err     error
}

func (f *fakeBookingClient) ListNonCancelledBookings(ctx context.Context, tenantID, resourceID string) ([]BookingWindow, error) {
	return f.windows, f.err
}

func newTestService(t *testing.T, fetcher *fakeSettingsFetcher, bookings *fakeBookingClient) *Service {
	t.Helper()
	repo := newTestRepo(t)
	store := cache.NewTTLStore(newFakeRedis(), nil)
	settings := cache.NewSettingsSupplier(store, fetcher, time.Minute)
	availCache := NewTTLAvailabilityCache(store, time.Minute, nil)
	counter := 0
	newID := func() string {
		counter++
		return "id-" + string(rune('0'+counter))
	}
	return NewService(repo, settings, bookings, availCache, nil, func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }, newID)
}

func defaultSettings() cache.TenantSettings {
	return cache.TenantSettings{
		TenantID:               "t1",
		Timezone:               "America/Sao_Paulo",
		WorkingHoursStart:      "08:00",
		WorkingHoursEnd:        "18:00",
		BookingIntervalMinutes: 60,
	}
}

func TestService_CreateResourceRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(t, &fakeSettingsFetcher{settings: defaultSettings()}, &fakeBookingClient{})
	_, err := svc.CreateResource(context.Background(), ResourceInput{
		TenantID: "t1", CategoryID: "missing", Name: "Sala 1", Status: StatusDisponivel,
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected KindValidation, got %v (%v)", apperr.KindOf(err), err)
	}
}

func TestService_GetAvailability_IntersectsScheduleWithWorkingHours(t *testing.T) {
	svc := newTestService(t, &fakeSettingsFetcher{settings: defaultSettings()}, &fakeBookingClient{})
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{TenantID: "t1", Name: "Salas", Type: CategoryTypeFisico, IsActive: true})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	// 2026-01-05 is a Monday (weekday 1). Resource is only open 10:00-12:00,
	// narrower than the tenant's 08:00-18:00 working hours, so the
	// projection must be clipped to the resource's own schedule.
	res, err := svc.CreateResource(ctx, ResourceInput{
		TenantID: "t1", CategoryID: cat.ID, Name: "Sala 1", Status: StatusDisponivel,
		AvailabilitySchedule: map[int][]TimeRange{1: {{Start: "10:00", End: "12:00"}}},
	})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	result, err := svc.GetAvailability(ctx, res.ID, "2026-01-05")
	if err != nil {
		t.Fatalf("GetAvailability: %v", err)
	}
	if result.Timezone != "America/Sao_Paulo" {
		t.Fatalf("unexpected timezone: %s", result.Timezone)
	}
	if len(result.Slots) != 2 {
		t.Fatalf("expected 2 one-hour slots, got %d: %+v", len(result.Slots), result.Slots)
	}
}

func TestService_GetAvailability_NoScheduleForWeekdayReturnsEmpty(t *testing.T) {
	svc := newTestService(t, &fakeSettingsFetcher{settings: defaultSettings()}, &fakeBookingClient{})
	ctx := context.Background()

	cat, _ := svc.CreateCategory(ctx, CategoryInput{TenantID: "t1", Name: "Salas", Type: CategoryTypeFisico, IsActive: true})
	res, err := svc.CreateResource(ctx, ResourceInput{
		TenantID: "t1", CategoryID: cat.ID, Name: "Sala 1", Status: StatusDisponivel,
		AvailabilitySchedule: map[int][]TimeRange{1: {{Start: "10:00", End: "12:00"}}},
	})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	// 2026-01-06 is a Tuesday (weekday 2); resource has no schedule entry for it.
	result, err := svc.GetAvailability(ctx, res.ID, "2026-01-06")
	if err != nil {
		t.Fatalf("GetAvailability: %v", err)
	}
	if len(result.Slots) != 0 {
		t.Fatalf("expected no slots, got %+v", result.Slots)
	}
}

func TestService_GetAvailability_RemovesOverlappingBookings(t *testing.T) {
	bookings := &fakeBookingClient{}
	svc := newTestService(t, &fakeSettingsFetcher{settings: defaultSettings()}, bookings)
	ctx := context.Background()

	cat, _ := svc.CreateCategory(ctx, CategoryInput{TenantID: "t1", Name: "Salas", Type: CategoryTypeFisico, IsActive: true})
	res, err := svc.CreateResource(ctx, ResourceInput{
		TenantID: "t1", CategoryID: cat.ID, Name: "Sala 1", Status: StatusDisponivel,
		AvailabilitySchedule: map[int][]TimeRange{1: {{Start: "10:00", End: "12:00"}}},
	})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	bookings.windows = []BookingWindow{{
		Start: time.Date(2026, 1, 5, 10, 0, 0, 0, loc),
		End:   time.Date(2026, 1, 5, 11, 0, 0, 0, loc),
	}}

	result, err := svc.GetAvailability(ctx, res.ID, "2026-01-05")
	if err != nil {
		t.Fatalf("GetAvailability: %v", err)
	}
	if len(result.Slots) != 1 {
		t.Fatalf("expected the 10-11 slot to be removed, leaving 1, got %d: %+v", len(result.Slots), result.Slots)
	}
}

func TestService_GetAvailability_BookingLookupFailureIsDependencyUnavailable(t *testing.T) {
	bookings := &fakeBookingClient{err: errors.New("booking service down")}
	svc := newTestService(t, &fakeSettingsFetcher{settings: defaultSettings()}, bookings)
	ctx := context.Background()

	cat, _ := svc.CreateCategory(ctx, CategoryInput{TenantID: "t1", Name: "Salas", Type: CategoryTypeFisico, IsActive: true})
	res, err := svc.CreateResource(ctx, ResourceInput{
		TenantID: "t1", CategoryID: cat.ID, Name: "Sala 1", Status: StatusDisponivel,
		AvailabilitySchedule: map[int][]TimeRange{1: {{Start: "10:00", End: "12:00"}}},
	})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	_, err = svc.GetAvailability(ctx, res.ID, "2026-01-05")
	if apperr.KindOf(err) != apperr.KindDependencyUnavailable {
		t.Fatalf("expected KindDependencyUnavailable, got %v (%v)", apperr.KindOf(err), err)
	}
}

func TestService_GetAvailability_SettingsFailureIsDependencyUnavailable(t *testing.T) {
	svc := newTestService(t, &fakeSettingsFetcher{err: errors.New("tenant service down")}, &fakeBookingClient{})
	ctx := context.Background()

	cat, _ := svc.CreateCategory(ctx, CategoryInput{TenantID: "t1", Name: "Salas", Type: CategoryTypeFisico, IsActive: true})
	res, err := svc.CreateResource(ctx, ResourceInput{
		TenantID: "t1", CategoryID: cat.ID, Name: "Sala 1", Status: StatusDisponivel,
		AvailabilitySchedule: map[int][]TimeRange{1: {{Start: "10:00", End: "12:00"}}},
	})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	_, err = svc.GetAvailability(ctx, res.ID, "2026-01-05")
	if apperr.KindOf(err) != apperr.KindDependencyUnavailable {
		t.Fatalf("expected KindDependencyUnavailable, got %v (%v)", apperr.KindOf(err), err)
	}
}

func TestService_DeleteByTenantCascadesResourcesAndCategories(t *testing.T) {
	svc := newTestService(t, &fakeSettingsFetcher{settings: defaultSettings()}, &fakeBookingClient{})
	ctx := context.Background()

	cat, _ := svc.CreateCategory(ctx, CategoryInput{TenantID: "t1", Name: "Salas", Type: CategoryTypeFisico, IsActive: true})
	if _, err := svc.CreateResource(ctx, ResourceInput{TenantID: "t1", CategoryID: cat.ID, Name: "Sala 1", Status: StatusDisponivel}); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	if err := svc.DeleteByTenant(ctx, "t1"); err != nil {
		t.Fatalf("DeleteByTenant: %v", err)
	}

	resources, err := svc.ListResources(ctx, "t1")
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(resources) != 0 {
		t.Fatalf("expected resources to be cascade-deleted, got %d", len(resources))
	}
	categories, err := svc.ListCategories(ctx, "t1")
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 0 {
		t.Fatalf("expected categories to be cascade-deleted, got %d", len(categories))
	}
}
