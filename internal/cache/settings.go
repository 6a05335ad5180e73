package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
)

// TenantSettings is the subset of OrganizationSettings the booking and
// resource services need on the admission and availability-projection
// paths, serialized as-is into the cache under settings:tenant:<id>.
type TenantSettings struct {
	TenantID             string `json:"tenant_id"`
	Timezone             string `json:"timezone"`
	WorkingHoursStart    string `json:"working_hours_start"`
	WorkingHoursEnd      string `json:"working_hours_end"`
	BookingIntervalMinutes int  `json:"booking_interval_minutes"`
	AdvanceBookingDays   int    `json:"advance_booking_days"`
	CancellationHours    int    `json:"cancellation_hours"`
}

// SettingsFetcher retrieves settings directly from the tenant service,
// bypassing the cache. Implemented by the tenant service's HTTP client.
type SettingsFetcher interface {
	FetchTenantSettings(ctx context.Context, tenantID string) (TenantSettings, error)
}

// SettingsSupplier composes a TTLStore with a SettingsFetcher: cache hit
// short-circuits the network call, cache miss falls through to the tenant
// service and repopulates the cache. Unlike TTLStore's own graceful
// degradation, a fetcher failure here is never absorbed into a permissive
// default — the spec is explicit that booking admission must refuse with
// dependency_unavailable rather than silently admit a booking it could not
// validate a policy for.
type SettingsSupplier struct {
	store   *TTLStore
	fetcher SettingsFetcher
	ttl     time.Duration
}

// NewSettingsSupplier constructs a SettingsSupplier.
func NewSettingsSupplier(store *TTLStore, fetcher SettingsFetcher, ttl time.Duration) *SettingsSupplier {
	return &SettingsSupplier{store: store, fetcher: fetcher, ttl: ttl}
}

// Get returns the tenant's settings, preferring the cache, and returns an
// apperr with KindDependencyUnavailable if both the cache and the tenant
// service fail.
func (s *SettingsSupplier) Get(ctx context.Context, tenantID string) (TenantSettings, error) {
	key := SettingsKey(tenantID)

	if raw, err := s.store.Get(ctx, key); err == nil {
		var settings TenantSettings
		if jsonErr := json.Unmarshal(raw, &settings); jsonErr == nil {
			return settings, nil
		}
		s.store.Del(ctx, key)
	}

	settings, err := s.fetcher.FetchTenantSettings(ctx, tenantID)
	if err != nil {
		return TenantSettings{}, apperr.Wrap(apperr.KindDependencyUnavailable, "tenant settings are unavailable", err)
	}

	if encoded, jsonErr := json.Marshal(settings); jsonErr == nil {
		s.store.Set(ctx, key, encoded, s.ttl)
	}

	return settings, nil
}

// Invalidate removes the cached settings for tenantID, called by the
// tenant service whenever settings are updated.
func (s *SettingsSupplier) Invalidate(ctx context.Context, tenantID string) {
	s.store.Del(ctx, SettingsKey(tenantID))
}
