package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/scheduling-platform/internal/cache"
)

// HTTPClient fetches tenant settings over HTTP, implementing
// cache.SettingsFetcher for the cache-with-fallback composition every other
// service wires around its local settings cache. Grounded on spec.md §9's
// "polymorphic settings source" design note: the cache-backed and
// HTTP-backed realizations of the same capability interface.
type HTTPClient struct {
	baseURL      string
	client       *http.Client
	serviceToken func() string
}

// NewHTTPClient constructs an HTTPClient with the spec's default 10s
// per-call deadline.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}}
}

// WithServiceToken attaches a token source used to authenticate this
// client's requests as the calling service rather than as an end user. All
// routes this client calls are mounted behind requireAuth, so callers
// outside of tests must set this.
func (c *HTTPClient) WithServiceToken(token func() string) *HTTPClient {
	c.serviceToken = token
	return c
}

// FetchTenantSettings implements cache.SettingsFetcher.
func (c *HTTPClient) FetchTenantSettings(ctx context.Context, tenantID string) (cache.TenantSettings, error) {
	url := fmt.Sprintf("%s/tenants/%s/settings", c.baseURL, tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return cache.TenantSettings{}, err
	}
	if c.serviceToken != nil {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return cache.TenantSettings{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cache.TenantSettings{}, fmt.Errorf("tenant service returned status %d", resp.StatusCode)
	}

	var settings OrganizationSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return cache.TenantSettings{}, err
	}

	return cache.TenantSettings{
		TenantID:               tenantID,
		Timezone:               settings.Timezone,
		WorkingHoursStart:      settings.WorkingHoursStart,
		WorkingHoursEnd:        settings.WorkingHoursEnd,
		BookingIntervalMinutes: settings.BookingIntervalMins,
		AdvanceBookingDays:     settings.AdvanceBookingDays,
		CancellationHours:      settings.CancellationHours,
	}, nil
}
