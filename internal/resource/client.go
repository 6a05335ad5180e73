package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// BookingHTTPClient implements BookingClient by calling the booking
// service's tenant/resource-scoped list endpoint. Grounded on
// tenant.HTTPClient's timeout and URL-building conventions.
type BookingHTTPClient struct {
	baseURL      string
	client       *http.Client
	serviceToken func() string
}

// NewBookingHTTPClient constructs a BookingHTTPClient with the spec's
// default 10s per-call deadline.
func NewBookingHTTPClient(baseURL string) *BookingHTTPClient {
	return &BookingHTTPClient{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}}
}

// WithServiceToken attaches a token source used to authenticate this
// client's requests as the calling service rather than as an end user.
func (c *BookingHTTPClient) WithServiceToken(token func() string) *BookingHTTPClient {
	c.serviceToken = token
	return c
}

type bookingListItem struct {
	Status    string `json:"status"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ListNonCancelledBookings implements BookingClient. The booking service's
// list endpoint filters by tenant_id and resource_id server side; this
// client filters out cancelled rows client-side since the
// availability algorithm only needs pendente/confirmado bookings.
func (c *BookingHTTPClient) ListNonCancelledBookings(ctx context.Context, tenantID, resourceID string) ([]BookingWindow, error) {
	query := url.Values{"tenant_id": {tenantID}, "resource_id": {resourceID}}
	requestURL := fmt.Sprintf("%s/bookings/?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	if c.serviceToken != nil {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("booking service returned status %d", resp.StatusCode)
	}

	var items []bookingListItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}

	var windows []BookingWindow
	for _, item := range items {
		if item.Status == "cancelado" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.StartTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, item.EndTime)
		if err != nil {
			continue
		}
		windows = append(windows, BookingWindow{Start: start, End: end})
	}
	return windows, nil
}
