package user

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// TenantHTTPClient implements TenantChecker by calling the tenant service's
// GET /tenants/{id} endpoint, which requires a bearer token (see
// WithServiceToken). Grounded on tenant.HTTPClient's
// timeout and URL-building conventions.
type TenantHTTPClient struct {
	baseURL      string
	client       *http.Client
	serviceToken func() string
}

// NewTenantHTTPClient constructs a TenantHTTPClient with the spec's default
// 10s per-call deadline.
func NewTenantHTTPClient(baseURL string) *TenantHTTPClient {
	return &TenantHTTPClient{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}}
}

// WithServiceToken attaches a token source used to authenticate this
// client's requests as the calling service rather than as an end user.
func (c *TenantHTTPClient) WithServiceToken(token func() string) *TenantHTTPClient {
	c.serviceToken = token
	return c
}

// TenantExists implements TenantChecker.
func (c *TenantHTTPClient) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	url := fmt.Sprintf("%s/tenants/%s", c.baseURL, tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	if c.serviceToken != nil {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("tenant service returned status %d", resp.StatusCode)
	}
}
