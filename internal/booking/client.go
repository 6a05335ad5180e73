package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ResourceHTTPClient implements ResourceClient by calling the resource
// service's read endpoint. Grounded on tenant.HTTPClient's timeout and
// URL-building conventions.
type ResourceHTTPClient struct {
	baseURL      string
	client       *http.Client
	serviceToken func() string
}

// NewResourceHTTPClient constructs a ResourceHTTPClient with the spec's
// default 10s per-call deadline.
func NewResourceHTTPClient(baseURL string) *ResourceHTTPClient {
	return &ResourceHTTPClient{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}}
}

// WithServiceToken attaches a token source used to authenticate this
// client's requests as the calling service rather than as an end user.
func (c *ResourceHTTPClient) WithServiceToken(token func() string) *ResourceHTTPClient {
	c.serviceToken = token
	return c
}

type resourceSnapshotDTO struct {
	TenantID             string             `json:"tenant_id"`
	Status               string             `json:"status"`
	AvailabilitySchedule map[int][]TimeRange `json:"availability_schedule"`
}

// GetResource implements ResourceClient.
func (c *ResourceHTTPClient) GetResource(ctx context.Context, resourceID string) (ResourceSnapshot, error) {
	url := fmt.Sprintf("%s/resources/%s", c.baseURL, resourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ResourceSnapshot{}, err
	}
	if c.serviceToken != nil {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ResourceSnapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ResourceSnapshot{}, fmt.Errorf("resource service returned status %d", resp.StatusCode)
	}

	var dto resourceSnapshotDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return ResourceSnapshot{}, err
	}

	return ResourceSnapshot{
		TenantID:             dto.TenantID,
		Status:               dto.Status,
		AvailabilitySchedule: dto.AvailabilitySchedule,
	}, nil
}
