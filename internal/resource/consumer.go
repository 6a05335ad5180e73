package resource

import (
	"context"
	"time"

	"github.com/example/scheduling-platform/internal/eventbus"
)

// bookingEventPayload is the shape the booking service publishes on
// booking.created/updated/cancelled: enough to identify which resource's
// availability projection just went stale. The booking package is the
// producer of this exact shape.
type bookingEventPayload struct {
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// BookingEventHandler returns an eventbus.Handler that invalidates the
// cached availability projection for every date a booking's window spans,
// following spec.md §4.6: any booking create/update/cancel must drop the
// stale cache entry rather than wait out its TTL.
func BookingEventHandler(service *Service) eventbus.Handler {
	return func(ctx context.Context, event eventbus.Event) error {
		switch event.Type {
		case eventbus.EventBookingCreated, eventbus.EventBookingUpdated, eventbus.EventBookingCancelled:
		default:
			return nil
		}

		var payload bookingEventPayload
		if err := event.DecodePayload(&payload); err != nil {
			return err
		}
		if payload.ResourceID == "" {
			return nil
		}

		for _, date := range datesBetween(payload.StartTime, payload.EndTime) {
			service.InvalidateAvailability(ctx, payload.ResourceID, date)
		}
		return nil
	}
}

// datesBetween returns the distinct YYYY-MM-DD dates (in the window's own
// UTC calendar) a [start, end] booking window touches, since a booking
// spanning midnight can affect two days' availability projections.
func datesBetween(start, end time.Time) []string {
	if start.IsZero() {
		return nil
	}
	if end.Before(start) {
		end = start
	}
	var dates []string
	for d := start.UTC().Truncate(24 * time.Hour); !d.After(end.UTC()); d = d.Add(24 * time.Hour) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates
}

// TenantDeletedHandler returns an eventbus.Handler that cascade-deletes
// every resource and category of a deleted tenant, mirroring
// internal/user/consumer.go's TenantDeletedHandler.
func TenantDeletedHandler(service *Service) eventbus.Handler {
	return func(ctx context.Context, event eventbus.Event) error {
		if event.Type != eventbus.EventTenantDeleted {
			return nil
		}
		return service.DeleteByTenant(ctx, event.TenantID)
	}
}
