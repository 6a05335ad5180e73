package booking

import (
	"context"
	"time"

	"github.com/example/scheduling-platform/internal/sqlitestore"
)

// ListFilter narrows ListBookings by any combination of tenant, resource,
// and user.
type ListFilter struct {
	TenantID   string
	ResourceID string
	UserID     string
}

// Repository persists bookings. Every method that participates in the
// admission transaction accepts an sqlitestore.Executor so it can run
// either against the pool or inside sqlitestore.WithImmediateTx.
type Repository interface {
	Create(ctx context.Context, exec sqlitestore.Executor, b Booking) error
	Get(ctx context.Context, id string) (Booking, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, error)
	Update(ctx context.Context, exec sqlitestore.Executor, b Booking) error
	Delete(ctx context.Context, id string) error

	// FindOverlapping returns non-cancelled bookings of resourceID whose
	// [start_time, end_time) overlaps [start, end), excluding excludeID
	// (used when re-validating an update against its own prior row).
	FindOverlapping(ctx context.Context, exec sqlitestore.Executor, resourceID string, start, end time.Time, excludeID string) ([]Booking, error)

	// BulkCancel sets status = cancelado on every non-cancelled booking
	// matching the filter, returning the rows that were changed.
	BulkCancel(ctx context.Context, filter ListFilter) ([]Booking, error)

	// DeleteByTenant hard-deletes every booking of tenantID.
	DeleteByTenant(ctx context.Context, tenantID string) error
}
