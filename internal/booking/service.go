package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/cache"
	"github.com/example/scheduling-platform/internal/eventbus"
	"github.com/example/scheduling-platform/internal/sqlitestore"
	"github.com/google/uuid"
)

// Service implements booking admission, the lifecycle state machine, and
// the cascade-consumer operations.
type Service struct {
	db       *sql.DB
	repo     Repository
	settings *cache.SettingsSupplier
	resource ResourceClient
	bus      eventbus.Publisher
	now      func() time.Time
	newID    func() string
}

// NewService constructs a Service.
func NewService(db *sql.DB, repo Repository, settings *cache.SettingsSupplier, resource ResourceClient, bus eventbus.Publisher, now func() time.Time, newID func() string) *Service {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{db: db, repo: repo, settings: settings, resource: resource, bus: bus, now: now, newID: newID}
}

// bookingCreatedPayload mirrors spec.md §4.4's publish step and doubles as
// the shape internal/resource's cache-invalidation consumer decodes.
type bookingCreatedPayload struct {
	BookingID  string    `json:"booking_id"`
	TenantID   string    `json:"tenant_id"`
	ResourceID string    `json:"resource_id"`
	UserID     string    `json:"user_id"`
	Status     Status    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type bookingCancelledPayload struct {
	BookingID   string `json:"booking_id"`
	ResourceID  string `json:"resource_id"`
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

// CreateInput is the validated payload for a booking create request.
type CreateInput struct {
	TenantID         string
	ResourceID       string
	UserID           string
	ClientID         string
	StartTime        time.Time // any offset; converted to the tenant timezone before admission
	EndTime          time.Time
	Notes            string
	RecurringEnabled bool
	RecurringPattern *RecurringPattern
}

// Create runs the full admission pipeline (spec.md §4.4) for a single
// booking, or, when RecurringEnabled, for the whole occurrence batch
// atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) ([]Booking, error) {
	settings, err := s.settings.Get(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, "tenant timezone is invalid")
	}

	resourceSnapshot, err := s.resource.GetResource(ctx, in.ResourceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDependencyUnavailable, "could not load resource", err)
	}
	if resourceSnapshot.TenantID != in.TenantID {
		return nil, apperr.New(apperr.KindValidation, "resource does not belong to this tenant")
	}

	ac := admissionContext{settings: settings, resource: resourceSnapshot, loc: loc, now: s.now()}

	windows, err := s.candidateWindows(in, loc)
	if err != nil {
		return nil, err
	}

	recurrenceGroupID := ""
	if in.RecurringEnabled && len(windows) > 1 {
		recurrenceGroupID = s.newID()
	}

	var created []Booking
	err = sqlitestore.WithImmediateTx(ctx, s.db, func(ctx context.Context, exec sqlitestore.Executor) error {
		for _, window := range windows {
			if err := runGates(ac, window.Start, window.End); err != nil {
				return err
			}
			overlaps, err := s.repo.FindOverlapping(ctx, exec, in.ResourceID, window.Start, window.End, "")
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to check for conflicts", err)
			}
			if len(overlaps) > 0 {
				return apperr.Wrap(apperr.KindConflict, "booking conflicts with an existing booking", &ConflictError{Conflicts: toConflicts(overlaps)})
			}

			b := Booking{
				ID: s.newID(), TenantID: in.TenantID, ResourceID: in.ResourceID, UserID: in.UserID,
				ClientID: in.ClientID, StartTime: window.Start, EndTime: window.End, Status: StatusPendente,
				Notes: in.Notes, RecurringEnabled: in.RecurringEnabled, RecurringPattern: in.RecurringPattern,
				RecurrenceGroupID: recurrenceGroupID, CreatedAt: ac.now, UpdatedAt: ac.now,
			}
			if err := s.repo.Create(ctx, exec, b); err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to create booking", err)
			}
			created = append(created, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range created {
		s.publishCreated(ctx, b)
	}
	return created, nil
}

// candidateWindows returns the single [start,end) window, or, for a
// recurring create, the full expanded occurrence set converted to UTC
// windows. Every window is validated for basic ordering before gates run.
func (s *Service) candidateWindows(in CreateInput, loc *time.Location) ([]struct{ Start, End time.Time }, error) {
	start, end, err := normalizeWindow(in.StartTime.In(loc), in.EndTime.In(loc), loc)
	if err != nil {
		return nil, err
	}
	if !in.RecurringEnabled || in.RecurringPattern == nil {
		return []struct{ Start, End time.Time }{{Start: start, End: end}}, nil
	}

	occurrences := GenerateOccurrences(*in.RecurringPattern, start.In(loc), end.In(loc))
	if len(occurrences) == 0 {
		return nil, apperr.New(apperr.KindValidation, "recurring pattern produced no occurrences")
	}
	windows := make([]struct{ Start, End time.Time }, 0, len(occurrences))
	for _, occ := range occurrences {
		windows = append(windows, struct{ Start, End time.Time }{Start: occ.Start.UTC(), End: occ.End.UTC()})
	}
	return windows, nil
}

func toConflicts(overlaps []Booking) []ConflictingBooking {
	out := make([]ConflictingBooking, 0, len(overlaps))
	for _, b := range overlaps {
		out = append(out, ConflictingBooking{
			BookingID: b.ID,
			StartTime: b.StartTime.UTC().Format(time.RFC3339),
			EndTime:   b.EndTime.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func (s *Service) publishCreated(ctx context.Context, b Booking) {
	event, err := eventbus.NewEvent(s.newID(), eventbus.EventBookingCreated, b.TenantID, s.now(), bookingCreatedPayload{
		BookingID: b.ID, TenantID: b.TenantID, ResourceID: b.ResourceID, UserID: b.UserID,
		Status: b.Status, StartTime: b.StartTime, EndTime: b.EndTime,
	})
	if err != nil {
		return
	}
	// Publication failure is logged by the bus implementation and does not
	// roll back the already-committed booking, per spec.md §4.4's note that
	// the fabric is publisher-side best-effort.
	_ = s.bus.Publish(ctx, eventbus.StreamBookingEvents, event)
}

// Get returns a booking by ID.
func (s *Service) Get(ctx context.Context, id string) (Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Booking{}, apperr.NotFound("booking")
	}
	if err != nil {
		return Booking{}, apperr.Wrap(apperr.KindInternal, "failed to load booking", err)
	}
	return b, nil
}

// List returns bookings matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Booking, error) {
	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list bookings", err)
	}
	return bookings, nil
}

// UpdateInput is the validated payload for a booking update. A nil field
// leaves that column unchanged.
type UpdateInput struct {
	StartTime  *time.Time
	EndTime    *time.Time
	ResourceID *string
	Notes      *string
	Status     *Status
}

// Update applies in to the booking identified by id. Per spec.md §4.4,
// changing start_time, end_time, or resource_id re-runs the full admission
// pipeline (excluding the row itself from the conflict check); changing
// only notes or performing the pendente→confirmado transition does not.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Booking, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}

	reAdmit := in.StartTime != nil || in.EndTime != nil || in.ResourceID != nil
	updated := existing
	if in.StartTime != nil {
		updated.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		updated.EndTime = *in.EndTime
	}
	if in.ResourceID != nil {
		updated.ResourceID = *in.ResourceID
	}
	if in.Notes != nil {
		updated.Notes = *in.Notes
	}
	if in.Status != nil {
		if !existing.Status.CanTransitionTo(*in.Status) {
			return Booking{}, apperr.New(apperr.KindValidation, fmt.Sprintf("cannot transition from %s to %s", existing.Status, *in.Status))
		}
		updated.Status = *in.Status
	}
	updated.UpdatedAt = s.now()

	if !reAdmit {
		if err := s.repo.Update(ctx, s.db, updated); err != nil {
			return Booking{}, apperr.Wrap(apperr.KindInternal, "failed to update booking", err)
		}
		return updated, nil
	}

	settings, err := s.settings.Get(ctx, existing.TenantID)
	if err != nil {
		return Booking{}, err
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return Booking{}, apperr.New(apperr.KindInternal, "tenant timezone is invalid")
	}
	resourceSnapshot, err := s.resource.GetResource(ctx, updated.ResourceID)
	if err != nil {
		return Booking{}, apperr.Wrap(apperr.KindDependencyUnavailable, "could not load resource", err)
	}
	ac := admissionContext{settings: settings, resource: resourceSnapshot, loc: loc, now: s.now()}

	start, end, err := normalizeWindow(updated.StartTime.In(loc), updated.EndTime.In(loc), loc)
	if err != nil {
		return Booking{}, err
	}
	updated.StartTime, updated.EndTime = start, end

	err = sqlitestore.WithImmediateTx(ctx, s.db, func(ctx context.Context, exec sqlitestore.Executor) error {
		if err := runGates(ac, start, end); err != nil {
			return err
		}
		overlaps, err := s.repo.FindOverlapping(ctx, exec, updated.ResourceID, start, end, existing.ID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to check for conflicts", err)
		}
		if len(overlaps) > 0 {
			return apperr.Wrap(apperr.KindConflict, "booking conflicts with an existing booking", &ConflictError{Conflicts: toConflicts(overlaps)})
		}
		if err := s.repo.Update(ctx, exec, updated); err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}
	return updated, nil
}

// Cancel transitions a booking to cancelado, guarded by I6.
func (s *Service) Cancel(ctx context.Context, id string, cancelledBy, reason string) (Booking, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	if existing.Status == StatusCancelado {
		return Booking{}, apperr.New(apperr.KindValidation, "booking is already cancelled")
	}

	settings, err := s.settings.Get(ctx, existing.TenantID)
	if err != nil {
		return Booking{}, err
	}
	if !existing.CanCancel(s.now(), settings.CancellationHours) {
		return Booking{}, apperr.New(apperr.KindValidation, "booking is inside the tenant's cancellation window")
	}

	existing.Status = StatusCancelado
	existing.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return Booking{}, apperr.Wrap(apperr.KindInternal, "failed to cancel booking", err)
	}

	event, err := eventbus.NewEvent(s.newID(), eventbus.EventBookingCancelled, existing.TenantID, s.now(), bookingCancelledPayload{
		BookingID: existing.ID, ResourceID: existing.ResourceID, Reason: reason, CancelledBy: cancelledBy,
	})
	if err == nil {
		_ = s.bus.Publish(ctx, eventbus.StreamBookingEvents, event)
	}
	return existing, nil
}

// Delete hard-deletes a booking (admin-only per spec.md §6).
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete booking", err)
	}
	return nil
}

// -- Cascade consumer operations ------------------------------------------

// CancelByResource bulk-cancels every non-cancelled booking of resourceID,
// publishing one booking.cancelled per row, per spec.md §4.4's
// resource.deleted cascade.
func (s *Service) CancelByResource(ctx context.Context, resourceID string) error {
	return s.bulkCancel(ctx, ListFilter{ResourceID: resourceID}, "resource_deleted")
}

// CancelByUser bulk-cancels every non-cancelled booking of userID, per
// spec.md §4.4's user.deleted cascade.
func (s *Service) CancelByUser(ctx context.Context, userID string) error {
	return s.bulkCancel(ctx, ListFilter{UserID: userID}, "user_deleted")
}

func (s *Service) bulkCancel(ctx context.Context, filter ListFilter, reason string) error {
	cancelled, err := s.repo.BulkCancel(ctx, filter)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to bulk cancel bookings", err)
	}
	for _, b := range cancelled {
		event, err := eventbus.NewEvent(s.newID(), eventbus.EventBookingCancelled, b.TenantID, s.now(), bookingCancelledPayload{
			BookingID: b.ID, ResourceID: b.ResourceID, Reason: reason, CancelledBy: "system",
		})
		if err == nil {
			_ = s.bus.Publish(ctx, eventbus.StreamBookingEvents, event)
		}
	}
	return nil
}

// DeleteByTenant hard-deletes every booking of tenantID, per spec.md
// §4.4's tenant.deleted cascade. No per-booking events are emitted.
func (s *Service) DeleteByTenant(ctx context.Context, tenantID string) error {
	if err := s.repo.DeleteByTenant(ctx, tenantID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to cascade-delete bookings", err)
	}
	return nil
}
