// Package booking implements the admission engine: policy-gated,
// conflict-free scheduling of resources, recurrence expansion, and the
// booking lifecycle state machine. Grounded on the teacher's
// internal/application/schedule_service.go (gate ordering, conflict
// composition) and internal/recurrence/engine.go (occurrence generation),
// generalized from a single JST-only calendar to arbitrary per-tenant
// timezones and from daily/weekly-only to daily/weekly/monthly frequencies.
package booking

import "time"

// Status is a booking's lifecycle state.
type Status string

const (
	StatusPendente  Status = "pendente"
	StatusConfirmado Status = "confirmado"
	StatusCancelado Status = "cancelado"
)

// CanTransitionTo reports whether the state machine of spec.md §4.4 permits
// moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch {
	case s == StatusPendente && (next == StatusConfirmado || next == StatusCancelado):
		return true
	case s == StatusConfirmado && next == StatusCancelado:
		return true
	default:
		return false
	}
}

// Frequency enumerates a recurring pattern's cadence, generalized from the
// teacher's daily/weekly-only Frequency to include monthly.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// RecurringPattern describes how a single create request expands into many
// booking occurrences.
type RecurringPattern struct {
	Frequency  Frequency
	Interval   int
	EndDate    *time.Time
	DaysOfWeek []time.Weekday // only meaningful for FrequencyWeekly
}

// Booking is a single reservation of a resource by a user.
type Booking struct {
	ID                 string
	TenantID           string
	ResourceID         string
	UserID             string
	ClientID           string
	StartTime          time.Time
	EndTime            time.Time
	Status             Status
	Notes              string
	RecurringEnabled   bool
	RecurringPattern   *RecurringPattern
	RecurrenceGroupID  string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanCancel reports whether the booking may still be cancelled given the
// tenant's cancellation_hours policy (I6), evaluated at now.
func (b Booking) CanCancel(now time.Time, cancellationHours int) bool {
	if b.Status == StatusCancelado {
		return false
	}
	deadline := b.StartTime.Add(-time.Duration(cancellationHours) * time.Hour)
	return !now.After(deadline)
}
