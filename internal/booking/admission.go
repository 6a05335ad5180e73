package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/cache"
)

// ResourceSnapshot is the subset of resource state the admission pipeline
// needs from the resource service: whether the resource can be booked at
// all, and its weekly availability schedule.
type ResourceSnapshot struct {
	TenantID             string
	Status               string
	AvailabilitySchedule map[int][]TimeRange
}

// TimeRange mirrors internal/resource.TimeRange without importing that
// package, since booking only needs to parse "HH:MM" boundaries.
type TimeRange struct {
	Start string
	End   string
}

// ResourceClient fetches the resource snapshot admission needs, satisfied
// by an HTTP client to the resource service.
type ResourceClient interface {
	GetResource(ctx context.Context, resourceID string) (ResourceSnapshot, error)
}

// normalizeWindow rebuilds start/end from their wall-clock components in loc.
// Callers convert instants to loc with In(loc) first, so a time that carries
// an offset keeps its meaning. A wall-clock value that does not exist in loc
// (a spring-forward gap) is rejected; an ambiguous fall-back value is not
// rejected and resolves to whichever of the two offsets time.Date picks.
func normalizeWindow(startLocal, endLocal time.Time, loc *time.Location) (start, end time.Time, err error) {
	start = time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), startLocal.Hour(), startLocal.Minute(), startLocal.Second(), 0, loc)
	end = time.Date(endLocal.Year(), endLocal.Month(), endLocal.Day(), endLocal.Hour(), endLocal.Minute(), endLocal.Second(), 0, loc)

	if dstGap(startLocal, start) || dstGap(endLocal, end) {
		return time.Time{}, time.Time{}, apperr.New(apperr.KindValidation, "start or end time falls in a nonexistent local time (spring-forward gap)")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperr.New(apperr.KindValidation, "end_time must be after start_time")
	}
	return start, end, nil
}

// dstGap detects a spring-forward gap: constructing a wall-clock time that
// does not exist causes Go's time.Date to normalize it into a different
// hour, so the constructed time shows a different wall clock than requested.
func dstGap(requested, constructed time.Time) bool {
	return requested.Hour() != constructed.Hour() || requested.Minute() != constructed.Minute()
}

// admissionContext bundles everything the gates need, computed once per
// candidate booking (or once per occurrence, for a recurring batch).
type admissionContext struct {
	settings cache.TenantSettings
	resource ResourceSnapshot
	loc      *time.Location
	now      time.Time
}

// runGates applies I5, I3, I4a, I4b in order to one candidate window,
// short-circuiting on the first violation. start/end are UTC instants.
func runGates(ac admissionContext, start, end time.Time) error {
	if err := gateAdvanceWindow(ac, start); err != nil {
		return err
	}
	if err := gateIntervalMultiple(ac, start, end); err != nil {
		return err
	}
	if err := gateWorkingHoursAndSchedule(ac, start, end); err != nil {
		return err
	}
	return nil
}

// gateAdvanceWindow enforces I5: start > now and start <= now +
// advance_booking_days, compared in tenant-local time.
func gateAdvanceWindow(ac admissionContext, start time.Time) error {
	localNow := ac.now.In(ac.loc)
	localStart := start.In(ac.loc)
	if !localStart.After(localNow) {
		return apperr.New(apperr.KindValidation, "start_time must be in the future")
	}
	horizon := localNow.AddDate(0, 0, ac.settings.AdvanceBookingDays)
	if localStart.After(horizon) {
		return apperr.New(apperr.KindValidation, "start_time is beyond the tenant's advance booking window")
	}
	return nil
}

// gateIntervalMultiple enforces I3: duration is a positive multiple of the
// tenant's booking_interval.
func gateIntervalMultiple(ac admissionContext, start, end time.Time) error {
	interval := time.Duration(ac.settings.BookingIntervalMinutes) * time.Minute
	if interval <= 0 {
		return apperr.New(apperr.KindInternal, "tenant booking interval must be positive")
	}
	duration := end.Sub(start)
	if duration <= 0 || duration%interval != 0 {
		return apperr.New(apperr.KindValidation, fmt.Sprintf("duration must be a positive multiple of %d minutes", ac.settings.BookingIntervalMinutes))
	}
	return nil
}

// gateWorkingHoursAndSchedule enforces I4a and I4b: the local window sits
// within tenant working hours, on a single local day, and within one
// TimeRange of the resource's schedule for that weekday.
func gateWorkingHoursAndSchedule(ac admissionContext, start, end time.Time) error {
	localStart := start.In(ac.loc)
	localEnd := end.In(ac.loc)

	if localStart.Year() != localEnd.Year() || localStart.YearDay() != localEnd.YearDay() {
		return apperr.New(apperr.KindValidation, "booking must not span more than one local day")
	}

	workStart := parseHHMM(ac.settings.WorkingHoursStart)
	workEnd := parseHHMM(ac.settings.WorkingHoursEnd)
	startMinutes := minutesOfDay(localStart)
	endMinutes := minutesOfDay(localEnd)
	if endMinutes == 0 {
		endMinutes = 24 * 60 // midnight end-of-day boundary
	}
	if startMinutes < workStart || endMinutes > workEnd {
		return apperr.New(apperr.KindValidation, "booking falls outside tenant working hours")
	}

	weekday := int(localStart.Weekday())
	ranges := ac.resource.AvailabilitySchedule[weekday]
	if len(ranges) == 0 {
		return apperr.New(apperr.KindValidation, "resource is not available on this weekday")
	}

	for _, r := range ranges {
		if startMinutes >= parseHHMM(r.Start) && endMinutes <= parseHHMM(r.End) {
			return nil
		}
	}
	return apperr.New(apperr.KindValidation, "booking falls outside the resource's availability schedule")
}

func minutesOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

func parseHHMM(s string) int {
	var h, m int
	fmt.Sscanf(s, "%d:%d", &h, &m)
	return h*60 + m
}
