package resource

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/cache"
	"github.com/example/scheduling-platform/internal/eventbus"
	"github.com/google/uuid"
)

// BookingWindow is the minimal shape the resource service needs from an
// existing non-cancelled booking to remove overlapping slots.
type BookingWindow struct {
	Start time.Time
	End   time.Time
}

// BookingClient fetches the resource's existing non-cancelled bookings,
// satisfied by an HTTP client to the booking service (availability
// projection step 6).
type BookingClient interface {
	ListNonCancelledBookings(ctx context.Context, tenantID, resourceID string) ([]BookingWindow, error)
}

// AvailabilityCache caches the projected slots for one resource/date,
// backed by internal/cache.TTLStore.
type AvailabilityCache interface {
	GetSlots(ctx context.Context, resourceID, date string) ([]Slot, bool)
	SetSlots(ctx context.Context, resourceID, date string, slots []Slot)
	Invalidate(ctx context.Context, resourceID, date string)
}

// Service implements the resource service's operations.
type Service struct {
	repo     Repository
	settings *cache.SettingsSupplier
	bookings BookingClient
	avail    AvailabilityCache
	bus      eventbus.Publisher
	now      func() time.Time
	newID    func() string
}

// NewService constructs a Service. bus may be nil, in which case deletion
// events are not published (used by tests that only exercise the
// synchronous CRUD path).
func NewService(repo Repository, settings *cache.SettingsSupplier, bookings BookingClient, avail AvailabilityCache, bus eventbus.Publisher, now func() time.Time, newID func() string) *Service {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{repo: repo, settings: settings, bookings: bookings, avail: avail, bus: bus, now: now, newID: newID}
}

// -- Categories --------------------------------------------------------

// CategoryInput is the validated payload for category create/update.
type CategoryInput struct {
	TenantID    string
	Name        string       `validate:"required"`
	Description string
	Type        CategoryType `validate:"category_type"`
	Icon        string
	Color       string
	IsActive    bool
	Metadata    map[string]any
}

func (in CategoryInput) validate() *apperr.ValidationError {
	if v := validateStruct("category is invalid", in); v != nil {
		return v
	}
	return nil
}

// CreateCategory provisions a new category for a tenant.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	if v := in.validate(); v != nil {
		return Category{}, v
	}
	c := Category{
		ID: s.newID(), TenantID: in.TenantID, Name: in.Name, Description: in.Description,
		Type: in.Type, Icon: in.Icon, Color: in.Color, IsActive: in.IsActive, Metadata: in.Metadata,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return Category{}, apperr.Wrap(apperr.KindInternal, "failed to create category", err)
	}
	return c, nil
}

// GetCategory returns a category by ID.
func (s *Service) GetCategory(ctx context.Context, id string) (Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err == ErrCategoryNotFound {
		return Category{}, apperr.NotFound("category")
	}
	if err != nil {
		return Category{}, apperr.Wrap(apperr.KindInternal, "failed to load category", err)
	}
	return c, nil
}

// ListCategories returns every category of a tenant.
func (s *Service) ListCategories(ctx context.Context, tenantID string) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list categories", err)
	}
	return categories, nil
}

// UpdateCategory applies in to the category identified by id.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (Category, error) {
	existing, err := s.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if v := in.validate(); v != nil {
		return Category{}, v
	}
	existing.Name, existing.Description, existing.Type = in.Name, in.Description, in.Type
	existing.Icon, existing.Color, existing.IsActive, existing.Metadata = in.Icon, in.Color, in.IsActive, in.Metadata
	if err := s.repo.UpdateCategory(ctx, existing); err != nil {
		return Category{}, apperr.Wrap(apperr.KindInternal, "failed to update category", err)
	}
	return existing, nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete category", err)
	}
	return nil
}

// -- Resources -----------------------------------------------------------

// ResourceInput is the validated payload for resource create/update.
type ResourceInput struct {
	TenantID             string
	CategoryID           string `validate:"required"`
	Name                 string `validate:"required"`
	Description          string
	Status               Status `validate:"resource_status"`
	Capacity             *int
	Location             string
	Attributes           map[string]any
	AvailabilitySchedule map[int][]TimeRange
	ImageURL             string
}

func (in ResourceInput) validate() *apperr.ValidationError {
	v := validateStruct("resource is invalid", in)
	if v == nil {
		v = apperr.NewValidation("resource is invalid")
	}
	for weekday, ranges := range in.AvailabilitySchedule {
		if weekday < 0 || weekday > 6 {
			v.Add("availability_schedule", fmt.Sprintf("weekday %d out of range", weekday))
			continue
		}
		for _, r := range ranges {
			if _, _, err := parseTimeRange(r); err != nil {
				v.Add("availability_schedule", err.Error())
			}
		}
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// CreateResource provisions a new resource under an existing category.
func (s *Service) CreateResource(ctx context.Context, in ResourceInput) (Resource, error) {
	if v := in.validate(); v != nil {
		return Resource{}, v
	}
	if _, err := s.repo.GetCategory(ctx, in.CategoryID); err == ErrCategoryNotFound {
		return Resource{}, apperr.New(apperr.KindValidation, "category_id does not refer to an existing category")
	} else if err != nil {
		return Resource{}, apperr.Wrap(apperr.KindInternal, "failed to check category", err)
	}

	r := Resource{
		ID: s.newID(), TenantID: in.TenantID, CategoryID: in.CategoryID, Name: in.Name,
		Description: in.Description, Status: in.Status, Capacity: in.Capacity, Location: in.Location,
		Attributes: in.Attributes, AvailabilitySchedule: in.AvailabilitySchedule, ImageURL: in.ImageURL,
	}
	if err := s.repo.CreateResource(ctx, r); err != nil {
		return Resource{}, apperr.Wrap(apperr.KindInternal, "failed to create resource", err)
	}
	return r, nil
}

// GetResource returns a resource by ID.
func (s *Service) GetResource(ctx context.Context, id string) (Resource, error) {
	r, err := s.repo.GetResource(ctx, id)
	if err == ErrResourceNotFound {
		return Resource{}, apperr.NotFound("resource")
	}
	if err != nil {
		return Resource{}, apperr.Wrap(apperr.KindInternal, "failed to load resource", err)
	}
	return r, nil
}

// ListResources returns every resource of a tenant.
func (s *Service) ListResources(ctx context.Context, tenantID string) ([]Resource, error) {
	resources, err := s.repo.ListResources(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list resources", err)
	}
	return resources, nil
}

// UpdateResource applies in to the resource identified by id.
func (s *Service) UpdateResource(ctx context.Context, id string, in ResourceInput) (Resource, error) {
	existing, err := s.GetResource(ctx, id)
	if err != nil {
		return Resource{}, err
	}
	if v := in.validate(); v != nil {
		return Resource{}, v
	}
	existing.CategoryID, existing.Name, existing.Description = in.CategoryID, in.Name, in.Description
	existing.Status, existing.Capacity, existing.Location = in.Status, in.Capacity, in.Location
	existing.Attributes, existing.AvailabilitySchedule, existing.ImageURL = in.Attributes, in.AvailabilitySchedule, in.ImageURL
	if err := s.repo.UpdateResource(ctx, existing); err != nil {
		return Resource{}, apperr.Wrap(apperr.KindInternal, "failed to update resource", err)
	}
	return existing, nil
}

// resourceDeletedPayload is decoded by the booking service's cascade
// consumer to bulk-cancel the resource's outstanding bookings.
type resourceDeletedPayload struct {
	ResourceID string `json:"resource_id"`
}

// DeleteResource removes a resource and publishes resource.deleted so the
// booking service can cascade-cancel its outstanding bookings.
func (s *Service) DeleteResource(ctx context.Context, id string) error {
	existing, err := s.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteResource(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete resource", err)
	}
	if s.bus != nil {
		if event, err := eventbus.NewEvent(s.newID(), eventbus.EventResourceDeleted, existing.TenantID, s.now(), resourceDeletedPayload{ResourceID: id}); err == nil {
			_ = s.bus.Publish(ctx, eventbus.StreamDeletionEvents, event)
		}
	}
	return nil
}

// DeleteByTenant hard-deletes every category and resource of tenantID,
// invoked by the tenant.deleted cascade consumer.
func (s *Service) DeleteByTenant(ctx context.Context, tenantID string) error {
	if err := s.repo.DeleteResourcesByTenant(ctx, tenantID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to cascade-delete resources", err)
	}
	if err := s.repo.DeleteCategoriesByTenant(ctx, tenantID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to cascade-delete categories", err)
	}
	return nil
}

// -- Availability projection ---------------------------------------------

// GetAvailability implements the 8-step algorithm of spec.md §4.3: resolve
// settings, intersect the resource's weekly schedule with tenant working
// hours, emit aligned slots, convert to UTC, subtract overlapping
// non-cancelled bookings, and tag with the tenant timezone.
func (s *Service) GetAvailability(ctx context.Context, resourceID, date string) (AvailabilityResult, error) {
	r, err := s.GetResource(ctx, resourceID)
	if err != nil {
		return AvailabilityResult{}, err
	}

	if s.avail != nil {
		if cached, ok := s.avail.GetSlots(ctx, resourceID, date); ok {
			settings, sErr := s.settings.Get(ctx, r.TenantID)
			if sErr != nil {
				return AvailabilityResult{}, sErr
			}
			return AvailabilityResult{Timezone: settings.Timezone, Slots: cached}, nil
		}
	}

	settings, err := s.settings.Get(ctx, r.TenantID)
	if err != nil {
		return AvailabilityResult{}, err
	}

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return AvailabilityResult{}, apperr.New(apperr.KindValidation, "tenant timezone is invalid")
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return AvailabilityResult{}, apperr.New(apperr.KindValidation, "date must be YYYY-MM-DD")
	}

	weekday := int(day.Weekday())
	resourceRanges := r.AvailabilitySchedule[weekday]
	if len(resourceRanges) == 0 {
		return AvailabilityResult{Timezone: settings.Timezone, Slots: []Slot{}}, nil
	}

	workStart, workEnd, err := workingHoursRange(settings.WorkingHoursStart, settings.WorkingHoursEnd)
	if err != nil {
		return AvailabilityResult{}, apperr.Wrap(apperr.KindInternal, "invalid tenant working hours", err)
	}

	intersected := intersectRanges(resourceRanges, workStart, workEnd)
	if len(intersected) == 0 {
		return AvailabilityResult{Timezone: settings.Timezone, Slots: []Slot{}}, nil
	}

	interval := time.Duration(settings.BookingIntervalMinutes) * time.Minute
	if interval <= 0 {
		return AvailabilityResult{}, apperr.New(apperr.KindInternal, "tenant booking interval must be positive")
	}

	localSlots := generateSlots(day, intersected, interval, loc)

	var bookings []BookingWindow
	if s.bookings != nil {
		bookings, err = s.bookings.ListNonCancelledBookings(ctx, r.TenantID, resourceID)
		if err != nil {
			return AvailabilityResult{}, apperr.Wrap(apperr.KindDependencyUnavailable, "could not load existing bookings", err)
		}
	}

	var result []Slot
	for _, slot := range localSlots {
		if overlapsAny(slot, bookings) {
			continue
		}
		result = append(result, Slot{Start: slot.start.UTC().Format(time.RFC3339), End: slot.end.UTC().Format(time.RFC3339)})
	}
	if result == nil {
		result = []Slot{}
	}

	if s.avail != nil {
		s.avail.SetSlots(ctx, resourceID, date, result)
	}

	return AvailabilityResult{Timezone: settings.Timezone, Slots: result}, nil
}

// InvalidateAvailability removes the cached projection for one resource and
// date, used by the booking/resource event consumers.
func (s *Service) InvalidateAvailability(ctx context.Context, resourceID, date string) {
	if s.avail != nil {
		s.avail.Invalidate(ctx, resourceID, date)
	}
}

type timeInterval struct{ start, end int } // minutes since local midnight

type localSlot struct{ start, end time.Time }

func parseTimeRange(r TimeRange) (int, int, error) {
	start, err := parseHHMM(r.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start %q: %w", r.Start, err)
	}
	end, err := parseHHMM(r.End)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end %q: %w", r.End, err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("time range %s-%s must have end after start", r.Start, r.End)
	}
	return start, end, nil
}

func parseHHMM(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute")
	}
	return h*60 + m, nil
}

func workingHoursRange(start, end string) (int, int, error) {
	s, err := parseHHMM(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := parseHHMM(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		return 0, 0, fmt.Errorf("working hours end must be after start")
	}
	return s, e, nil
}

// intersectRanges clips each resource range to [workStart, workEnd],
// dropping ranges that do not overlap at all.
func intersectRanges(ranges []TimeRange, workStart, workEnd int) []timeInterval {
	var out []timeInterval
	for _, r := range ranges {
		start, end, err := parseTimeRange(r)
		if err != nil {
			continue
		}
		lo, hi := start, end
		if workStart > lo {
			lo = workStart
		}
		if workEnd < hi {
			hi = workEnd
		}
		if hi > lo {
			out = append(out, timeInterval{start: lo, end: hi})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// generateSlots emits contiguous slots of width interval within each
// interval, aligned to the interval's own start, dropping any tail
// fragment shorter than interval.
func generateSlots(day time.Time, intervals []timeInterval, interval time.Duration, loc *time.Location) []localSlot {
	y, m, d := day.Date()
	var slots []localSlot
	step := int(interval / time.Minute)
	for _, iv := range intervals {
		for cursor := iv.start; cursor+step <= iv.end; cursor += step {
			start := time.Date(y, m, d, cursor/60, cursor%60, 0, 0, loc)
			end := start.Add(interval)
			slots = append(slots, localSlot{start: start, end: end})
		}
	}
	return slots
}

func overlapsAny(slot localSlot, bookings []BookingWindow) bool {
	for _, b := range bookings {
		if slot.start.Before(b.End) && b.Start.Before(slot.end) {
			return true
		}
	}
	return false
}
