package tenant

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/eventbus"
	"github.com/google/uuid"
)

// SettingsInvalidator removes a tenant's cached settings. Satisfied by
// *cache.SettingsSupplier; narrowed to a single-method interface so the
// service package does not import the cache package directly.
type SettingsInvalidator interface {
	Invalidate(ctx context.Context, tenantID string)
}

// Service implements the tenant service's operations: CRUD on tenants and
// their embedded OrganizationSettings, plus the webhook registry. Grounded
// on the teacher's internal/application service shape (constructor takes
// its repository plus a now/id source, methods return domain structs or a
// stable sentinel error).
type Service struct {
	repo       Repository
	bus        eventbus.Publisher
	settings   SettingsInvalidator
	now        func() time.Time
	newID      func() string
}

// NewService constructs a Service. now and newID default to time.Now and
// uuid.NewString when nil, matching the teacher's NewAuthServiceWithLogger
// nil-defaulting convention.
func NewService(repo Repository, bus eventbus.Publisher, settings SettingsInvalidator, now func() time.Time, newID func() string) *Service {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{repo: repo, bus: bus, settings: settings, now: now, newID: newID}
}

// CreateTenantInput is the validated payload for Create.
type CreateTenantInput struct {
	Name              string
	Domain            string
	LogoURL           string
	ThemePrimaryColor string
	Plan              Plan
	Settings          OrganizationSettings
}

func (in CreateTenantInput) validate() *apperr.ValidationError {
	v := apperr.NewValidation("tenant is invalid")
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "must not be empty")
	}
	if strings.TrimSpace(in.Domain) == "" {
		v.Add("domain", "must not be empty")
	}
	if in.Settings.Timezone == "" {
		v.Add("settings.timezone", "must not be empty")
	}
	if _, err := time.LoadLocation(in.Settings.Timezone); in.Settings.Timezone != "" && err != nil {
		v.Add("settings.timezone", "must be a valid IANA timezone")
	}
	if in.Settings.WorkingHoursStart >= in.Settings.WorkingHoursEnd {
		v.Add("settings.working_hours_end", "must be strictly after working_hours_start")
	}
	if in.Settings.BookingIntervalMins <= 0 {
		v.Add("settings.booking_interval", "must be positive")
	}
	if in.Settings.AdvanceBookingDays < 0 {
		v.Add("settings.advance_booking_days", "must not be negative")
	}
	if in.Settings.CancellationHours < 0 {
		v.Add("settings.cancellation_hours", "must not be negative")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// Create provisions a new tenant.
func (s *Service) Create(ctx context.Context, in CreateTenantInput) (Tenant, error) {
	if v := in.validate(); v != nil {
		return Tenant{}, v
	}

	if _, err := s.repo.GetByDomain(ctx, in.Domain); err == nil {
		return Tenant{}, apperr.New(apperr.KindConflict, "domain is already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return Tenant{}, apperr.Wrap(apperr.KindInternal, "failed to check domain uniqueness", err)
	}

	now := s.now()
	t := Tenant{
		ID:                s.newID(),
		Name:              in.Name,
		Domain:            in.Domain,
		LogoURL:           in.LogoURL,
		ThemePrimaryColor: in.ThemePrimaryColor,
		Plan:              in.Plan,
		IsActive:          true,
		Settings:          in.Settings,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return Tenant{}, apperr.Wrap(apperr.KindInternal, "failed to create tenant", err)
	}
	return t, nil
}

// Get returns a tenant by ID.
func (s *Service) Get(ctx context.Context, id string) (Tenant, error) {
	t, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Tenant{}, apperr.NotFound("tenant")
	}
	if err != nil {
		return Tenant{}, apperr.Wrap(apperr.KindInternal, "failed to load tenant", err)
	}
	return t, nil
}

// List returns every tenant.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	tenants, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list tenants", err)
	}
	return tenants, nil
}

// UpdateTenantInput is the validated payload for updating tenant-level
// (not settings) fields.
type UpdateTenantInput struct {
	Name              string
	LogoURL           string
	ThemePrimaryColor string
	Plan              Plan
	IsActive          bool
}

// Update applies in to the tenant identified by id. Only admins of that
// tenant may call this; enforcing that is the HTTP layer's job.
func (s *Service) Update(ctx context.Context, id string, in UpdateTenantInput) (Tenant, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Tenant{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return Tenant{}, apperr.NewValidation("name must not be empty")
	}

	t.Name = in.Name
	t.LogoURL = in.LogoURL
	t.ThemePrimaryColor = in.ThemePrimaryColor
	t.Plan = in.Plan
	t.IsActive = in.IsActive
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		return Tenant{}, apperr.Wrap(apperr.KindInternal, "failed to update tenant", err)
	}
	return t, nil
}

// GetSettings returns the tenant's OrganizationSettings.
func (s *Service) GetSettings(ctx context.Context, tenantID string) (OrganizationSettings, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return OrganizationSettings{}, err
	}
	return t.Settings, nil
}

// UpdateSettings replaces the tenant's OrganizationSettings and invalidates
// the settings cache entry, per spec.md §4.1.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, settings OrganizationSettings) (OrganizationSettings, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return OrganizationSettings{}, err
	}

	in := CreateTenantInput{Name: t.Name, Domain: t.Domain, Settings: settings}
	if v := in.validate(); v != nil {
		return OrganizationSettings{}, v
	}

	t.Settings = settings
	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return OrganizationSettings{}, apperr.Wrap(apperr.KindInternal, "failed to update settings", err)
	}

	if s.settings != nil {
		s.settings.Invalidate(ctx, tenantID)
	}
	return settings, nil
}

// Delete removes the tenant and publishes tenant.deleted so every other
// service can cascade the deletion of its own derived state.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete tenant", err)
	}

	event, err := eventbus.NewEvent(s.newID(), eventbus.EventTenantDeleted, id, s.now(), tenantDeletedPayload{TenantID: id})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to encode tenant.deleted event", err)
	}
	if s.bus != nil {
		if pubErr := s.bus.Publish(ctx, eventbus.StreamDeletionEvents, event); pubErr != nil {
			// Publication failure is logged by the bus implementation and does
			// not roll back the already-committed deletion, per spec.md §7.
			return nil
		}
	}
	return nil
}

type tenantDeletedPayload struct {
	TenantID string `json:"tenant_id"`
}

// CreateWebhookInput is the validated payload for CreateWebhook.
type CreateWebhookInput struct {
	TenantID string
	URL      string
	Events   []EventKind
	Secret   string
}

func (in CreateWebhookInput) validate() *apperr.ValidationError {
	v := apperr.NewValidation("webhook is invalid")
	parsed, err := url.Parse(in.URL)
	if err != nil {
		v.Add("url", "must be a valid URL")
	} else if parsed.Scheme != "https" && !(parsed.Scheme == "http" && parsed.Hostname() == "localhost") {
		v.Add("url", "must use https, or http restricted to localhost")
	}
	if len(in.Events) == 0 {
		v.Add("events", "must list at least one event")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// CreateWebhook registers a new webhook for a tenant.
func (s *Service) CreateWebhook(ctx context.Context, in CreateWebhookInput) (Webhook, error) {
	if v := in.validate(); v != nil {
		return Webhook{}, v
	}
	w := Webhook{ID: s.newID(), TenantID: in.TenantID, URL: in.URL, Events: in.Events, Secret: in.Secret, IsActive: true}
	if err := s.repo.CreateWebhook(ctx, w); err != nil {
		return Webhook{}, apperr.Wrap(apperr.KindInternal, "failed to create webhook", err)
	}
	return w, nil
}

// ListWebhooks returns every webhook registered for a tenant.
func (s *Service) ListWebhooks(ctx context.Context, tenantID string) ([]Webhook, error) {
	webhooks, err := s.repo.ListWebhooks(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list webhooks", err)
	}
	return webhooks, nil
}

// GetWebhook returns a single webhook scoped to a tenant.
func (s *Service) GetWebhook(ctx context.Context, tenantID, id string) (Webhook, error) {
	w, err := s.repo.GetWebhook(ctx, tenantID, id)
	if errors.Is(err, ErrNotFound) {
		return Webhook{}, apperr.NotFound("webhook")
	}
	if err != nil {
		return Webhook{}, apperr.Wrap(apperr.KindInternal, "failed to load webhook", err)
	}
	return w, nil
}

// UpdateWebhook replaces a webhook's URL, subscribed events, and secret.
func (s *Service) UpdateWebhook(ctx context.Context, tenantID, id string, in CreateWebhookInput) (Webhook, error) {
	existing, err := s.GetWebhook(ctx, tenantID, id)
	if err != nil {
		return Webhook{}, err
	}
	in.TenantID = tenantID
	if v := in.validate(); v != nil {
		return Webhook{}, v
	}
	existing.URL, existing.Events, existing.Secret = in.URL, in.Events, in.Secret
	if err := s.repo.UpdateWebhook(ctx, existing); err != nil {
		return Webhook{}, apperr.Wrap(apperr.KindInternal, "failed to update webhook", err)
	}
	return existing, nil
}

// DeleteWebhook removes a webhook.
func (s *Service) DeleteWebhook(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetWebhook(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteWebhook(ctx, tenantID, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete webhook", err)
	}
	return nil
}
