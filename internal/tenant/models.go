// Package tenant implements the tenant service: tenant records, per-tenant
// OrganizationSettings, and the webhook registry, grounded on the teacher's
// internal/application layer (service-over-repository-interface shape) and
// internal/persistence/sqlite/room_repository.go (CRUD repository style),
// generalized from "rooms" to "tenants" and extended with the settings
// cache invalidation and tenant.deleted cascade the spec requires.
package tenant

import "time"

// CustomLabels lets a tenant rename the vocabulary shown to its users.
type CustomLabels struct {
	ResourceSingular string `json:"resource_singular"`
	ResourcePlural   string `json:"resource_plural"`
	BookingLabel     string `json:"booking_label"`
	UserLabel        string `json:"user_label"`
}

// OrganizationSettings is the per-tenant scheduling policy embedded on
// Tenant.
type OrganizationSettings struct {
	BusinessType        string       `json:"business_type"`
	Timezone             string       `json:"timezone"`
	WorkingHoursStart    string       `json:"working_hours_start"`
	WorkingHoursEnd      string       `json:"working_hours_end"`
	BookingIntervalMins  int          `json:"booking_interval"`
	AdvanceBookingDays   int          `json:"advance_booking_days"`
	CancellationHours    int          `json:"cancellation_hours"`
	CustomLabels         CustomLabels `json:"custom_labels"`
}

// Plan enumerates the billing tiers a tenant may be on. Billing itself is a
// non-goal; the field is carried because the data model names it.
type Plan string

const (
	PlanBasico       Plan = "basico"
	PlanProfissional Plan = "profissional"
)

// Tenant is a customer organization.
type Tenant struct {
	ID                string
	Name              string
	Domain            string
	LogoURL           string
	ThemePrimaryColor string
	Plan              Plan
	IsActive          bool
	Settings          OrganizationSettings
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EventKind names a domain event a Webhook may subscribe to.
type EventKind string

// Webhook is a tenant-configured HTTP callback subscribed to a set of event
// kinds.
type Webhook struct {
	ID       string
	TenantID string
	URL      string
	Events   []EventKind
	Secret   string
	IsActive bool
}
