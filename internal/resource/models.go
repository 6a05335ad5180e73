// Package resource implements the resource service: categories, bookable
// resources, and the availability-projection algorithm. Grounded on the
// teacher's internal/application/room_service.go (CRUD + validation shape,
// generalized from a single global room catalog to per-tenant categories
// and resources) and internal/recurrence/engine.go (pure time-window
// generator style, reused here for slot generation instead of occurrence
// generation).
package resource

// CategoryType enumerates what kind of thing a category groups.
type CategoryType string

const (
	CategoryTypeFisico   CategoryType = "fisico"
	CategoryTypeHumano   CategoryType = "humano"
	CategoryTypeSoftware CategoryType = "software"
)

// Category groups resources of a kind for one tenant.
type Category struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	Type        CategoryType
	Icon        string
	Color       string
	IsActive    bool
	Metadata    map[string]any
}

// Status enumerates a resource's current bookability.
type Status string

const (
	StatusDisponivel   Status = "disponivel"
	StatusManutencao   Status = "manutencao"
	StatusIndisponivel Status = "indisponivel"
)

// TimeRange is a local-time "HH:MM"-"HH:MM" half-open interval.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Resource is one bookable unit (room, person, equipment).
type Resource struct {
	ID                  string
	TenantID            string
	CategoryID          string
	Name                string
	Description         string
	Status              Status
	Capacity            *int
	Location            string
	Attributes          map[string]any
	AvailabilitySchedule map[int][]TimeRange // keyed by time.Weekday (0=Sunday..6=Saturday)
	ImageURL            string
}

// Slot is one bookable sub-interval of a working day, already converted to
// UTC instants.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilityResult is the response shape for GET
// /resources/{id}/availability.
type AvailabilityResult struct {
	Timezone string `json:"timezone"`
	Slots    []Slot `json:"slots"`
}
