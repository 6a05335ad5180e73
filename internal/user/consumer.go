package user

import (
	"context"

	"github.com/example/scheduling-platform/internal/eventbus"
)

// TenantDeletedHandler returns an eventbus.Handler that cascade-deletes
// every user of a deleted tenant. Registered against
// eventbus.StreamDeletionEvents under the user-service consumer group, per
// spec.md §4.5. The deleted tenant's ID travels in the envelope's own
// TenantID field, so no payload decoding is needed.
func TenantDeletedHandler(service *Service) eventbus.Handler {
	return func(ctx context.Context, event eventbus.Event) error {
		if event.Type != eventbus.EventTenantDeleted {
			return nil
		}
		return service.DeleteByTenant(ctx, event.TenantID)
	}
}
