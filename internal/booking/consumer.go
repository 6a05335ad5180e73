package booking

import (
	"context"

	"github.com/example/scheduling-platform/internal/eventbus"
)

type resourceDeletedPayload struct {
	ResourceID string `json:"resource_id"`
}

type userDeletedPayload struct {
	UserID string `json:"user_id"`
}

// ResourceDeletedHandler returns an eventbus.Handler that bulk-cancels
// every outstanding booking of a deleted resource, publishing one
// booking.cancelled per row, per spec.md §4.4's resource.deleted cascade.
// Registered against eventbus.StreamDeletionEvents under the booking
// service's consumer group.
func ResourceDeletedHandler(service *Service) eventbus.Handler {
	return func(ctx context.Context, event eventbus.Event) error {
		if event.Type != eventbus.EventResourceDeleted {
			return nil
		}
		var payload resourceDeletedPayload
		if err := event.DecodePayload(&payload); err != nil {
			return err
		}
		return service.CancelByResource(ctx, payload.ResourceID)
	}
}

// UserDeletedHandler returns an eventbus.Handler that bulk-cancels every
// outstanding booking of a deleted user, per spec.md §4.4's user.deleted
// cascade.
func UserDeletedHandler(service *Service) eventbus.Handler {
	return func(ctx context.Context, event eventbus.Event) error {
		if event.Type != eventbus.EventUserDeleted {
			return nil
		}
		var payload userDeletedPayload
		if err := event.DecodePayload(&payload); err != nil {
			return err
		}
		return service.CancelByUser(ctx, payload.UserID)
	}
}

// TenantDeletedHandler returns an eventbus.Handler that hard-deletes every
// booking of a deleted tenant, with no per-booking events emitted, per
// spec.md §4.4's tenant.deleted cascade. The deleted tenant's ID travels in
// the envelope's own TenantID field, so no payload decoding is needed.
func TenantDeletedHandler(service *Service) eventbus.Handler {
	return func(ctx context.Context, event eventbus.Event) error {
		if event.Type != eventbus.EventTenantDeleted {
			return nil
		}
		return service.DeleteByTenant(ctx, event.TenantID)
	}
}
