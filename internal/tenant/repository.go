package tenant

import "context"

// Repository is the storage contract the tenant service depends on.
// Implemented by sqlite.go against the tenant service's private database.
type Repository interface {
	Create(ctx context.Context, t Tenant) error
	Get(ctx context.Context, id string) (Tenant, error)
	GetByDomain(ctx context.Context, domain string) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Update(ctx context.Context, t Tenant) error
	Delete(ctx context.Context, id string) error

	CreateWebhook(ctx context.Context, w Webhook) error
	GetWebhook(ctx context.Context, tenantID, id string) (Webhook, error)
	ListWebhooks(ctx context.Context, tenantID string) ([]Webhook, error)
	UpdateWebhook(ctx context.Context, w Webhook) error
	DeleteWebhook(ctx context.Context, tenantID, id string) error
	ListActiveWebhooksForEvent(ctx context.Context, tenantID string, event EventKind) ([]Webhook, error)
}
