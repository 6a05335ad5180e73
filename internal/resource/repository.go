package resource

import "context"

// CategoryRepository is the storage contract for categories.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context, tenantID string) ([]Category, error)
	UpdateCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id string) error
	DeleteCategoriesByTenant(ctx context.Context, tenantID string) error
}

// ResourceRepository is the storage contract for resources.
type ResourceRepository interface {
	CreateResource(ctx context.Context, r Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context, tenantID string) ([]Resource, error)
	UpdateResource(ctx context.Context, r Resource) error
	DeleteResource(ctx context.Context, id string) error
	DeleteResourcesByTenant(ctx context.Context, tenantID string) error
}

// Repository aggregates both stores; the SQLite implementation backs both
// with tables in the same private database.
type Repository interface {
	CategoryRepository
	ResourceRepository
}
