package user

import "context"

// Repository is the storage contract the user service depends on.
type Repository interface {
	Create(ctx context.Context, u User) error
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, tenantID, email string) (User, error)
	List(ctx context.Context, tenantID string) ([]User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
	DeleteByTenant(ctx context.Context, tenantID string) error
}
