// Package user implements the user service: per-tenant user profiles,
// authentication, and permissions. Grounded on the teacher's
// internal/application (AuthService shape, Argon2idParams) generalized
// from a single global user table to tenant-scoped users, and on
// internal/persistence/sqlite/room_repository.go for the SQL repository
// style.
package user

import "time"

// UserType enumerates a user's role within its tenant.
type UserType string

const (
	UserTypeAdmin UserType = "admin"
	UserTypeUser  UserType = "user"
)

// Permissions is the fine-grained capability set layered on top of
// UserType.
type Permissions struct {
	CanBook             bool `json:"can_book"`
	CanManageResources   bool `json:"can_manage_resources"`
	CanManageUsers       bool `json:"can_manage_users"`
	CanViewAllBookings   bool `json:"can_view_all_bookings"`
}

// User is a tenant-scoped account.
type User struct {
	ID           string
	TenantID     string
	Name         string
	Email        string
	Phone        string
	UserType     UserType
	Department   string
	IsActive     bool
	Permissions  Permissions
	PasswordHash string
	CreatedAt    time.Time
}
