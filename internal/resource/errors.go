package resource

import "errors"

var (
	ErrCategoryNotFound = errors.New("resource: category not found")
	ErrResourceNotFound = errors.New("resource: resource not found")

	errCrossTenantDenied = errors.New("cross-tenant access is always denied")
)
