package tenant

import "errors"

// ErrNotFound is returned by Repository methods when the row does not
// exist; the service layer maps it to apperr.NotFound.
var ErrNotFound = errors.New("tenant: not found")

// ErrDuplicateDomain is returned by Create/Update when another tenant
// already owns the given domain.
var ErrDuplicateDomain = errors.New("tenant: domain already registered")

var errCrossTenantDenied = errors.New("cross-tenant access is always denied")
