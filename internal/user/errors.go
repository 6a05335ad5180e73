package user

import "errors"

var (
	ErrNotFound       = errors.New("user: not found")
	ErrDuplicateEmail = errors.New("user: email already registered for this tenant")

	errMissingPrincipal = errors.New("request has no authenticated principal")
	errForbidden        = errors.New("not permitted to act on this user")
)
