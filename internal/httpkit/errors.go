package httpkit

import "errors"

var (
	errMissingBearerToken = errors.New("a bearer token is required")
	errInvalidBearerToken = errors.New("the bearer token is invalid or expired")
	errAdminRequired      = errors.New("this action requires tenant admin privileges")
	errPermissionRequired = errors.New("this action requires additional permissions")
)
