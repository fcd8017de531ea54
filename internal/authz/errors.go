package authz

import "errors"

var (
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("authz: not found")

	// ErrInvalidInput marks a malformed argument.
	ErrInvalidInput = errors.New("authz: invalid input")

	// ErrDirectoryUnavailable marks a connectivity failure to the permission
	// directory. It is the only condition the resolvers surface as a hard
	// error; every business negative (unknown permission, no roles, no
	// organization) is a value, not an error. Callers must translate it to a
	// conservative denial plus an alert signal, never to a grant.
	ErrDirectoryUnavailable = errors.New("authz: directory unavailable")
)
