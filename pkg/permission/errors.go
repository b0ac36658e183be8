package permission

import "errors"

var (
	// ErrUnknownRequest is returned when resolving a code nobody asked for.
	ErrUnknownRequest = errors.New("permission: no pending request for code")

	// ErrGrantMismatch is returned when the answer does not cover every
	// requested permission.
	ErrGrantMismatch = errors.New("permission: grant count does not match request")

	// ErrUnknownPermission is returned for permission names the store does
	// not manage.
	ErrUnknownPermission = errors.New("permission: unknown permission")
)
