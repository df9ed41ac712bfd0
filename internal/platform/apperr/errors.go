// Package apperr declares the error kinds shared by services and handlers.
// Callers wrap a kind with context via fmt.Errorf("%w: ...", kind) and test with errors.Is.
package apperr

import "errors"

var (
	// ErrUnauthorized means no valid session, or the organization does not exist or is invisible to the caller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the caller is authenticated and the org is visible but the required scope is absent.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means a specifically requested sub-resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest means the request is malformed (e.g. an unknown scope name).
	ErrBadRequest = errors.New("bad request")
	// ErrConflict means the resource already exists (e.g. duplicate membership).
	ErrConflict = errors.New("conflict")
	// ErrInvalidState means stored data violates an integrity rule. Fatal to the operation; never repaired.
	ErrInvalidState = errors.New("invalid state")
)
