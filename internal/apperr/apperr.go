// Package apperr defines the domain error taxonomy shared by all services.
//
// Every service operation either succeeds or fails with exactly one Error.
// An Error carries a short name, an HTTP-style status code, a human-readable
// detail message, and an Operational flag. Operational errors are expected
// client-facing conditions (bad credentials, duplicate email) and are logged
// as routine events; non-operational errors are server faults and are logged
// as incidents. The API layer translates the kind to a transport response
// uniformly; nothing in between swallows or retries.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a domain error with an HTTP-style classification.
type Error struct {
	// Name is the short error name, e.g. "Invalid credentials".
	Name string

	// Status is the HTTP-style status code for this kind of failure.
	Status int

	// Detail is the human-readable message returned to the caller.
	Detail string

	// Operational distinguishes expected client errors from unexpected
	// server faults. It drives log severity, never control flow.
	Operational bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Name + ": " + e.Detail
}

// Conflict reports a state conflict, such as a duplicate email at registration.
func Conflict(name, detail string) *Error {
	return &Error{Name: name, Status: http.StatusConflict, Detail: detail, Operational: true}
}

// NotFound reports a missing entity addressed by id.
func NotFound(name, detail string) *Error {
	return &Error{Name: name, Status: http.StatusNotFound, Detail: detail, Operational: true}
}

// Unauthorized reports failed authentication. Callers must use identical
// messages for distinct causes where user enumeration is a concern.
func Unauthorized(name, detail string) *Error {
	return &Error{Name: name, Status: http.StatusUnauthorized, Detail: detail, Operational: true}
}

// Forbidden reports a valid identity lacking the right to proceed,
// including invalid or expired refresh tokens.
func Forbidden(name, detail string) *Error {
	return &Error{Name: name, Status: http.StatusForbidden, Detail: detail, Operational: true}
}

// Internal reports an unexpected server fault: store write failures,
// missing signing secrets, hashing failures.
func Internal(detail string) *Error {
	return &Error{Name: "Internal server error", Status: http.StatusInternalServerError, Detail: detail, Operational: false}
}

// From extracts an *Error from err's chain, or nil if there is none.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
