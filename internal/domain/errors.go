package domain

import "errors"

// Sentinel errors. Repositories and services wrap them with context, and the
// HTTP and socket layers map them to status codes without seeing storage
// details.
var (
	// ErrNotFound: the document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness or version check failed. Post saves retry on it.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized: no acting user could be established.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden: the actor does not own the target.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest: the input is malformed or breaks a content rule.
	ErrBadRequest = errors.New("bad request")
)
