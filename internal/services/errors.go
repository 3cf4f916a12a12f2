package services

import "errors"

// Sentinel errors the handlers translate to HTTP statuses.
var (
	// ErrNotFound covers rows that are absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller has no access to the share.
	ErrForbidden = errors.New("forbidden")
	// ErrExpired covers expired links and shares of unavailable files.
	ErrExpired = errors.New("expired")
	// ErrNotInTrash means a permanent delete was requested for a row that
	// was never soft-deleted.
	ErrNotInTrash = errors.New("not in trash")
)
