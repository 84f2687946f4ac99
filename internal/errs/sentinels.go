// Package errs contains sentinel and typed errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrHandleTaken indicates a unique constraint violation on the handle (username taken).
	ErrHandleTaken = errors.New("handle already taken")
)

// ValidationError reports a handle that failed format validation.
type ValidationError struct {
	Handle string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid handle %q: %s", e.Handle, e.Reason)
}
