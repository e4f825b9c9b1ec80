// Package apperr defines the error kinds shared across the save and search pipelines.
//
// Each kind is a sentinel. Layers attach a kind to a cause with Wrap, which keeps
// both the kind and the cause visible to errors.Is and errors.As. A layer that
// recovers from a lower-layer failure logs it; a layer that cannot recover
// surfaces it with its own kind, never by relabelling the cause.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrPersistence marks a relational write failure. It aborts the save.
	ErrPersistence = errors.New("persistence failure")
	// ErrGraphSync marks a failed edge replacement. It is logged, not returned to callers.
	ErrGraphSync = errors.New("graph sync failure")
	// ErrIndexSync marks an embedding or vector-store failure during a save.
	// The note text is already durable when this is reported.
	ErrIndexSync = errors.New("index sync failure")
	// ErrProvider marks an embedding provider failure (transport, quota, bad payload).
	ErrProvider = errors.New("embedding provider failure")
	// ErrSearch marks a vector index query failure.
	ErrSearch = errors.New("search failure")
)

// Wrap attaches kind to err with a short operation label.
// It returns nil when err is nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}

// Validation builds a validation error from a message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Kind reports which sentinel err carries, or nil if none.
// Partial-success kinds are checked before the generic ones so that an
// index sync error caused by a provider error reports as index sync.
func Kind(err error) error {
	for _, k := range []error{
		ErrValidation, ErrNotFound, ErrConflict, ErrAlreadyExists,
		ErrPersistence, ErrGraphSync, ErrIndexSync, ErrSearch, ErrProvider,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
