package domain

import "errors"

// Error kinds surfaced by every ParkRepository implementation.
// Adapters wrap these with context; callers match them with errors.Is.
var (
	// ErrNotFound means no park exists for the given park code.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the natural key already exists or an insert was not confirmed.
	ErrConflict = errors.New("conflict")
	// ErrUnimplemented means the backend does not support the operation.
	ErrUnimplemented = errors.New("unimplemented")
	// ErrValidation means the input was rejected before reaching storage.
	ErrValidation = errors.New("validation failed")
	// ErrTransient means the storage layer failed; the caller decides on retries.
	ErrTransient = errors.New("storage unavailable")
)
