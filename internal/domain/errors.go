package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id does not resolve to any link.
var ErrNotFound = errors.New("link not found")

// ErrDuplicateURL is returned when a mutation would violate the
// collection-wide URL uniqueness invariant.
var ErrDuplicateURL = errors.New("URL already exists")

// ValidationError reports a rejected input field with a human-readable reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// StorageError wraps a shard read/write failure with the category it hit.
// "File absent on read" is not a StorageError - a missing shard is an empty shard.
type StorageError struct {
	Category string
	Op       string // "read" | "write" | "list"
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for category %q: %v", e.Op, e.Category, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
