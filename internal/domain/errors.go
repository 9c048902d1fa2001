package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a place name could not be resolved. It is cacheable.
	ErrNotFound = errors.New("location not found")

	// ErrTransient indicates a failure unrelated to the absence of results,
	// such as a timeout or a malformed response. It is never cached.
	ErrTransient = errors.New("transient failure")

	// ErrAlreadyKnown indicates an attempt to add a known name to the negative cache.
	ErrAlreadyKnown = errors.New("location already known")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError is returned when a name has no geocoding result.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("location %q not found", e.Name)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransientError wraps a retriable failure.
type TransientError struct {
	Op   string
	Name string
	Err  error
}

func (e *TransientError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransient) hold.
func (e *TransientError) Is(target error) bool { return target == ErrTransient }
