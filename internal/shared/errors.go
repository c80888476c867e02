package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks request parameters rejected before any aggregation runs.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates a write collided with existing state.
	ErrConflict = errors.New("conflict")
)
