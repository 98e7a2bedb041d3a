package repository

import "errors"

var (
	// ErrStoreUnavailable wraps every failure of a backing store call.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned when an update targets a (userId, todoId)
	// pair that does not exist.
	ErrNotFound = errors.New("todo not found")
)
