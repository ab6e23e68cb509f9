package adapter

import (
	"errors"
)

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrLimitExceeded is returned when a store refuses a write because of its size or count limits.
	ErrLimitExceeded = errors.New("storage limit exceeded")
)
