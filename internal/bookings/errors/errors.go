package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStaleStatus means the booking's status changed between read and write.
	ErrStaleStatus = errors.New("booking status changed concurrently")
)
