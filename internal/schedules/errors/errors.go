package errors

import "errors"

var (
	ErrNotFound = errors.New("blocked period not found")

	ErrInvalidID = errors.New("invalid blocked period ID format")
)
