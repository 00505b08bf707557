package errors

import "errors"

var (
	ErrNotFound = errors.New("location not found")

	ErrInvalidID = errors.New("invalid location ID format")
)
