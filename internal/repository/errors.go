package repository

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a record with the same email exists.
	ErrDuplicateEmail = errors.New("email already registered")
)
