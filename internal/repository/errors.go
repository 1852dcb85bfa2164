package repository

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the users unique email constraint
	// rejects an insert.
	ErrDuplicateEmail = errors.New("email already registered")
)
