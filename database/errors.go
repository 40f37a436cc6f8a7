package database

import "errors"

var (
	// ErrNotFound is returned when a single-document lookup matches nothing.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when an insert collides with an existing unique key.
	ErrDuplicate = errors.New("document already exists")
)
