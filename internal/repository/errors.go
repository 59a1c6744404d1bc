package repository

import "errors"

var (
	// ErrNotFound is returned when a keyed record is absent.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when creating a record whose key already exists.
	ErrDuplicate = errors.New("record already exists")
)
