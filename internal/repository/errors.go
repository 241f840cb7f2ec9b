package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("user not found")
	// ErrHandleTaken is returned when an insert collides on the unique handle.
	ErrHandleTaken = errors.New("handle already taken")
)
