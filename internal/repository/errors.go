package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional update finds the entity in
	// a state other than the expected one.
	ErrConflict = errors.New("entity state conflict")
)
