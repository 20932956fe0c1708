package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrStatusConflict is returned when a conditional transition finds the
	// booking in a status it cannot move from.
	ErrStatusConflict = errors.New("booking status does not allow this transition")

	ErrDuplicate = errors.New("booking already exists")
)
