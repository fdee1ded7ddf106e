package entity

import "errors"

var (
	// ErrNotFound is returned when an expense, rule, user or company does
	// not exist or is not visible to the caller's company.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the actor has no pending stake in
	// the expense and is not an admin.
	ErrUnauthorized = errors.New("not authorized")

	// ErrValidation is returned for invalid input before any mutation.
	ErrValidation = errors.New("validation failed")
)
