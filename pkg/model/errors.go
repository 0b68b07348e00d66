package model

import "errors"

var (
	// ErrInvalidInput marks calls that can never succeed with the given arguments
	ErrInvalidInput = errors.New("invalid input")
	// ErrColumnNotFound is returned when a named column is absent
	ErrColumnNotFound = errors.New("column not found")
)
