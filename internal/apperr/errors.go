// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	// ErrPrecondition is returned when an operation needs an earlier
	// workflow step to have run first (e.g. parsing before cleaning).
	ErrPrecondition = errors.New("precondition failed")
)
