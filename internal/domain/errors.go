package domain

import "errors"

// Sentinel errors shared by services and repositories. Wrap them with %w; the
// HTTP layer maps each one to a status code and ErrValidation to a 422 field list.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrValidation   = errors.New("validation failed")
)
