package models

import "errors"

// Domain error taxonomy. Handlers map these to HTTP statuses; everything
// else bubbles up as a 500.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrValidation      = errors.New("validation failed")
	ErrConstraint      = errors.New("referenced item does not exist")
	ErrService         = errors.New("upstream service unavailable")
)
