package domain

import "errors"

// Sentinel errors shared by services, repositories and controllers.
var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when the request is invalid.
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidBloodType = errors.New("invalid blood type")
	ErrInvalidUrgency   = errors.New("invalid urgency level")
	// ErrVersionConflict is returned when a blood request changed since it was read.
	ErrVersionConflict = errors.New("blood request was modified concurrently")
	// ErrLocked is returned when another matching run holds the request.
	ErrLocked = errors.New("matching already in progress for this request")
)
