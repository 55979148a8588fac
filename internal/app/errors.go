package service

import "errors"

var (
	// ErrInvalidCoordinates is returned for non-finite or out-of-range input.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrModelMissing is returned when a snapshot lacks a hazard's model.
	ErrModelMissing = errors.New("model missing")
)
