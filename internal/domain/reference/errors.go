package reference

import "errors"

// Sentinel errors for reference tables.
var (
	ErrNoHeader        = errors.New("csv has no header row")
	ErrColumnNotFound  = errors.New("column not found")
	ErrNonNumericValue = errors.New("non-numeric value")
	ErrNoValues        = errors.New("no numeric values")
)
