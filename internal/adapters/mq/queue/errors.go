package queue

import "errors"

// Sentinel enqueue failures.
var (
	ErrFull   = errors.New("alert queue full")
	ErrClosed = errors.New("alert queue closed")
)
