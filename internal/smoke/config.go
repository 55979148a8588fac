// Package smoke drives a running server with concurrent random-coordinate
// predictions and checks every response for range and consistency errors.
package smoke

import (
	"errors"
	"net/http"
	"time"
)

// ErrFailed is returned when any request failed or any check was violated.
var ErrFailed = errors.New("smoke test failed")

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Requests int           // Number of random predictions
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // Per-request timeout
	Seed     uint64        // Coordinate generator seed; 0 picks one from the clock
	Client   *http.Client  // Optional client, e.g. with a mock transport
}

// Stats summarizes a run.
type Stats struct {
	Requests   int
	Succeeded  int
	Failed     int
	Invalid    int // invalid-input probes that correctly returned 400
	Violations []string
	Duration   time.Duration
}

// OK reports whether the run found no problem.
func (s *Stats) OK() bool {
	return s.Failed == 0 && len(s.Violations) == 0
}
