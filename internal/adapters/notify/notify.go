// Package notify delivers alerts to external destinations.
package notify

import (
	"context"
	"errors"

	"github.com/okian/disasterscope/internal/domain/alert"
)

// Delivery results recorded per notifier.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Sentinel errors.
var (
	ErrNoURLs         = errors.New("no notification urls")
	ErrNotConnected   = errors.New("mqtt client not connected")
	ErrPublishTimeout = errors.New("mqtt publish timeout")
)

// Notifier sends an alert to one destination.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a alert.Alert) error
}
