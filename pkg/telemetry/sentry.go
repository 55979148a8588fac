// Package telemetry reports errors and recovered panics to Sentry.
// Every function is a no-op until Init has been called with a DSN.
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

var enabled atomic.Bool //nolint:gochecknoglobals // process-wide reporter state

// Option configures Init.
type Option func(*sentry.ClientOptions)

// WithEnvironment tags events with a deployment environment.
func WithEnvironment(env string) Option {
	return func(o *sentry.ClientOptions) {
		if env != "" {
			o.Environment = env
		}
	}
}

// WithRelease tags events with a release identifier.
func WithRelease(release string) Option {
	return func(o *sentry.ClientOptions) {
		if release != "" {
			o.Release = release
		}
	}
}

// WithTransport replaces the HTTP transport, used by tests.
func WithTransport(t sentry.Transport) Option {
	return func(o *sentry.ClientOptions) {
		o.Transport = t
	}
}

// Init configures the Sentry client. An empty DSN without a custom transport
// leaves reporting disabled and returns nil.
func Init(dsn string, opts ...Option) error {
	co := sentry.ClientOptions{
		Dsn:              dsn,
		SampleRate:       1.0,
		AttachStacktrace: true,
		Environment:      "production",
		ServerName:       "",
	}
	for _, opt := range opts {
		opt(&co)
	}
	if co.Dsn == "" && co.Transport == nil {
		enabled.Store(false)
		return nil
	}
	co.BeforeSend = func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		// request coordinates and hostnames stay local
		event.User = sentry.User{}
		event.ServerName = ""
		event.Request = nil
		return event
	}
	if err := sentry.Init(co); err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	enabled.Store(true)
	return nil
}

// Enabled reports whether events are being sent.
func Enabled() bool { return enabled.Load() }

// CaptureError reports err tagged with the component that produced it.
func CaptureError(err error, component string) {
	if err == nil || !enabled.Load() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetFingerprint([]string{component, fmt.Sprintf("%T", err)})
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func CapturePanic(v any, component string) {
	if !enabled.Load() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetLevel(sentry.LevelFatal)
		sentry.CurrentHub().Recover(v)
	})
}

// Flush waits up to timeout for buffered events to be sent.
func Flush(timeout time.Duration) bool {
	if !enabled.Load() {
		return true
	}
	return sentry.Flush(timeout)
}
