package service

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/disasterscope/internal/adapters/mq/worker"
	"github.com/okian/disasterscope/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRadius sets the nearby-count radius in kilometers.
func WithRadius(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.radiusKm = km
		}
	}
}

// WithAlertThreshold sets the overall probability that triggers an alert.
func WithAlertThreshold(p float64) Option {
	return func(s *Service) { s.alertThreshold = p }
}

// WithRecipient sets the alert recipient.
func WithRecipient(r string) Option {
	return func(s *Service) {
		if r != "" {
			s.recipient = r
		}
	}
}

// WithAlertCooldown sets how long a repeated alert is suppressed.
// Zero disables suppression.
func WithAlertCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.cooldown = d
		}
	}
}

// WithQueueSize sets the alert queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of alert delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithNotifier sets the alert destination. The default logs alerts.
func WithNotifier(n worker.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithNotifyTimeout bounds one delivery attempt.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithCacheTTL caches predictions per coordinate rounded to four decimals.
// Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cacheTTL = ttl }
}

// WithClock replaces the wall clock, e.g. with a fake in tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
