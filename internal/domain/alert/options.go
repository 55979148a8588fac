package alert

import "github.com/jonboulle/clockwork"

// Option applies a configuration option to the cooldown suppressor.
type Option func(*cooldown)

// WithMaxKeys bounds the number of tracked keys. When full, the oldest key
// is evicted. maxKeys <= 0 disables the bound.
func WithMaxKeys(maxKeys int) Option {
	return func(c *cooldown) {
		c.maxKeys = maxKeys
	}
}

// WithClock replaces the wall clock, e.g. with a fake clock in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *cooldown) {
		if clock != nil {
			c.clock = clock
		}
	}
}
