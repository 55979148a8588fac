package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "DISASTERSCOPE_"

// FileEnv names the variable holding an optional YAML config path.
const FileEnv = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DISASTERSCOPE_CONFIG is set
//  3. env (prefix DISASTERSCOPE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// DISASTERSCOPE_ALERT_COOLDOWN -> alert_cooldown (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.NotifyURLs = splitList(cfg.NotifyURLs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.NearbyRadiusKm <= 0:
		return invalid("nearby_radius_km must be positive, got %v", c.NearbyRadiusKm)
	case c.AlertThreshold < 0 || c.AlertThreshold > 100:
		return invalid("alert_threshold must be between 0 and 100, got %v", c.AlertThreshold)
	case c.AlertQueueSize <= 0:
		return invalid("alert_queue_size must be positive, got %d", c.AlertQueueSize)
	case c.AlertWorkers <= 0:
		return invalid("alert_workers must be positive, got %d", c.AlertWorkers)
	case c.AlertCooldown < 0:
		return invalid("alert_cooldown must not be negative")
	case c.CacheTTL < 0:
		return invalid("cache_ttl must not be negative")
	case c.RateLimitRPS < 0:
		return invalid("rate_limit_rps must not be negative")
	case c.RateLimitRPS > 0 && c.RateLimitBurst < 1:
		return invalid("rate_limit_burst must be at least 1 when rate limiting is enabled")
	case c.EarthquakeModel == "" || c.FloodModel == "" || c.WildfireModel == "":
		return invalid("model file names must not be empty")
	case c.MQTTBroker != "" && c.MQTTTopic == "":
		return invalid("mqtt_topic must be set when mqtt_broker is configured")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
