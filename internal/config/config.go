// Package config defines service configuration and its defaults.
package config

import (
	"path/filepath"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// Model artifacts. Relative file names are resolved against ModelDir.
	ModelDir        string `koanf:"model_dir"`
	EarthquakeModel string `koanf:"earthquake_model"`
	FloodModel      string `koanf:"flood_model"`
	WildfireModel   string `koanf:"wildfire_model"`

	// Reference datasets. Relative file names are resolved against DataDir.
	DataDir        string `koanf:"data_dir"`
	EarthquakeData string `koanf:"earthquake_data"`
	FloodData      string `koanf:"flood_data"`
	WildfireData   string `koanf:"wildfire_data"`

	// NearbyRadiusKm is the radius used for nearby-event counts.
	NearbyRadiusKm float64 `koanf:"nearby_radius_km"`

	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string `koanf:"cors_origin"`

	// RateLimitRPS limits /predict requests per second; 0 disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// CacheTTL keeps predictions per rounded coordinate; 0 disables the cache.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	AlertThreshold float64       `koanf:"alert_threshold"`
	AlertRecipient string        `koanf:"alert_recipient"`
	AlertCooldown  time.Duration `koanf:"alert_cooldown"`
	AlertQueueSize int           `koanf:"alert_queue_size"`
	AlertWorkers   int           `koanf:"alert_workers"`

	// NotifyURLs are shoutrrr service URLs; empty means log-only delivery.
	NotifyURLs    []string      `koanf:"notify_urls"`
	NotifyTimeout time.Duration `koanf:"notify_timeout"`

	// MQTT alert publishing is enabled when MQTTBroker is set.
	MQTTBroker   string `koanf:"mqtt_broker"`
	MQTTTopic    string `koanf:"mqtt_topic"`
	MQTTClientID string `koanf:"mqtt_client_id"`

	// SentryDSN enables error reporting when non-empty.
	SentryDSN         string `koanf:"sentry_dsn"`
	SentryEnvironment string `koanf:"sentry_environment"`
	SentryRelease     string `koanf:"sentry_release"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":5000",
		ModelDir:          "models",
		EarthquakeModel:   "earthquake_model.json",
		FloodModel:        "flood_model.json",
		WildfireModel:     "wildfire_model.json",
		DataDir:           "data",
		EarthquakeData:    "earthquakes.csv",
		FloodData:         "floods.csv",
		WildfireData:      "wildfires.csv",
		NearbyRadiusKm:    100,
		CORSOrigin:        "*",
		RateLimitRPS:      0,
		RateLimitBurst:    20,
		CacheTTL:          0,
		AlertThreshold:    70,
		AlertRecipient:    "1945",
		AlertCooldown:     10 * time.Minute,
		AlertQueueSize:    1024,
		AlertWorkers:      2,
		NotifyTimeout:     10 * time.Second,
		MQTTTopic:         "disasterscope/alerts",
		MQTTClientID:      "disasterscope",
		SentryEnvironment: "production",
		ShutdownTimeout:   10 * time.Second,
	}
}

// ModelPath resolves a model file name against ModelDir.
func (c *Config) ModelPath(name string) string {
	return resolve(c.ModelDir, name)
}

// DataPath resolves a dataset file name against DataDir.
func (c *Config) DataPath(name string) string {
	return resolve(c.DataDir, name)
}

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
