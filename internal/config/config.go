// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file and environment variables.
// - Validation errors wrap ErrInvalidConfig; loading errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported history store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects console encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, receives a JSON copy of every log record.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// KnowledgeBasePath overrides the embedded condition table with a YAML file.
	KnowledgeBasePath string `koanf:"knowledge_base_path"`

	// TopN caps the number of scored conditions returned per prediction.
	TopN int `koanf:"top_n"`

	// MaxSymptoms caps the length of the symptoms list accepted by /api/predict.
	MaxSymptoms int `koanf:"max_symptoms"`

	// StoreDriver selects the history store: memory, sqlite, mysql, postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the driver-specific data source (file path or connection URL).
	StoreDSN string `koanf:"store_dsn"`

	// StorePoolSize bounds open connections for pooled drivers.
	StorePoolSize int `koanf:"store_pool_size"`

	// StoreTimeoutMS bounds each store round-trip.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// StoreInitSchema creates the history table on start when missing.
	StoreInitSchema bool `koanf:"store_init_schema"`

	// MemoryStoreCapacity bounds the in-memory store; oldest entries are evicted.
	MemoryStoreCapacity int `koanf:"memory_store_capacity"`

	// HistoryLimit is the default and maximum page size of GET /api/history.
	HistoryLimit int `koanf:"history_limit"`

	// MaxQueryLength caps the length of a history query in runes.
	MaxQueryLength int `koanf:"max_query_length"`

	// OverpassURL is the interpreter endpoint nearby searches are forwarded to.
	OverpassURL string `koanf:"overpass_url"`

	// OverpassTimeoutMS bounds the upstream call.
	OverpassTimeoutMS int `koanf:"overpass_timeout_ms"`

	// OverpassAmenities lists the amenity tags matched by nearby searches.
	OverpassAmenities []string `koanf:"overpass_amenities"`

	// OverpassMaxResponseBytes caps the relayed upstream body.
	OverpassMaxResponseBytes int64 `koanf:"overpass_max_response_bytes"`

	// DefaultRadiusMeters applies when a nearby request omits radiusMeters.
	DefaultRadiusMeters int `koanf:"default_radius_meters"`

	// MaxRadiusMeters rejects larger nearby searches.
	MaxRadiusMeters int `koanf:"max_radius_meters"`

	// CORSAllowedOrigins lists origins allowed to call the API ("*" for any).
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// SlowRequestMS marks requests logged at WARN.
	SlowRequestMS int `koanf:"slow_request_ms"`

	// WatchConfig reloads log_level when the config file changes.
	WatchConfig bool `koanf:"watch_config"`

	// MetricsEnabled turns Prometheus recording on; /healthz still serves
	// the exposition when it is off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshMS is how often memory, goroutine and GC gauges are sampled.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		Addr:                     ":5000",
		TopN:                     5,
		MaxSymptoms:              100,
		StoreDriver:              DriverSQLite,
		StoreDSN:                 "medical_tracker.db",
		StorePoolSize:            5,
		StoreTimeoutMS:           5000,
		StoreInitSchema:          true,
		MemoryStoreCapacity:      10_000,
		HistoryLimit:             50,
		MaxQueryLength:           512,
		OverpassURL:              "https://overpass-api.de/api/interpreter",
		OverpassTimeoutMS:        25_000,
		OverpassAmenities:        []string{"clinic", "doctors", "hospital", "pharmacy"},
		OverpassMaxResponseBytes: 16 << 20,
		DefaultRadiusMeters:      5000,
		MaxRadiusMeters:          50_000,
		CORSAllowedOrigins:       []string{"*"},
		SlowRequestMS:            100,
		MetricsEnabled:           true,
		MetricsRefreshMS:         10_000,
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// OverpassTimeout returns OverpassTimeoutMS as a duration.
func (c *Config) OverpassTimeout() time.Duration {
	return time.Duration(c.OverpassTimeoutMS) * time.Millisecond
}

// SlowRequest returns SlowRequestMS as a duration.
func (c *Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate checks invariants the service relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.TopN < 1:
		return invalid("top_n must be positive")
	case c.MaxSymptoms < 1:
		return invalid("max_symptoms must be positive")
	case c.HistoryLimit < 1:
		return invalid("history_limit must be positive")
	case c.MaxQueryLength < 1:
		return invalid("max_query_length must be positive")
	case c.StoreTimeoutMS < 1:
		return invalid("store_timeout_ms must be positive")
	case c.OverpassTimeoutMS < 1:
		return invalid("overpass_timeout_ms must be positive")
	case strings.TrimSpace(c.OverpassURL) == "":
		return invalid("overpass_url must not be empty")
	case len(c.OverpassAmenities) == 0:
		return invalid("overpass_amenities must not be empty")
	case c.DefaultRadiusMeters < 1:
		return invalid("default_radius_meters must be positive")
	case c.MaxRadiusMeters < c.DefaultRadiusMeters:
		return invalid("max_radius_meters must be >= default_radius_meters")
	case c.MetricsRefreshMS < 1:
		return invalid("metrics_refresh_ms must be positive")
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverMySQL, DriverPostgres:
		if strings.TrimSpace(c.StoreDSN) == "" {
			return invalid("store_dsn must not be empty for driver " + c.StoreDriver)
		}
	default:
		return invalid("unknown store_driver " + c.StoreDriver)
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
