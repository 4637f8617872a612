// Package config defines the process configuration for AirAware. It is loaded
// once at startup and treated as immutable afterwards.
//
// Values are resolved with this priority:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// A missing required value or an invalid format aborts startup.
package config

import (
	"time"

	"airaware/internal/types"
)

// SecretString is an alias for types.SecretString so API keys are never
// printed by accident.
type SecretString = types.SecretString

// Config is the top-level configuration. Sub-components receive only the
// section they need.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"airaware-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Upstream UpstreamConfig
	Cache    CacheConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// RateLimitPerWindow of 0 disables per-client rate limiting.
	RateLimitPerWindow int           `envconfig:"RATE_LIMIT_PER_WINDOW" default:"120" validate:"gte=0"`
	RateLimitWindow    time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m" validate:"gt=0"`

	// TrustedProxyHops counts the reverse proxies in front of the server that
	// append to X-Forwarded-For. 0 keys clients by the socket address only.
	TrustedProxyHops int `envconfig:"TRUSTED_PROXY_HOPS" default:"0" validate:"gte=0"`
}

// UpstreamConfig holds the third-party data sources. Weather and fire data
// are optional and switch off when their key is empty.
type UpstreamConfig struct {
	OpenMeteoURL   string        `envconfig:"OPEN_METEO_URL" default:"https://air-quality-api.open-meteo.com" validate:"required,url"`
	OpenWeatherURL string        `envconfig:"OPENWEATHER_URL" default:"https://api.openweathermap.org" validate:"required,url"`
	OpenWeatherKey SecretString  `envconfig:"OPENWEATHER_API_KEY"`
	FIRMSURL       string        `envconfig:"FIRMS_URL" default:"https://firms.modaps.eosdis.nasa.gov" validate:"required,url"`
	FIRMSMapKey    SecretString  `envconfig:"FIRMS_MAP_KEY"`
	FIRMSSource    string        `envconfig:"FIRMS_SOURCE" default:"VIIRS_SNPP_NRT"`
	NominatimURL   string        `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org" validate:"required,url"`
	Timeout        time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`
}

// CacheConfig selects the response cache. An empty RedisAddr uses the
// in-process cache.
type CacheConfig struct {
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword SecretString  `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	TTL           time.Duration `envconfig:"CACHE_TTL" default:"3h" validate:"gt=0"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
