// Package config defines the process configuration for Skywise.
// Configuration is loaded once at startup and is immutable thereafter;
// components receive only the sub-structs they need.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or invalid format fails startup.
package config

import (
	"time"

	"skywise/internal/types"
)

// SecretString is an alias for types.SecretString so provider API keys are
// redacted wherever the config is printed.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"skywise"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Weather       WeatherConfig
	Narrative     NarrativeConfig
	Advisory      AdvisoryConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	AWS           AWSConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s" validate:"gt=0"`
}

// WeatherConfig configures the current-conditions provider (OpenWeatherMap).
type WeatherConfig struct {
	APIKey  SecretString  `envconfig:"WEATHER_API_KEY" validate:"required"`
	BaseURL string        `envconfig:"WEATHER_BASE_URL" default:"https://api.openweathermap.org" validate:"required,url"`
	Units   string        `envconfig:"WEATHER_UNITS" default:"metric" validate:"oneof=metric"`
	Timeout time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s" validate:"gt=0"`

	// DefaultVisibility is used when the provider omits visibility (meters).
	DefaultVisibility float64 `envconfig:"WEATHER_DEFAULT_VISIBILITY" default:"10000" validate:"gt=0"`

	// The current-conditions endpoint carries no UV reading. When enabled,
	// UVIndexFallback is reported as uv_index.
	UVIndexEnabled  bool    `envconfig:"WEATHER_UV_INDEX_ENABLED" default:"true"`
	UVIndexFallback float64 `envconfig:"WEATHER_UV_INDEX_FALLBACK" default:"7" validate:"gte=0"`
}

// NarrativeConfig configures the generative-text provider (Gemini).
type NarrativeConfig struct {
	APIKey  SecretString  `envconfig:"NARRATIVE_API_KEY" validate:"required"`
	BaseURL string        `envconfig:"NARRATIVE_BASE_URL" default:"https://generativelanguage.googleapis.com" validate:"required,url"`
	Model   string        `envconfig:"NARRATIVE_MODEL" default:"gemini-1.5-flash" validate:"required"`
	Timeout time.Duration `envconfig:"NARRATIVE_TIMEOUT" default:"30s" validate:"gt=0"`
}

// AdvisoryConfig bounds batch advisory requests.
type AdvisoryConfig struct {
	BatchMax         int `envconfig:"ADVISORY_BATCH_MAX" default:"10" validate:"min=1,max=50"`
	BatchConcurrency int `envconfig:"ADVISORY_BATCH_CONCURRENCY" default:"4" validate:"min=1,max=16"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ObservabilityConfig selects the metrics backend.
type ObservabilityConfig struct {
	MetricsBackend  string `envconfig:"METRICS_BACKEND" default:"none" validate:"oneof=none prometheus cloudwatch"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Skywise"`
}

// AWSConfig holds regional configuration for SSM and CloudWatch.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// BuildInfo holds build-time metadata injected via ldflags.
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
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
