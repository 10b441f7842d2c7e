// Package app wires Skywise components from a loaded configuration. Both the
// API server and the advisor CLI build their object graph through it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"skywise/internal/advisory"
	"skywise/internal/config"
	"skywise/internal/external"
	"skywise/internal/telemetry"
)

// Metrics backends accepted by METRICS_BACKEND.
const (
	MetricsNone       = "none"
	MetricsPrometheus = "prometheus"
	MetricsCloudWatch = "cloudwatch"
)

// Components is the wired object graph.
type Components struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics telemetry.Collector

	// MetricsHandler is non-nil only for the Prometheus backend.
	MetricsHandler http.Handler

	Weather  *external.OpenWeatherClient
	Narrator *external.GeminiClient // nil when narratives are disabled
	Advisory *advisory.Service
}

// Options adjusts Build.
type Options struct {
	// DisableNarrative skips the Gemini client entirely.
	DisableNarrative bool

	// CloudWatch replaces the SDK client built from the default AWS config.
	CloudWatch telemetry.CloudWatchClient
}

// LoadConfig loads configuration, resolving *_SSM_PARAM references through
// SSM Parameter Store outside local mode.
func LoadConfig() (*config.Config, error) {
	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		provider = config.NewSSMProvider(os.Getenv("AWS_REGION"), os.Getenv("AWS_ENDPOINT_URL"))
	}
	return config.LoadConfig(provider)
}

// NewLogger returns a JSON slog.Logger writing to w at the named level.
// Unknown levels fall back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Build wires the metrics collector, provider clients and advisory service.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Components{Config: cfg, Logger: logger}

	if err := c.buildMetrics(ctx, opts); err != nil {
		return nil, err
	}

	recorder := external.WithFailureRecorder(c.Metrics.RecordExternalFailure)

	c.Weather = external.NewOpenWeatherClient(
		&http.Client{Timeout: cfg.Weather.Timeout},
		external.OpenWeatherConfig{
			APIKey:            cfg.Weather.APIKey.Unmask(),
			BaseURL:           cfg.Weather.BaseURL,
			Units:             cfg.Weather.Units,
			DefaultVisibility: cfg.Weather.DefaultVisibility,
			UVIndexEnabled:    cfg.Weather.UVIndexEnabled,
			UVIndexFallback:   cfg.Weather.UVIndexFallback,
			Logger:            logger,
		},
		recorder,
	)

	var narrator advisory.NarrativeGenerator
	if !opts.DisableNarrative {
		c.Narrator = external.NewGeminiClient(
			&http.Client{Timeout: cfg.Narrative.Timeout},
			external.GeminiConfig{
				APIKey:  cfg.Narrative.APIKey.Unmask(),
				BaseURL: cfg.Narrative.BaseURL,
				Model:   cfg.Narrative.Model,
				Logger:  logger,
			},
			recorder,
		)
		narrator = c.Narrator
	}

	c.Advisory = advisory.NewService(c.Weather, narrator, nil, c.Metrics, logger, advisory.Options{
		BatchMax:         cfg.Advisory.BatchMax,
		BatchConcurrency: cfg.Advisory.BatchConcurrency,
	})

	return c, nil
}

func (c *Components) buildMetrics(ctx context.Context, opts Options) error {
	obs := c.Config.Observability

	switch obs.MetricsBackend {
	case MetricsPrometheus:
		pc := telemetry.NewPrometheusCollector(obs.MetricNamespace)
		c.Metrics = pc
		c.MetricsHandler = pc.Handler()

	case MetricsCloudWatch:
		client := opts.CloudWatch
		if client == nil {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.Config.AWS.Region))
			if err != nil {
				return fmt.Errorf("loading AWS config for CloudWatch (region=%s): %w", c.Config.AWS.Region, err)
			}
			endpoint := c.Config.AWS.EndpointURL
			client = cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
				if endpoint != "" {
					o.BaseEndpoint = aws.String(endpoint)
				}
			})
		}
		c.Metrics = telemetry.NewCloudWatchCollector(client, obs.MetricNamespace, c.Logger)

	case MetricsNone, "":
		c.Metrics = telemetry.NoopCollector{}

	default:
		return fmt.Errorf("unknown metrics backend %q", obs.MetricsBackend)
	}
	return nil
}
