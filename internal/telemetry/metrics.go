// Package telemetry records request, advisory and provider-failure metrics.
// The API uses one Collector chosen by METRICS_BACKEND: Prometheus
// (scraped from /metrics), CloudWatch (PutMetricData), or Noop.
package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skywise/internal/types"
)

// Collector is the union of the metrics the HTTP chassis, the advisory
// service, and the provider clients emit.
type Collector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
	RecordAdvisory(ctx context.Context, outcome types.AdvisoryOutcome)
	RecordExternalFailure(provider string, code types.ErrorCode)
}

// Compile-time interface checks.
var (
	_ Collector = NoopCollector{}
	_ Collector = (*PrometheusCollector)(nil)
	_ Collector = (*CloudWatchCollector)(nil)
)

// NoopCollector discards every metric.
type NoopCollector struct{}

func (NoopCollector) RecordRequest(string, string, string, time.Duration) {}
func (NoopCollector) RecordAdvisory(context.Context, types.AdvisoryOutcome) {}
func (NoopCollector) RecordExternalFailure(string, types.ErrorCode) {}

// PrometheusCollector registers its series on a private registry so several
// collectors (one per test) can coexist.
type PrometheusCollector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewPrometheusCollector creates a collector whose metric names are prefixed
// with the lowercased namespace.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	ns := strings.ToLower(namespace)
	if ns == "" {
		ns = strings.ToLower(types.MetricNamespace)
	}

	c := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "api_requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		}, []string{"method", "endpoint", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "advisory_outcomes_total",
			Help:      "Advisory requests, by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "external_api_failures_total",
			Help:      "Failed calls to weather and narrative providers.",
		}, []string{"provider", "code"}),
	}

	c.registry.MustRegister(c.requests, c.latency, c.outcomes, c.failures)
	return c
}

// Registry returns the private registry, for tests and custom exposition.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *PrometheusCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	c.requests.WithLabelValues(method, endpoint, status).Inc()
	c.latency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordAdvisory(_ context.Context, outcome types.AdvisoryOutcome) {
	c.outcomes.WithLabelValues(string(outcome)).Inc()
}

func (c *PrometheusCollector) RecordExternalFailure(provider string, code types.ErrorCode) {
	c.failures.WithLabelValues(provider, string(code)).Inc()
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// cloudWatchPutTimeout bounds metric writes issued outside a request context.
const cloudWatchPutTimeout = 2 * time.Second

// CloudWatchCollector emits each metric synchronously with PutMetricData.
// Write failures are logged and otherwise ignored.
type CloudWatchCollector struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchCollector creates a collector publishing under namespace.
func NewCloudWatchCollector(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCollector {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchCollector{client: client, namespace: namespace, logger: logger}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (m *CloudWatchCollector) put(ctx context.Context, data ...cwtypes.MetricDatum) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cloudWatchPutTimeout)
	defer cancel()

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Error("failed to put metric data",
			"error", err.Error(),
			"metric", aws.ToString(data[0].MetricName),
		)
	}
}

// RecordRequest emits APIRequestCount and APILatency (milliseconds) in one call.
func (m *CloudWatchCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.put(context.Background(),
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimMethod, method),
				dim(types.DimEndpoint, endpoint),
				dim(types.DimStatus, status),
			},
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimMethod, method),
				dim(types.DimEndpoint, endpoint),
			},
		},
	)
}

func (m *CloudWatchCollector) RecordAdvisory(ctx context.Context, outcome types.AdvisoryOutcome) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricAdvisoryOutcome),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{dim(types.DimOutcome, string(outcome))},
	})
}

func (m *CloudWatchCollector) RecordExternalFailure(provider string, code types.ErrorCode) {
	m.put(context.Background(), cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricExternalAPIFailure),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			dim(types.DimProvider, provider),
			dim(types.DimStatus, string(code)),
		},
	})
}
