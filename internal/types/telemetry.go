package types

// Telemetry metric names. All collectors use these constants so that the
// Prometheus and CloudWatch backends report the same series.
const (
	// Metric Names
	MetricAPILatency         = "APILatency"
	MetricAPIRequestCount    = "APIRequestCount"
	MetricAdvisoryOutcome    = "AdvisoryOutcome"
	MetricExternalAPIFailure = "ExternalAPIFailure"

	// Dimension Keys
	DimMethod   = "Method"
	DimEndpoint = "Endpoint"
	DimStatus   = "Status"
	DimOutcome  = "Outcome"
	DimProvider = "Provider"

	// Metric Namespace
	MetricNamespace = "Skywise"
)
