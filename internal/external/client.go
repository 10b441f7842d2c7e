// Package external is the boundary between Skywise and the third-party
// weather and generative-text APIs. Every outbound call goes through
// BaseClient, which applies circuit breaking, bounded retries with jittered
// backoff, request-id propagation, and mapping of transport failures to
// types.AppError.
package external

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"skywise/internal/types"

	"github.com/sony/gobreaker/v2"
)

// RetryPolicy configures the retry behavior for the BaseClient.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one. Zero means
	// a single attempt.
	MaxRetries int

	// MinWait is the shortest wait between attempts and the base of the
	// exponential backoff.
	MinWait time.Duration

	// MaxWait caps both the computed backoff and any Retry-After value the
	// provider sends, so one slow provider cannot hold a request past the
	// server's own timeout.
	MaxWait time.Duration
}

// DefaultRetryPolicy returns the policy used by provider clients unless the
// caller overrides it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    250 * time.Millisecond,
		MaxWait:    5 * time.Second,
	}
}

// FailureRecorder is notified once per Do call that ends in an error.
type FailureRecorder func(provider string, code types.ErrorCode)

// BaseClient wraps an *http.Client and a circuit breaker. OpenWeatherClient
// and GeminiClient hold one each, so a failing provider trips only its own
// breaker.
type BaseClient struct {
	// client performs the HTTP round trips. Its Timeout bounds a single
	// attempt; the request context bounds the whole Do call.
	client *http.Client

	// breaker counts transport errors, 429 and 5xx as failures.
	breaker *gobreaker.CircuitBreaker[*http.Response]

	retryPolicy RetryPolicy
	userAgent   string

	// sleepFn waits between attempts. Replaced in tests.
	sleepFn func(time.Duration)

	// onFailure, when set, receives every final failure. The app wires it
	// to telemetry.Collector.RecordExternalFailure.
	onFailure FailureRecorder
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep used between retries. Tests pass a no-op.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// WithFailureRecorder installs a hook invoked with the breaker name and the
// mapped error code whenever a request ultimately fails.
func WithFailureRecorder(fn FailureRecorder) BaseClientOption {
	return func(c *BaseClient) {
		c.onFailure = fn
	}
}

// NewBaseClient creates a BaseClient whose breaker trips after more than five
// consecutive failures and half-opens after 30 seconds.
func NewBaseClient(
	httpClient *http.Client,
	breakerName string,
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})
	return NewBaseClientWithBreaker(httpClient, cb, retryPolicy, userAgent, opts...)
}

// NewBaseClientWithBreaker creates a BaseClient around a caller-provided
// circuit breaker.
func NewBaseClientWithBreaker(
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker[*http.Response],
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	bc := &BaseClient{
		client:      httpClient,
		breaker:     breaker,
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		sleepFn:     time.Sleep,
	}

	for _, opt := range opts {
		opt(bc)
	}

	return bc
}

// Name returns the circuit breaker name, which doubles as the provider label
// in logs and metrics.
func (c *BaseClient) Name() string {
	return c.breaker.Name()
}

// State reports the breaker state. The health endpoint uses it to surface an
// open breaker without calling the provider.
func (c *BaseClient) State() gobreaker.State {
	return c.breaker.State()
}

// Do executes req against the provider and returns the first response that
// is neither 429 nor 5xx.
//
// Implementation details:
//   - The inbound request ID is forwarded in X-B3-TraceId and User-Agent is
//     set on every attempt.
//   - The body is buffered once and rewound before each attempt.
//   - Each attempt runs inside the circuit breaker. An open breaker ends the
//     call immediately without retrying.
//   - 429 and 5xx responses are retried up to MaxRetries times, waiting for
//     Retry-After when present and a jittered exponential backoff otherwise.
//   - A cancelled request context stops the retry loop.
//
// Responses below 500 other than 429, including 404, are returned as-is and
// the caller closes the body. Every other outcome is a *types.AppError.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if id := types.GetRequestID(req.Context()); id != "" {
		req.Header.Set(traceHeader, id)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	rewind, err := replayableBody(req)
	if err != nil {
		return nil, c.fail(types.NewAppError(types.ErrCodeInternalUnexpected, "failed to buffer request body", err))
	}

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		rewind()
		resp, err = c.breaker.Execute(func() (*http.Response, error) { return c.send(req) })
		if err == nil {
			return resp, nil
		}

		if breakerRejected(err) || attempt >= c.retryPolicy.MaxRetries {
			break
		}
		if ctxErr := req.Context().Err(); ctxErr != nil {
			err = ctxErr
			break
		}

		wait := c.computeBackoff(attempt, resp)
		closeBody(resp)
		c.sleepFn(wait)
	}

	appErr := c.mapError(resp, err)
	closeBody(resp)
	return nil, c.fail(appErr)
}

// traceHeader carries the inbound request ID to providers.
const traceHeader = "X-B3-TraceId"

// send performs one attempt. 429 and 5xx count as breaker failures but the
// response is kept so Retry-After and the status can be read.
func (c *BaseClient) send(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return resp, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	return resp, nil
}

// replayableBody buffers req.Body and returns a func that rewinds it before
// each attempt.
func replayableBody(req *http.Request) (func(), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return func() {}, nil
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() {
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
	}, nil
}

// breakerRejected reports whether err came from the breaker itself rather
// than from an attempt.
func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}

// fail reports err to the failure recorder and returns it.
func (c *BaseClient) fail(err *types.AppError) *types.AppError {
	if c.onFailure != nil {
		c.onFailure(c.breaker.Name(), err.Code)
	}
	return err
}

// computeBackoff honors Retry-After (seconds or HTTP-date) capped at MaxWait,
// otherwise returns a jittered exponential wait in [MinWait, MinWait*2^attempt].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				return min(wait, c.retryPolicy.MaxWait)
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(c.retryPolicy.MaxWait))

	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

// mapError translates transport-level failures into AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if breakerRejected(err) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("circuit breaker %q is open", c.breaker.Name()),
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(
				types.ErrCodeUpstreamRateLimited,
				"upstream rate limit exceeded",
				err,
			)
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d after retries", resp.StatusCode),
				err,
			)
		}
	}

	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"upstream request failed",
		err,
	)
}
