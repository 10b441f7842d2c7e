package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// healthCheckTimeout bounds the whole probe run. A probe that has not
// finished by then is reported unhealthy.
const healthCheckTimeout = 2 * time.Second

// HealthProbe checks one dependency the service needs to answer requests.
type HealthProbe interface {
	// Name identifies the probe in the response, e.g. "weather".
	Name() string

	// Check returns an error when the dependency is unhealthy. It must
	// respect the context deadline.
	Check(ctx context.Context) error
}

// BreakerSource exposes the circuit breaker of an upstream client.
type BreakerSource interface {
	Name() string
	State() gobreaker.State
}

// BreakerProbe reports an upstream unhealthy while its circuit breaker is
// open. It never calls the upstream itself.
type BreakerProbe struct {
	Source BreakerSource
}

// Name returns the breaker name.
func (p BreakerProbe) Name() string {
	return p.Source.Name()
}

// Check fails while the breaker is open.
func (p BreakerProbe) Check(ctx context.Context) error {
	if state := p.Source.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", state)
	}
	return ctx.Err()
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

type probeResult struct {
	index int
	err   error
}

// runProbe calls p.Check, converting a panic into an error.
func runProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("probe panicked: %v", rvr)
		}
	}()
	return p.Check(ctx)
}

// HandleHealth runs every registered probe concurrently under
// healthCheckTimeout. It answers 200 when all probes pass and 503 when any
// fails, panics or times out.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	probes := s.HealthProbes
	if len(probes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: statusHealthy})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	// Buffered so late probes never block after the handler returns.
	results := make(chan probeResult, len(probes))
	for i, p := range probes {
		go func() {
			results <- probeResult{index: i, err: runProbe(ctx, p)}
		}()
	}

	errs := make([]error, len(probes))
	finished := make([]bool, len(probes))
collect:
	for range probes {
		select {
		case res := <-results:
			errs[res.index] = res.err
			finished[res.index] = true
		case <-ctx.Done():
			break collect
		}
	}

	resp := healthResponse{Status: statusHealthy, Components: make(map[string]componentStatus, len(probes))}
	code := http.StatusOK
	for i, p := range probes {
		cs := componentStatus{Status: statusHealthy}
		switch {
		case !finished[i]:
			cs = componentStatus{Status: statusUnhealthy, Message: "health check timed out"}
		case errs[i] != nil:
			cs = componentStatus{Status: statusUnhealthy, Message: errs[i].Error()}
		}
		if cs.Status != statusHealthy {
			resp.Status = statusUnhealthy
			code = http.StatusServiceUnavailable
		}
		resp.Components[p.Name()] = cs
	}

	JSON(w, r, code, resp)
}
