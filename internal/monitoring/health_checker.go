// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package monitoring probes the summarizer backend for the web console's
// health endpoint.
package monitoring

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"pdf-summarizer/internal/observability"
)

const maxRecentChecks = 10

// HealthChecker tracks whether the backend answers HTTP requests
type HealthChecker struct {
	target     string
	httpClient *http.Client
	observer   *observability.StandardObserver

	// Health check configuration
	config *HealthCheckConfig

	status *PathHealthStatus

	// Thread safety
	mu sync.Mutex
}

// HealthCheckConfig configures health check behavior
type HealthCheckConfig struct {
	// PathTestTimeout bounds a single probe
	PathTestTimeout time.Duration
	// HealthCheckInterval is how long a result is reused before probing again
	HealthCheckInterval time.Duration
}

// PathHealthStatus tracks the health of the backend
type PathHealthStatus struct {
	PathName            string
	IsHealthy           bool
	LastCheckTime       time.Time
	LastError           error
	SuccessfulChecks    int
	FailedChecks        int
	AverageResponseTime time.Duration

	// Recent check history
	RecentChecks []HealthCheckResult
}

// HealthCheckResult represents a single health check result
type HealthCheckResult struct {
	Timestamp    time.Time
	Success      bool
	StatusCode   int
	ResponseTime time.Duration
	Error        error
}

func getDefaultHealthCheckConfig() *HealthCheckConfig {
	return &HealthCheckConfig{
		PathTestTimeout:     3 * time.Second,
		HealthCheckInterval: 15 * time.Second,
	}
}

// NewHealthChecker creates a checker for the backend at target. A nil config
// uses the defaults and a nil client uses http.DefaultClient.
func NewHealthChecker(target string, httpClient *http.Client, observer *observability.StandardObserver, config *HealthCheckConfig) *HealthChecker {
	if config == nil {
		config = getDefaultHealthCheckConfig()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HealthChecker{
		target:     target,
		httpClient: httpClient,
		observer:   observer,
		config:     config,
		status: &PathHealthStatus{
			PathName:     "backend",
			RecentChecks: make([]HealthCheckResult, 0, maxRecentChecks),
		},
	}
}

// Check returns the cached result when it is recent enough, otherwise probes
// the backend
func (hc *HealthChecker) Check(ctx context.Context) HealthCheckResult {
	hc.mu.Lock()
	if n := len(hc.status.RecentChecks); n > 0 {
		last := hc.status.RecentChecks[n-1]
		if time.Since(last.Timestamp) < hc.config.HealthCheckInterval {
			hc.mu.Unlock()
			return last
		}
	}
	hc.mu.Unlock()

	return hc.CheckBackendHealth(ctx)
}

// CheckBackendHealth probes the backend. Any HTTP response counts as healthy
// since the base URL is not required to serve anything.
func (hc *HealthChecker) CheckBackendHealth(ctx context.Context) HealthCheckResult {
	start := time.Now()
	result := HealthCheckResult{Timestamp: start}

	// Create timeout context
	checkCtx, cancel := context.WithTimeout(ctx, hc.config.PathTestTimeout)
	defer cancel()

	statusCode, err := hc.probe(checkCtx)

	result.ResponseTime = time.Since(start)
	result.StatusCode = statusCode
	result.Success = err == nil
	result.Error = err

	hc.updatePathHealth(result)

	hc.observer.LogOperation(observability.StandardObservabilityData{
		Component:  "health_checker",
		Operation:  "backend_check",
		Success:    result.Success,
		DurationMs: result.ResponseTime.Milliseconds(),
		Error:      getErrorString(err),
		Metadata:   map[string]interface{}{"target": hc.target, "status_code": statusCode},
	})

	return result
}

func (hc *HealthChecker) probe(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.target, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid backend url: %w", err)
	}
	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

func (hc *HealthChecker) updatePathHealth(result HealthCheckResult) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	status := hc.status
	status.LastCheckTime = result.Timestamp
	status.IsHealthy = result.Success
	status.LastError = result.Error
	if result.Success {
		status.SuccessfulChecks++
	} else {
		status.FailedChecks++
	}

	status.RecentChecks = append(status.RecentChecks, result)
	if len(status.RecentChecks) > maxRecentChecks {
		status.RecentChecks = status.RecentChecks[len(status.RecentChecks)-maxRecentChecks:]
	}

	var total time.Duration
	for _, check := range status.RecentChecks {
		total += check.ResponseTime
	}
	status.AverageResponseTime = total / time.Duration(len(status.RecentChecks))
}

// Status returns a copy of the tracked health
func (hc *HealthChecker) Status() PathHealthStatus {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	status := *hc.status
	status.RecentChecks = append([]HealthCheckResult(nil), hc.status.RecentChecks...)
	return status
}

// Summary is the JSON shape reported by /health
func (hc *HealthChecker) Summary(ctx context.Context) map[string]interface{} {
	result := hc.Check(ctx)
	status := hc.Status()

	summary := map[string]interface{}{
		"target":           hc.target,
		"reachable":        result.Success,
		"status_code":      result.StatusCode,
		"response_time_ms": result.ResponseTime.Milliseconds(),
		"checked_at":       result.Timestamp.UTC().Format(time.RFC3339),
		"successful":       status.SuccessfulChecks,
		"failed":           status.FailedChecks,
	}
	if result.Error != nil {
		summary["error"] = result.Error.Error()
	}
	return summary
}

func getErrorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
