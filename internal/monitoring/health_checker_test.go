// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package monitoring

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pdf-summarizer/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_ReachableBackend(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var logs bytes.Buffer
	observer := observability.NewStandardObserver(observability.ObservabilityMetrics, &logs)
	checker := NewHealthChecker(server.URL, nil, observer, nil)

	result := checker.CheckBackendHealth(context.Background())

	assert.True(t, result.Success, "any HTTP answer means reachable")
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Contains(t, logs.String(), `"operation":"backend_check"`)

	status := checker.Status()
	assert.True(t, status.IsHealthy)
	assert.Equal(t, 1, status.SuccessfulChecks)
	assert.Len(t, status.RecentChecks, 1)
}

func TestHealthChecker_UnreachableBackend(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	checker := NewHealthChecker(url, nil, nil, nil)
	summary := checker.Summary(context.Background())

	assert.Equal(t, false, summary["reachable"])
	assert.Contains(t, summary, "error")
	assert.Equal(t, 1, checker.Status().FailedChecks)
}

func TestHealthChecker_CachesRecentResult(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	checker := NewHealthChecker(server.URL, nil, nil, &HealthCheckConfig{
		PathTestTimeout:     time.Second,
		HealthCheckInterval: time.Hour,
	})

	first := checker.Check(context.Background())
	second := checker.Check(context.Background())

	require.True(t, first.Success)
	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestHealthChecker_KeepsBoundedHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	checker := NewHealthChecker(server.URL, nil, nil, nil)
	for i := 0; i < maxRecentChecks+5; i++ {
		checker.CheckBackendHealth(context.Background())
	}

	status := checker.Status()
	assert.Len(t, status.RecentChecks, maxRecentChecks)
	assert.Equal(t, maxRecentChecks+5, status.SuccessfulChecks)
	assert.Greater(t, status.AverageResponseTime, time.Duration(0))
}
