// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pdf-summarizer/internal/upload"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes used as the "outcome" label
const (
	outcomeSuccess    = "success"
	outcomeValidation = "validation_error"
	outcomeServer     = "server_error"
	outcomeTransport  = "transport_error"
	outcomeBusy       = "busy"
	outcomeMalformed  = "malformed_request"
	outcomeOther      = "error"
)

// errMalformedForm marks a POST /upload body that is not a readable multipart form
var errMalformedForm = errors.New("malformed multipart form")

type metrics struct {
	registry *prometheus.Registry
	uploads  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfsum",
			Name:      "uploads_total",
			Help:      "Uploads handled by the web console, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfsum",
			Name:      "backend_request_duration_seconds",
			Help:      "Time spent waiting for the summarizer backend.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.uploads, m.duration)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) recordOutcome(err error) {
	m.uploads.WithLabelValues(outcome(err)).Inc()
}

// instrument times every backend call made through uploader
func (m *metrics) instrument(uploader upload.Uploader) upload.Uploader {
	return instrumentedUploader{next: uploader, duration: m.duration}
}

type instrumentedUploader struct {
	next     upload.Uploader
	duration *prometheus.HistogramVec
}

func (u instrumentedUploader) Upload(ctx context.Context, file *upload.SelectedFile) (*upload.Result, error) {
	start := time.Now()
	result, err := u.next.Upload(ctx, file)
	u.duration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	return result, err
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}

	var validationErr *upload.ValidationError
	var serverErr *upload.ServerError
	var transportErr *upload.TransportError
	switch {
	case errors.Is(err, upload.ErrUploadInProgress):
		return outcomeBusy
	case errors.Is(err, errMalformedForm):
		return outcomeMalformed
	case errors.As(err, &validationErr):
		return outcomeValidation
	case errors.As(err, &serverErr):
		return outcomeServer
	case errors.As(err, &transportErr):
		return outcomeTransport
	default:
		return outcomeOther
	}
}
