// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pdf-summarizer/internal/monitoring"
	"pdf-summarizer/internal/observability"
	"pdf-summarizer/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploaderFunc func(ctx context.Context, file *upload.SelectedFile) (*upload.Result, error)

func (f uploaderFunc) Upload(ctx context.Context, file *upload.SelectedFile) (*upload.Result, error) {
	return f(ctx, file)
}

type recordingUploader struct {
	mu     sync.Mutex
	names  []string
	bodies [][]byte
	result *upload.Result
	err    error
}

func (r *recordingUploader) Upload(ctx context.Context, file *upload.SelectedFile) (*upload.Result, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, file.Name)
	r.bodies = append(r.bodies, data)
	return r.result, r.err
}

type formFile struct {
	field string
	name  string
	data  []byte
}

func uploadRequest(t *testing.T, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(ws *WebServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)
	return rec
}

func sampleResult() *upload.Result {
	return &upload.Result{
		Success:       true,
		Filename:      "doc.pdf",
		Summary:       "Short summary.",
		ExtractedText: "The body text",
		TextLength:    12345,
	}
}

func TestServeHome(t *testing.T) {
	ws := NewWebServer(Settings{Uploader: &recordingUploader{}, Backend: "http://backend"})

	rec := serve(ws, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `<section id="uploadSection" class="">`)
	assert.Contains(t, body, `<section id="resultsSection" class="hidden">`)
	assert.Contains(t, body, `action="/upload"`)
	assert.Contains(t, body, "Maximum size: 10 MB")
	assert.Contains(t, body, "http://backend")
}

func TestHandleUpload_ShowsResults(t *testing.T) {
	uploader := &recordingUploader{result: sampleResult()}
	ws := NewWebServer(Settings{Uploader: uploader, Locale: "en", ShowText: true})

	rec := serve(ws, uploadRequest(t, formFile{"file", "doc.pdf", []byte("%PDF-1.4 body")}))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<section id="uploadSection" class="hidden">`)
	assert.Contains(t, body, `<section id="resultsSection" class="">`)
	assert.Contains(t, body, `<h2 id="fileName">doc.pdf</h2>`)
	assert.Contains(t, body, "12,345 characters")
	assert.Contains(t, body, "Short summary.")
	assert.Contains(t, body, "The body text")
	assert.Contains(t, body, `href="/"`)
	assert.NotContains(t, body, `role="alert"`)
	assert.Equal(t, [][]byte{[]byte("%PDF-1.4 body")}, uploader.bodies)
}

func TestHandleUpload_CountFollowsBrowserLocale(t *testing.T) {
	tests := []struct {
		name           string
		acceptLanguage string
		want           string
	}{
		{"german browser", "de-DE,de;q=0.9,en;q=0.5", "12.345 characters"},
		{"weighted order", "en;q=0.3,it;q=0.8", "12.345 characters"},
		{"no header uses configured locale", "", "12,345 characters"},
		{"garbage uses configured locale", ";;;", "12,345 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := NewWebServer(Settings{Uploader: &recordingUploader{result: sampleResult()}, Locale: "en"})
			req := uploadRequest(t, formFile{"file", "doc.pdf", []byte("%PDF")})
			if tt.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tt.acceptLanguage)
			}

			rec := serve(ws, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestHandleUpload_HidesTextWhenDisabled(t *testing.T) {
	ws := NewWebServer(Settings{Uploader: &recordingUploader{result: sampleResult()}})

	rec := serve(ws, uploadRequest(t, formFile{"file", "doc.pdf", []byte("%PDF")}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "The body text")
	assert.NotContains(t, rec.Body.String(), `id="extractedText"`)
}

func TestHandleUpload_OnlyFirstFileIsRelayed(t *testing.T) {
	uploader := &recordingUploader{result: sampleResult()}
	ws := NewWebServer(Settings{Uploader: uploader})

	rec := serve(ws, uploadRequest(t,
		formFile{"file", "first.pdf", []byte("1")},
		formFile{"file", "second.pdf", []byte("2")},
	))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first.pdf"}, uploader.names)
}

func TestHandleUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		files    []formFile
		wantMsg  string
	}{
		{
			name:    "not a pdf",
			files:   []formFile{{"file", "notes.txt", []byte("hello")}},
			wantMsg: upload.MessageNotPDF,
		},
		{
			name:    "no file field",
			files:   []formFile{{"document", "doc.pdf", []byte("%PDF")}},
			wantMsg: upload.MessageNotPDF,
		},
		{
			name:     "over the size limit",
			settings: Settings{MaxFileSize: 1024},
			files:    []formFile{{"file", "big.pdf", bytes.Repeat([]byte("a"), 2048)}},
			wantMsg:  "The file exceeds the maximum size of 1024 bytes",
		},
		{
			name:     "body over the form limit",
			settings: Settings{MaxFileSize: 1024},
			files:    []formFile{{"file", "huge.pdf", bytes.Repeat([]byte("a"), 3<<20)}},
			wantMsg:  "The file exceeds the maximum size of 1024 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &recordingUploader{result: sampleResult()}
			settings := tt.settings
			settings.Uploader = uploader
			ws := NewWebServer(settings)

			rec := serve(ws, uploadRequest(t, tt.files...))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Contains(t, rec.Body.String(), `<section id="uploadSection" class="">`)
			assert.Empty(t, uploader.names, "nothing should reach the backend")
		})
	}
}

func TestHandleUpload_BackendDetailThroughClient(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"PDF contains too little text or is protected"}`))
	}))
	defer backend.Close()

	ws := NewWebServer(Settings{Uploader: upload.NewClient(backend.URL)})

	rec := serve(ws, uploadRequest(t, formFile{"file", "scan.pdf", []byte("%PDF")}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PDF contains too little text or is protected")
	assert.Contains(t, rec.Body.String(), `<section id="uploadSection" class="">`)
}

func TestHandleUpload_JSON(t *testing.T) {
	ws := NewWebServer(Settings{Uploader: &recordingUploader{result: sampleResult()}})
	req := uploadRequest(t, formFile{"file", "doc.pdf", []byte("%PDF")})
	req.Header.Set("Accept", "application/json")

	rec := serve(ws, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "doc.pdf", body["filename"])
	assert.Equal(t, "Short summary.", body["summary"])
	assert.EqualValues(t, 12345, body["text_length"])
	assert.NotContains(t, body, "detail")
}

func TestHandleUpload_JSONTransportError(t *testing.T) {
	failing := uploaderFunc(func(ctx context.Context, file *upload.SelectedFile) (*upload.Result, error) {
		return nil, &upload.TransportError{Op: "send request", Err: errors.New("connection refused")}
	})
	ws := NewWebServer(Settings{Uploader: failing})
	req := uploadRequest(t, formFile{"file", "doc.pdf", []byte("%PDF")})
	req.URL.RawQuery = "format=json"

	rec := serve(ws, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connection refused", body["detail"])
	assert.NotContains(t, body, "filename")
}

func TestHandleUpload_PreflightWarnings(t *testing.T) {
	factory := func(warn func(file *upload.SelectedFile, issues []string)) upload.Validator {
		return upload.ValidatorFunc(func(ctx context.Context, file *upload.SelectedFile) error {
			warn(file, []string{"PDF contains too little text (3 characters) or is protected"})
			return nil
		})
	}
	ws := NewWebServer(Settings{Uploader: &recordingUploader{result: sampleResult()}, Validator: factory})

	rec := serve(ws, uploadRequest(t, formFile{"file", "doc.pdf", []byte("%PDF")}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Warning: doc.pdf: PDF contains too little text (3 characters) or is protected")
}

func TestUploadRedirectsHome(t *testing.T) {
	ws := NewWebServer(Settings{Uploader: &recordingUploader{}})

	rec := serve(ws, httptest.NewRequest(http.MethodGet, "/upload", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHandleHealth(t *testing.T) {
	ws := NewWebServer(Settings{Uploader: &recordingUploader{}, Backend: "http://backend/api/upload"})

	rec := serve(ws, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "pdf-summarizer-web", body["service"])
	assert.Equal(t, "http://backend/api/upload", body["backend"])
	assert.Contains(t, body, "build_info")
}

func TestHandleHealth_BackendDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	ws := NewWebServer(Settings{
		Uploader: &recordingUploader{},
		Health:   monitoring.NewHealthChecker(url, nil, nil, nil),
	})

	rec := serve(ws, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	backend, ok := body["backend_status"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, backend["reachable"])
}

func TestHandleUpload_MalformedForm(t *testing.T) {
	uploader := &recordingUploader{result: sampleResult()}
	ws := NewWebServer(Settings{Uploader: uploader})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("just text"))
	req.Header.Set("Content-Type", "text/plain")
	rec := serve(ws, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to parse form data")
	assert.Empty(t, uploader.names)

	metrics := serve(ws, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	assert.Contains(t, metrics, `pdfsum_uploads_total{outcome="malformed_request"} 1`)
	assert.NotContains(t, metrics, `outcome="validation_error"`)
}

func TestHandleUpload_EmitsOperationRecord(t *testing.T) {
	var records bytes.Buffer
	ws := NewWebServer(Settings{
		Uploader: &recordingUploader{result: sampleResult()},
		Observer: observability.NewStandardObserver(observability.ObservabilityMetrics, &records),
	})

	rec := serve(ws, uploadRequest(t, formFile{"file", "doc.pdf", []byte("%PDF")}))
	require.Equal(t, http.StatusOK, rec.Code)

	var record observability.StandardObservabilityData
	require.NoError(t, json.Unmarshal(records.Bytes(), &record))
	assert.Equal(t, "upload", record.Component)
	assert.Equal(t, "doc.pdf", record.FileName)
	assert.True(t, record.Success)
	assert.NotEmpty(t, record.RequestID)
}

func TestMetricsCountOutcomes(t *testing.T) {
	ws := NewWebServer(Settings{Uploader: &recordingUploader{result: sampleResult()}})
	serve(ws, uploadRequest(t, formFile{"file", "doc.pdf", []byte("%PDF")}))
	serve(ws, uploadRequest(t, formFile{"file", "doc.txt", []byte("text")}))

	rec := serve(ws, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `pdfsum_uploads_total{outcome="success"} 1`)
	assert.Contains(t, body, `pdfsum_uploads_total{outcome="validation_error"} 1`)
	assert.Contains(t, body, `pdfsum_backend_request_duration_seconds_count{outcome="success"} 1`)
}

func TestStatusAndOutcome(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		outcome string
	}{
		{name: "success", err: nil, status: http.StatusOK, outcome: outcomeSuccess},
		{name: "busy", err: upload.ErrUploadInProgress, status: http.StatusConflict, outcome: outcomeBusy},
		{name: "validation", err: &upload.ValidationError{Reason: upload.ReasonExtension}, status: http.StatusBadRequest, outcome: outcomeValidation},
		{name: "server 4xx", err: &upload.ServerError{StatusCode: 422}, status: 422, outcome: outcomeServer},
		{name: "server 5xx", err: &upload.ServerError{StatusCode: 500}, status: http.StatusBadGateway, outcome: outcomeServer},
		{name: "timeout", err: &upload.TransportError{Op: "send request", Err: context.DeadlineExceeded}, status: http.StatusGatewayTimeout, outcome: outcomeTransport},
		{name: "transport", err: &upload.TransportError{Op: "send request", Err: errors.New("refused")}, status: http.StatusBadGateway, outcome: outcomeTransport},
		{name: "other", err: errors.New("boom"), status: http.StatusBadGateway, outcome: outcomeOther},
		{name: "malformed form", err: errMalformedForm, status: http.StatusBadRequest, outcome: outcomeMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
			assert.Equal(t, tt.outcome, outcome(tt.err))
		})
	}
}

func TestListen_BusyExplicitPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	_, port, err := net.SplitHostPort(busy.Addr().String())
	require.NoError(t, err)

	ws := NewWebServer(Settings{Host: "127.0.0.1", Port: port, Uploader: &recordingUploader{}, Out: io.Discard})

	_, err = ws.listen()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find an available port")
}

func TestListen_InvalidPort(t *testing.T) {
	ws := NewWebServer(Settings{Port: "http", Uploader: &recordingUploader{}, Out: io.Discard})

	_, err := ws.listen()
	assert.Error(t, err)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	ws := NewWebServer(Settings{Host: "127.0.0.1", Port: "0", Uploader: &recordingUploader{}, Out: io.Discard})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.Start(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCreateSecureServerTimeouts(t *testing.T) {
	ws := NewWebServer(Settings{Uploader: &recordingUploader{}, UploadTimeout: time.Minute})

	server := ws.createSecureServer()

	assert.Equal(t, 15*time.Second, server.ReadHeaderTimeout)
	assert.Equal(t, 90*time.Second, server.WriteTimeout)
	assert.NotNil(t, server.Handler)
}
