// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web serves a local browser console that relays PDF uploads to the
// summarizer backend.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"pdf-summarizer/internal/formatters"
	"pdf-summarizer/internal/monitoring"
	"pdf-summarizer/internal/observability"
	"pdf-summarizer/internal/upload"
	"pdf-summarizer/internal/version"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"
)

const (
	// DefaultPort is tried first; when busy the next ports are tried
	DefaultPort = "8080"

	portAttempts = 10
	// multipart overhead allowed on top of the file size limit
	formSlack = 1 << 20
	// parts larger than this spill to temporary files
	formMemory = 8 << 20
)

// ValidatorFactory builds the validator for one request. warn receives the
// issues of a non-blocking preflight so they can be shown on the page.
type ValidatorFactory func(warn func(file *upload.SelectedFile, issues []string)) upload.Validator

// Settings configures a WebServer
type Settings struct {
	Host         string
	Port         string
	Uploader     upload.Uploader
	Validator    ValidatorFactory
	MaxFileSize  int64
	Locale       string
	ShowText     bool
	MaxTextChars int
	// Backend is the upload endpoint, shown in the page footer
	Backend string
	// UploadTimeout bounds how long a relayed upload may take, zero for none
	UploadTimeout time.Duration
	// Health probes the backend for /health when set
	Health *monitoring.HealthChecker
	Debug  *observability.DebugObserver
	// Observer receives one operation record per relayed upload
	Observer *observability.StandardObserver
	Out      io.Writer
}

// WebServer represents the web server instance
type WebServer struct {
	settings Settings
	metrics  *metrics
	uploader upload.Uploader
	server   *http.Server
	router   chi.Router
}

// UploadResponse is the JSON body of POST /upload for API clients. It mirrors
// the backend so scripts can use the console as a drop-in relay.
type UploadResponse struct {
	*upload.Result
	Detail string `json:"detail,omitempty"`
}

// NewWebServer creates a new web server instance
func NewWebServer(settings Settings) *WebServer {
	if settings.Port == "" {
		settings.Port = DefaultPort
	}
	if settings.MaxFileSize <= 0 {
		settings.MaxFileSize = upload.DefaultMaxFileSize
	}
	if settings.Out == nil {
		settings.Out = os.Stdout
	}

	ws := &WebServer{
		settings: settings,
		metrics:  newMetrics(),
	}
	ws.uploader = ws.metrics.instrument(settings.Uploader)
	ws.setupRoutes()
	return ws
}

// Handler returns the router, for tests and embedding
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

func (ws *WebServer) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", ws.serveHome)
	r.Post("/upload", ws.handleUpload)
	r.Get("/upload", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
	r.Get("/health", ws.handleHealth)
	r.Method(http.MethodGet, "/metrics", ws.metrics.handler())

	ws.router = r
}

// Start listens and serves until ctx is cancelled, then shuts down gracefully
func (ws *WebServer) Start(ctx context.Context) error {
	listener, err := ws.listen()
	if err != nil {
		return err
	}

	ws.server = ws.createSecureServer()
	_, port, _ := net.SplitHostPort(listener.Addr().String())
	fmt.Fprintf(ws.settings.Out, "PDF Summarizer web console started on port %s\n", port)
	fmt.Fprintf(ws.settings.Out, "Local:   http://localhost:%s\n", port)
	fmt.Fprintf(ws.settings.Out, "Backend: %s\n", ws.settings.Backend)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ws.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down web server: %w", err)
		}
		return nil
	}
}

// Stop stops the web server
func (ws *WebServer) Stop() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

// listen binds the configured port. Only the default port falls back to the
// following ones when busy.
func (ws *WebServer) listen() (net.Listener, error) {
	attempts := 1
	if ws.settings.Port == DefaultPort {
		attempts = portAttempts
	}
	first, err := strconv.Atoi(ws.settings.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", ws.settings.Port, err)
	}

	var lastError error
	for i := 0; i < attempts; i++ {
		addr := net.JoinHostPort(ws.settings.Host, strconv.Itoa(first+i))
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			return listener, nil
		}
		lastError = err
		if i == 0 && attempts > 1 {
			fmt.Fprintf(ws.settings.Out, "Port %d is not available, trying alternative ports...\n", first)
		}
	}

	return nil, fmt.Errorf("could not find an available port in range %d-%d\n"+
		"Last error: %v\n"+
		"Troubleshooting:\n"+
		"  1. Try a specific port with -port <number>\n"+
		"  2. Ensure you have permission to bind to the requested port", first, first+attempts-1, lastError)
}

// createSecureServer creates an HTTP server with security timeouts
func (ws *WebServer) createSecureServer() *http.Server {
	// Summaries can take a while, so writes wait for the upload timeout
	writeTimeout := 5 * time.Minute
	if ws.settings.UploadTimeout > 0 {
		writeTimeout = ws.settings.UploadTimeout + 30*time.Second
	}
	return &http.Server{
		Handler:           ws.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

func (ws *WebServer) serveHome(responseWriter http.ResponseWriter, request *http.Request) {
	ws.render(responseWriter, http.StatusOK, ws.newPageData(request, upload.PhaseIdle, nil, "", nil))
}

// handleHealth provides a health check endpoint with version information
func (ws *WebServer) handleHealth(responseWriter http.ResponseWriter, request *http.Request) {
	versionInfo := version.Full()

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "pdf-summarizer-web",
		"version":   versionInfo["version"],
		"backend":   ws.settings.Backend,
		"build_info": map[string]interface{}{
			"version":    versionInfo["version"],
			"commit":     versionInfo["commit"],
			"build_date": versionInfo["buildDate"],
			"go_version": versionInfo["goVersion"],
			"platform":   versionInfo["platform"],
		},
	}

	if ws.settings.Health != nil {
		backendStatus := ws.settings.Health.Summary(request.Context())
		healthData["backend_status"] = backendStatus
		if reachable, _ := backendStatus["reachable"].(bool); !reachable {
			healthData["status"] = "degraded"
		}
	}

	responseWriter.Header().Set("Content-Type", "application/json")
	responseWriter.WriteHeader(http.StatusOK)
	json.NewEncoder(responseWriter).Encode(healthData)
}

// handleUpload relays the first uploaded file through a fresh controller
func (ws *WebServer) handleUpload(responseWriter http.ResponseWriter, request *http.Request) {
	wantsJSON := acceptsJSON(request)

	request.Body = http.MaxBytesReader(responseWriter, request.Body, ws.settings.MaxFileSize+formSlack)
	if err := request.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			message := upload.SizeMessage(ws.settings.MaxFileSize)
			ws.metrics.recordOutcome(&upload.ValidationError{Reason: upload.ReasonSize, Message: message})
			ws.sendError(responseWriter, request, wantsJSON, message, http.StatusBadRequest)
			return
		}
		ws.settings.Debug.LogDetail("web", "rejecting form: "+err.Error())
		ws.metrics.recordOutcome(errMalformedForm)
		ws.sendError(responseWriter, request, wantsJSON, "Failed to parse form data", statusFor(errMalformedForm))
		return
	}
	defer request.MultipartForm.RemoveAll()

	headers := request.MultipartForm.File[upload.DefaultFieldName]
	if len(headers) == 0 {
		ws.metrics.recordOutcome(&upload.ValidationError{Reason: upload.ReasonExtension, Message: upload.MessageNotPDF})
		ws.sendError(responseWriter, request, wantsJSON, upload.MessageNotPDF, http.StatusBadRequest)
		return
	}

	files := make([]*upload.SelectedFile, 0, len(headers))
	for _, header := range headers {
		files = append(files, selectedFromHeader(header))
	}

	view := newPageView()
	opts := []upload.ControllerOption{
		upload.WithDebugObserver(ws.settings.Debug),
		upload.WithObserver(ws.settings.Observer),
	}
	if ws.settings.Validator != nil {
		opts = append(opts, upload.WithValidator(ws.settings.Validator(view.warn)))
	} else {
		opts = append(opts, upload.WithValidator(upload.NewBasicValidator(ws.settings.MaxFileSize)))
	}
	controller := upload.NewController(ws.uploader, view, opts...)

	ctx := request.Context()
	if ws.settings.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ws.settings.UploadTimeout)
		defer cancel()
	}

	err := controller.SelectFile(ctx, files...)
	ws.metrics.recordOutcome(err)
	status := statusFor(err)

	phase, result, alert, warnings := view.snapshot()
	if wantsJSON {
		ws.sendJSON(responseWriter, status, UploadResponse{Result: result, Detail: alert})
		return
	}
	ws.render(responseWriter, status, ws.newPageData(request, phase, result, alert, warnings))
}

func selectedFromHeader(header *multipart.FileHeader) *upload.SelectedFile {
	return upload.NewStreamFile(header.Filename, header.Size, func() (io.ReadCloser, error) {
		return header.Open()
	})
}

func (ws *WebServer) newPageData(request *http.Request, phase upload.Phase, result *upload.Result, alert string, warnings []string) pageData {
	data := pageData{
		Phase:     phase.String(),
		Alert:     alert,
		Warnings:  warnings,
		FieldName: upload.DefaultFieldName,
		MaxSize:   upload.FormatLimit(ws.settings.MaxFileSize),
		Result:    result,
		Version:   version.Short(),
		Backend:   ws.settings.Backend,
	}
	if result != nil {
		locale := ws.localeFor(request)
		options := formatters.FormatterOptions{
			Locale:       locale,
			ShowText:     ws.settings.ShowText,
			MaxTextChars: ws.settings.MaxTextChars,
		}
		data.CharacterCount = formatters.CharacterCount(result.TextLength, locale)
		data.ExtractedText = formatters.DisplayText(result.ExtractedText, options)
	}
	return data
}

func (ws *WebServer) render(responseWriter http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		http.Error(responseWriter, "Failed to render page", http.StatusInternalServerError)
		return
	}
	responseWriter.Header().Set("Content-Type", "text/html; charset=utf-8")
	responseWriter.WriteHeader(status)
	responseWriter.Write(buf.Bytes())
}

func (ws *WebServer) sendJSON(responseWriter http.ResponseWriter, status int, body interface{}) {
	responseWriter.Header().Set("Content-Type", "application/json")
	responseWriter.WriteHeader(status)
	json.NewEncoder(responseWriter).Encode(body)
}

// sendError answers with the alert message in the requested representation
func (ws *WebServer) sendError(responseWriter http.ResponseWriter, request *http.Request, wantsJSON bool, message string, status int) {
	if wantsJSON {
		ws.sendJSON(responseWriter, status, UploadResponse{Detail: message})
		return
	}
	ws.render(responseWriter, status, ws.newPageData(request, upload.PhaseIdle, nil, message, nil))
}

// localeFor prefers the browser's first Accept-Language entry over the
// configured locale
func (ws *WebServer) localeFor(request *http.Request) string {
	header := request.Header.Get("Accept-Language")
	if header == "" {
		return ws.settings.Locale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 || tags[0] == language.Und {
		return ws.settings.Locale
	}
	return tags[0].String()
}

func acceptsJSON(request *http.Request) bool {
	if request.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(request.Header.Get("Accept"), "application/json")
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var validationErr *upload.ValidationError
	var serverErr *upload.ServerError
	switch {
	case errors.Is(err, upload.ErrUploadInProgress):
		return http.StatusConflict
	case errors.Is(err, errMalformedForm), errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &serverErr):
		if serverErr.StatusCode >= 400 && serverErr.StatusCode < 500 {
			return serverErr.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
