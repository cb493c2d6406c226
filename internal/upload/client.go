// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"pdf-summarizer/internal/version"

	"github.com/google/uuid"
)

const (
	// DefaultUploadPath is the backend route that accepts PDFs
	DefaultUploadPath = "/api/upload"
	// DefaultFieldName is the multipart field carrying the file
	DefaultFieldName = "file"
	// RequestIDHeader carries a per-upload correlation id
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 32 << 20
)

// Uploader sends a validated file to the backend
type Uploader interface {
	Upload(ctx context.Context, file *SelectedFile) (*Result, error)
}

// Client posts PDFs to the summarizer backend as multipart/form-data
type Client struct {
	baseURL    string
	uploadPath string
	fieldName  string
	httpClient *http.Client
	newID      func() string
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUploadPath overrides DefaultUploadPath
func WithUploadPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.uploadPath = path
		}
	}
}

// WithFieldName overrides DefaultFieldName
func WithFieldName(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.fieldName = name
		}
	}
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadPath: DefaultUploadPath,
		fieldName:  DefaultFieldName,
		httpClient: &http.Client{},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the full upload URL
func (c *Client) Endpoint() string {
	path := c.uploadPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Upload sends file exactly once. It does not retry.
func (c *Client) Upload(ctx context.Context, file *SelectedFile) (*Result, error) {
	body, contentType, err := c.encode(file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = c.newID()
	}
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	return &result, nil
}

func (c *Client) encode(file *SelectedFile) (io.Reader, string, error) {
	content, err := file.Open()
	if err != nil {
		return nil, "", &TransportError{Op: "open file", Err: err}
	}
	defer content.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(c.fieldName, file.Name)
	if err != nil {
		return nil, "", &TransportError{Op: "encode form", Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", &TransportError{Op: "encode form", Err: fmt.Errorf("copy %s: %w", file.Name, err)}
	}
	if err := writer.Close(); err != nil {
		return nil, "", &TransportError{Op: "encode form", Err: err}
	}
	return &buf, writer.FormDataContentType(), nil
}

// parseDetail extracts the "detail" message from an error body. Non-string
// details are returned as compact JSON.
func parseDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return text
	}
	if string(body.Detail) == "null" {
		return ""
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body.Detail); err != nil {
		return string(body.Detail)
	}
	return compact.String()
}
