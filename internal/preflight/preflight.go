// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package preflight inspects a PDF locally before it is uploaded so files the
// backend would reject are caught early.
package preflight

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"pdf-summarizer/internal/observability"
	"pdf-summarizer/internal/upload"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const componentName = "preflight"

// DefaultMinTextChars matches the backend's minimum amount of text
const DefaultMinTextChars = 50

var disableConfigDir sync.Once

// Report describes what was found in a PDF
type Report struct {
	Filename  string `json:"filename"`
	MIMEType  string `json:"mime_type"`
	IsPDF     bool   `json:"is_pdf"`
	Pages     int    `json:"pages"`
	Valid     bool   `json:"valid"`
	Problem   string `json:"problem,omitempty"`
	TextChars int    `json:"text_chars"`
	TextError string `json:"text_error,omitempty"`

	minTextChars int
}

// Issues lists the reasons the backend is likely to reject the file
func (r *Report) Issues() []string {
	var issues []string
	if !r.IsPDF {
		issues = append(issues, fmt.Sprintf("content is %s, not a PDF", r.MIMEType))
		return issues
	}
	if !r.Valid {
		issues = append(issues, "PDF could not be read: "+r.Problem)
	}
	if r.TextError != "" {
		issues = append(issues, "text could not be extracted: "+r.TextError)
	} else if r.TextChars < r.minTextChars {
		issues = append(issues, fmt.Sprintf("PDF contains too little text (%d characters) or is protected", r.TextChars))
	}
	return issues
}

// Notifier receives the issues of a non-strict inspection
type Notifier func(file *upload.SelectedFile, issues []string)

// Inspector runs the local checks. It implements upload.Validator.
type Inspector struct {
	minTextChars int
	strict       bool
	notify       Notifier
	debug        *observability.DebugObserver
	pdfConfig    *model.Configuration
}

// Option customizes an Inspector
type Option func(*Inspector)

// WithStrict turns issues into validation errors
func WithStrict(strict bool) Option {
	return func(i *Inspector) {
		i.strict = strict
	}
}

// WithMinTextChars sets the smallest acceptable amount of extracted text
func WithMinTextChars(n int) Option {
	return func(i *Inspector) {
		if n >= 0 {
			i.minTextChars = n
		}
	}
}

// WithNotifier receives issues when not strict
func WithNotifier(n Notifier) Option {
	return func(i *Inspector) {
		i.notify = n
	}
}

// WithDebugObserver enables step logging
func WithDebugObserver(d *observability.DebugObserver) Option {
	return func(i *Inspector) {
		i.debug = d
	}
}

// NewInspector creates an inspector
func NewInspector(opts ...Option) *Inspector {
	// pdfcpu would otherwise write its config into the user's home
	disableConfigDir.Do(api.DisableConfigDir)

	pdfConfig := model.NewDefaultConfiguration()
	pdfConfig.ValidationMode = model.ValidationRelaxed

	i := &Inspector{
		minTextChars: DefaultMinTextChars,
		pdfConfig:    pdfConfig,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Validate inspects file and, in strict mode, rejects it when issues are found
func (i *Inspector) Validate(ctx context.Context, file *upload.SelectedFile) error {
	report, err := i.Inspect(ctx, file)
	if err != nil {
		return err
	}

	issues := report.Issues()
	if len(issues) == 0 {
		return nil
	}

	if i.strict {
		return &upload.ValidationError{
			Reason:   upload.ReasonPreflight,
			Filename: file.Name,
			Message:  issues[0],
		}
	}

	if i.notify != nil {
		i.notify(file, issues)
	}
	return nil
}

// Inspect reads the file content and builds a report. The file should
// already have passed the size check since it is read into memory.
func (i *Inspector) Inspect(ctx context.Context, file *upload.SelectedFile) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := i.debug.StartStep(componentName, "inspect", file.Name)

	data, err := readAll(file)
	if err != nil {
		done(false, err.Error())
		return nil, fmt.Errorf("error reading %s: %w", file.Name, err)
	}

	report := &Report{Filename: file.Name, minTextChars: i.minTextChars}

	mime := mimetype.Detect(data)
	report.MIMEType = mime.String()
	report.IsPDF = mime.Is("application/pdf")
	i.debug.LogDetail(componentName, "detected "+report.MIMEType)

	if !report.IsPDF {
		done(false, "not a PDF")
		return report, nil
	}

	i.inspectStructure(data, report)
	if err := ctx.Err(); err != nil {
		done(false, err.Error())
		return nil, err
	}
	i.inspectText(data, report)

	i.debug.LogMetric(componentName, "pages", report.Pages)
	i.debug.LogMetric(componentName, "text_chars", report.TextChars)
	done(len(report.Issues()) == 0, strings.Join(report.Issues(), "; "))

	return report, nil
}

// inspectStructure validates the document and counts pages with pdfcpu
func (i *Inspector) inspectStructure(data []byte, report *Report) {
	if err := api.Validate(bytes.NewReader(data), i.pdfConfig); err != nil {
		report.Problem = err.Error()
		return
	}
	report.Valid = true

	pages, err := api.PageCount(bytes.NewReader(data), i.pdfConfig)
	if err != nil {
		report.Problem = err.Error()
		return
	}
	report.Pages = pages
}

// inspectText counts extractable characters with ledongthuc/pdf
func (i *Inspector) inspectText(data []byte, report *Report) {
	defer func() {
		// the text extractor panics on some malformed content streams
		if r := recover(); r != nil {
			report.TextError = fmt.Sprintf("%v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		report.TextError = err.Error()
		return
	}
	if report.Pages == 0 {
		report.Pages = reader.NumPage()
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		report.TextError = err.Error()
		return
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		report.TextError = err.Error()
		return
	}
	report.TextChars = countTextChars(string(text))
}

// countTextChars counts non-space characters
func countTextChars(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func readAll(file *upload.SelectedFile) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
