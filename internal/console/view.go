// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package console renders the upload panels on a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"pdf-summarizer/internal/formatters"
	"pdf-summarizer/internal/upload"

	"github.com/fatih/color"
)

// View implements upload.View. Results go to out; phase lines, warnings and
// alerts go to status so that results can be piped.
type View struct {
	out     io.Writer
	status  io.Writer
	format  string
	options formatters.FormatterOptions

	quiet       bool
	interactive bool

	mu      sync.Mutex
	red     *color.Color
	yellow  *color.Color
	faint   *color.Color
	alerts  int
	pending string
}

// Options configures a View
type Options struct {
	Format      string
	Formatter   formatters.FormatterOptions
	Quiet       bool
	Interactive bool
}

// NewView creates a terminal view
func NewView(out, status io.Writer, opts Options) *View {
	format := opts.Format
	if format == "" {
		format = "text"
	}

	v := &View{
		out:         out,
		status:      status,
		format:      format,
		options:     opts.Formatter,
		quiet:       opts.Quiet,
		interactive: opts.Interactive,
		red:         color.New(color.FgRed, color.Bold),
		yellow:      color.New(color.FgYellow),
		faint:       color.New(color.Faint),
	}
	if opts.Formatter.NoColor {
		v.red.DisableColor()
		v.yellow.DisableColor()
		v.faint.DisableColor()
	}
	return v
}

// Prepare remembers the name shown by the Loading line
func (v *View) Prepare(filename string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = filename
}

func (v *View) ShowPhase(phase upload.Phase) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.quiet {
		return
	}

	switch phase {
	case upload.PhaseLoading:
		if v.pending != "" {
			fmt.Fprintln(v.status, v.faint.Sprintf("⏳ Uploading %s and generating the summary...", v.pending))
		} else {
			fmt.Fprintln(v.status, v.faint.Sprint("⏳ Uploading and generating the summary..."))
		}
	case upload.PhaseIdle:
		if v.interactive {
			fmt.Fprintln(v.status, v.faint.Sprint("Ready for a new upload."))
		}
	case upload.PhaseResults:
		// Rendered by ShowResult
	}
}

func (v *View) ShowResult(result *upload.Result) {
	content, err := formatters.Export(v.format, result, v.options)
	if err != nil {
		v.Alert(err.Error())
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, content)
}

func (v *View) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts++
	fmt.Fprintln(v.status, v.red.Sprint("Error: ")+message)
}

func (v *View) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = ""
}

// Warn prints preflight issues that did not block the upload
func (v *View) Warn(file *upload.SelectedFile, issues []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.quiet {
		return
	}
	fmt.Fprintln(v.status, v.yellow.Sprintf("Warning: %s: %s", file.Name, strings.Join(issues, "; ")))
}

// Alerts returns how many alerts were shown
func (v *View) Alerts() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alerts
}
