// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pdf-summarizer/internal/observability"

	"github.com/google/uuid"
)

const componentName = "upload"

// View is the surface the controller drives: one panel per Phase, a results
// panel and a way to alert the user
type View interface {
	// ShowPhase makes the panel for phase the only visible one
	ShowPhase(phase Phase)
	// ShowResult renders a successful upload into the results panel
	ShowResult(result *Result)
	// Alert surfaces a message to the user
	Alert(message string)
	// ClearInput empties the file input
	ClearInput()
}

// Controller owns the upload flow: validation, the single upload request and
// the phase transitions that follow it. It is safe for concurrent use.
type Controller struct {
	uploader  Uploader
	validator Validator
	view      View
	debug     *observability.DebugObserver
	observer  *observability.StandardObserver

	mu         sync.Mutex
	phase      Phase
	selected   *SelectedFile
	result     *Result
	generation uint64
}

// ControllerOption customizes a Controller
type ControllerOption func(*Controller)

// WithValidator replaces the default extension and size validator
func WithValidator(v Validator) ControllerOption {
	return func(c *Controller) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithDebugObserver enables step logging
func WithDebugObserver(d *observability.DebugObserver) ControllerOption {
	return func(c *Controller) {
		c.debug = d
	}
}

// WithObserver enables per-upload operation records
func WithObserver(o *observability.StandardObserver) ControllerOption {
	return func(c *Controller) {
		c.observer = o
	}
}

// NewController creates a controller in the Idle phase
func NewController(uploader Uploader, view View, opts ...ControllerOption) *Controller {
	c := &Controller{
		uploader:  uploader,
		validator: NewBasicValidator(DefaultMaxFileSize),
		view:      view,
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Selected returns the file of the current or last upload, nil after Reset
func (c *Controller) Selected() *SelectedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Result returns the displayed result while in the Results phase
func (c *Controller) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// SelectFile takes the first of files, validates it and uploads it. Extra
// files are ignored. A rejected file is reported through the view and no
// request is made.
func (c *Controller) SelectFile(ctx context.Context, files ...*SelectedFile) error {
	if len(files) == 0 || files[0] == nil {
		return nil
	}
	file := files[0]
	if len(files) > 1 {
		c.debug.LogDetail(componentName, fmt.Sprintf("ignoring %d extra file(s), using %s", len(files)-1, file.Name))
	}

	if c.Phase() == PhaseLoading {
		c.view.Alert(ErrUploadInProgress.Error())
		return ErrUploadInProgress
	}

	done := c.debug.StartStep(componentName, "validate", file.Name)
	if err := c.validator.Validate(ctx, file); err != nil {
		done(false, err.Error())
		c.view.Alert(UserMessage(err))
		return err
	}
	done(true, fmt.Sprintf("%d bytes", file.Size))

	return c.Upload(ctx, file)
}

// Upload switches to Loading, sends file once and shows the outcome. On
// failure the message is alerted and the controller resets to Idle.
func (c *Controller) Upload(ctx context.Context, file *SelectedFile) error {
	if file == nil {
		return errors.New("no file selected")
	}

	c.mu.Lock()
	if c.phase == PhaseLoading {
		c.mu.Unlock()
		c.view.Alert(ErrUploadInProgress.Error())
		return ErrUploadInProgress
	}
	c.phase = PhaseLoading
	c.selected = file
	c.result = nil
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	c.view.ShowPhase(PhaseLoading)

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = ContextWithRequestID(ctx, requestID)
	}

	done := c.debug.StartStep(componentName, "upload", file.Name)
	c.debug.LogDetail(componentName, "request id "+requestID)
	finish := c.observer.StartTiming(componentName, "upload", file.Name)

	result, err := c.uploader.Upload(ctx, file)
	if err == nil && result == nil {
		err = &TransportError{Op: "decode response", Err: errors.New("empty response")}
	}

	if err != nil {
		done(false, err.Error())
		metadata := failureMetadata(err)
		metadata[observability.RequestIDKey] = requestID
		finish(false, metadata)
		if c.isCurrent(generation) {
			c.view.Alert(UserMessage(err))
			c.Reset()
		}
		return err
	}

	done(true, fmt.Sprintf("%d characters", result.TextLength))
	finish(true, map[string]interface{}{
		"text_length":              result.TextLength,
		observability.RequestIDKey: requestID,
	})

	c.mu.Lock()
	if c.generation != generation {
		// Reset while the request was in flight
		c.mu.Unlock()
		c.debug.LogDetail(componentName, "discarding result of abandoned upload "+file.Name)
		return nil
	}
	c.phase = PhaseResults
	c.result = result
	c.mu.Unlock()

	c.view.ShowPhase(PhaseResults)
	c.view.ShowResult(result)
	return nil
}

// Reset clears the selection and returns to Idle
func (c *Controller) Reset() {
	c.mu.Lock()
	c.selected = nil
	c.result = nil
	c.phase = PhaseIdle
	c.generation++
	c.mu.Unlock()

	c.view.ClearInput()
	c.view.ShowPhase(PhaseIdle)
}

func (c *Controller) isCurrent(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == generation
}

func failureMetadata(err error) map[string]interface{} {
	metadata := map[string]interface{}{"error": err.Error()}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		metadata["status_code"] = serverErr.StatusCode
	}
	return metadata
}
