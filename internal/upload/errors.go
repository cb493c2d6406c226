// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"errors"
	"fmt"
)

// Messages shown to the user when no more specific text is available
const (
	MessageNotPDF        = "Please select a valid PDF file"
	MessageUploadFailed  = "Error during upload"
	MessageUnknownFailed = "An error occurred. Please try again."
)

// ErrUploadInProgress is returned when a file is selected while another
// upload is still running
var ErrUploadInProgress = errors.New("an upload is already in progress")

// ValidationReason identifies which local check rejected a file
type ValidationReason string

const (
	ReasonExtension ValidationReason = "extension"
	ReasonSize      ValidationReason = "size"
	ReasonPreflight ValidationReason = "preflight"
)

// ValidationError is raised before any network activity
type ValidationError struct {
	Reason   ValidationReason
	Filename string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s (%s): %s", e.Filename, e.Reason, e.Message)
}

// ServerError is a non-2xx response from the backend
type ServerError struct {
	StatusCode int
	// Detail is the server supplied message, empty when the body had none
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// TransportError covers requests that could not be sent or responses that
// could not be read or decoded
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage resolves the text to alert for err: the server detail when
// present, a generic upload message for other server failures, otherwise the
// underlying error message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		if serverErr.Detail != "" {
			return serverErr.Detail
		}
		return MessageUploadFailed
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) && transportErr.Err != nil {
		if msg := transportErr.Err.Error(); msg != "" {
			return msg
		}
		return MessageUnknownFailed
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return MessageUnknownFailed
}
