// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"encoding/json"
	"fmt"

	"pdf-summarizer/internal/formatters"
	"pdf-summarizer/internal/upload"
)

// Response is the JSON/YAML shape of a rendered result
type Response struct {
	Filename          string `json:"filename" yaml:"filename"`
	Summary           string `json:"summary" yaml:"summary"`
	ExtractedText     string `json:"extracted_text,omitempty" yaml:"extracted_text,omitempty"`
	TextLength        int    `json:"text_length" yaml:"text_length"`
	TextLengthDisplay string `json:"text_length_display" yaml:"text_length_display"`
}

// NewResponse converts a result using the shared display options
func NewResponse(result *upload.Result, options formatters.FormatterOptions) Response {
	return Response{
		Filename:          result.Filename,
		Summary:           result.Summary,
		ExtractedText:     formatters.DisplayText(result.ExtractedText, options),
		TextLength:        result.TextLength,
		TextLengthDisplay: formatters.CharacterCount(result.TextLength, options.Locale),
	}
}

// Formatter implements JSON output formatting
type Formatter struct{}

// NewFormatter creates a new JSON formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "json"
}

func (f *Formatter) Description() string {
	return "Structured JSON output for programmatic consumption"
}

func (f *Formatter) FileExtension() string {
	return ".json"
}

func (f *Formatter) Format(result *upload.Result, options formatters.FormatterOptions) (string, error) {
	data, err := json.MarshalIndent(NewResponse(result, options), "", "  ")
	if err != nil {
		return "", fmt.Errorf("error formatting JSON: %w", err)
	}
	return string(data), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
