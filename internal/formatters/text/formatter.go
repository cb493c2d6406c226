// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"strings"

	"pdf-summarizer/internal/formatters"
	"pdf-summarizer/internal/upload"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"yellow": color.New(color.FgYellow),
			"cyan":   color.New(color.FgCyan, color.Bold),
			"white":  color.New(color.FgWhite, color.Bold),
			"faint":  color.New(color.Faint),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable results panel with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(result *upload.Result, options formatters.FormatterOptions) (string, error) {
	// Disable colors if requested
	if options.NoColor {
		color.NoColor = true
	}

	var builder strings.Builder

	builder.WriteString(f.colors["white"].Sprintf("📄 %s", result.Filename))
	builder.WriteString("\n")
	builder.WriteString(f.colors["yellow"].Sprint(formatters.CharacterCount(result.TextLength, options.Locale)))
	builder.WriteString("\n\n")

	f.appendSection(&builder, "Summary", result.Summary)

	if text := formatters.DisplayText(result.ExtractedText, options); text != "" {
		builder.WriteString("\n")
		f.appendSection(&builder, "Extracted text", text)
	}

	return strings.TrimRight(builder.String(), "\n"), nil
}

// appendSection writes a titled block with an underline sized to the title
func (f *Formatter) appendSection(builder *strings.Builder, title, body string) {
	builder.WriteString(f.colors["cyan"].Sprint(title))
	builder.WriteString("\n")
	builder.WriteString(f.colors["faint"].Sprint(strings.Repeat("─", len([]rune(title)))))
	builder.WriteString("\n")
	if strings.TrimSpace(body) == "" {
		builder.WriteString(f.colors["faint"].Sprint("(empty)"))
	} else {
		builder.WriteString(strings.TrimRight(body, "\n"))
	}
	builder.WriteString("\n")
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
