// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"sort"
	"strings"

	"pdf-summarizer/internal/upload"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatterOptions defines configuration options for formatters
type FormatterOptions struct {
	NoColor      bool   // Whether to disable colored output
	Locale       string // BCP 47 tag used for number formatting, e.g. "en", "it"
	ShowText     bool   // Whether to include the extracted text
	MaxTextChars int    // Truncate displayed extracted text, 0 for no limit
}

// Formatter renders an upload result for the results panel
type Formatter interface {
	// Format renders result according to the formatter's output format
	Format(result *upload.Result, options FormatterOptions) (string, error)

	// Name returns the name of the formatter (e.g., "json", "text")
	Name() string

	// Description returns a brief description of what this formatter outputs
	Description() string

	// FileExtension returns the recommended file extension for this format
	FileExtension() string
}

// Registry holds all registered formatters
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates a new formatter registry
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter to the registry
func (r *Registry) Register(formatter Formatter) {
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name
func (r *Registry) Get(name string) (Formatter, bool) {
	formatter, exists := r.formatters[name]
	return formatter, exists
}

// List returns all registered formatter names in sorted order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatInfo provides metadata about a formatter
type FormatInfo struct {
	Name        string
	Description string
	Extension   string
	MimeType    string
}

// DefaultRegistry is the global formatter registry
var DefaultRegistry = NewRegistry()

// Register is a convenience function to register a formatter with the default registry
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get is a convenience function to get a formatter from the default registry
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List is a convenience function to list all formatters in the default registry
func List() []string {
	return DefaultRegistry.List()
}

// Export formats result with the named formatter
func Export(format string, result *upload.Result, options FormatterOptions) (string, error) {
	formatter, exists := Get(format)
	if !exists {
		return "", fmt.Errorf("unsupported format '%s'. Available formats: %s", format, strings.Join(List(), ", "))
	}
	if result == nil {
		return "", fmt.Errorf("no result to format")
	}
	return formatter.Format(result, options)
}

// GetFormatInfo returns metadata about a specific formatter
func GetFormatInfo(name string) FormatInfo {
	formatter, exists := Get(name)
	if !exists {
		return FormatInfo{}
	}

	info := FormatInfo{
		Name:        formatter.Name(),
		Description: formatter.Description(),
		Extension:   formatter.FileExtension(),
	}

	switch name {
	case "json":
		info.MimeType = "application/json"
	case "yaml":
		info.MimeType = "application/x-yaml"
	case "text":
		info.MimeType = "text/plain"
	default:
		info.MimeType = "application/octet-stream"
	}

	return info
}

// GetSupportedFormats returns information about all available formatters
func GetSupportedFormats() []FormatInfo {
	var formats []FormatInfo
	for _, name := range List() {
		formats = append(formats, GetFormatInfo(name))
	}
	return formats
}

// FormatCount renders n with the thousands separator of locale. Unknown or
// empty locales fall back to English.
func FormatCount(n int, locale string) string {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	return message.NewPrinter(tag).Sprintf("%d", n)
}

// CharacterCount is the character count label shown in the results panel
func CharacterCount(n int, locale string) string {
	return FormatCount(n, locale) + " characters"
}

// DisplayText applies the ShowText and MaxTextChars options to the extracted text
func DisplayText(text string, options FormatterOptions) string {
	if !options.ShowText {
		return ""
	}
	if options.MaxTextChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= options.MaxTextChars {
		return text
	}
	return string(runes[:options.MaxTextChars]) + "..."
}
