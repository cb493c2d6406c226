// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultMaxFileSize is the largest file accepted for upload (10 MB)
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Phase is the visible state of the upload panel. Exactly one is current.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseResults
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseResults:
		return "results"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SelectedFile is a candidate PDF chosen by the user
type SelectedFile struct {
	Name string
	Size int64
	// Path is set when the file comes from disk
	Path string

	open func() (io.ReadCloser, error)
}

// Open returns a reader over the file content. Callers must close it.
func (f *SelectedFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content source", f.Name)
	}
	return f.open()
}

// OpenFile builds a SelectedFile from a path on disk. Content is not read
// until the upload starts.
func OpenFile(path string) (*SelectedFile, error) {
	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", cleanPath)
	}

	return &SelectedFile{
		Name: filepath.Base(cleanPath),
		Size: info.Size(),
		Path: cleanPath,
		open: func() (io.ReadCloser, error) {
			return os.Open(cleanPath)
		},
	}, nil
}

// NewSelectedFile builds a SelectedFile from in-memory content
func NewSelectedFile(name string, data []byte) *SelectedFile {
	return &SelectedFile{
		Name: name,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// NewStreamFile builds a SelectedFile whose content comes from opener. The
// declared size is trusted for validation.
func NewStreamFile(name string, size int64, opener func() (io.ReadCloser, error)) *SelectedFile {
	return &SelectedFile{Name: name, Size: size, open: opener}
}

// Result is the summary returned by the backend. It is displayed verbatim.
type Result struct {
	Success       bool   `json:"success,omitempty" yaml:"-"`
	Filename      string `json:"filename" yaml:"filename"`
	Summary       string `json:"summary" yaml:"summary"`
	ExtractedText string `json:"extracted_text" yaml:"extracted_text"`
	TextLength    int    `json:"text_length" yaml:"text_length"`
}
