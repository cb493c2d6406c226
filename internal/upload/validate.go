// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"fmt"
	"strings"
)

// Validator checks a selected file before it is uploaded
type Validator interface {
	Validate(ctx context.Context, file *SelectedFile) error
}

// ValidatorFunc adapts a function to the Validator interface
type ValidatorFunc func(ctx context.Context, file *SelectedFile) error

func (f ValidatorFunc) Validate(ctx context.Context, file *SelectedFile) error {
	return f(ctx, file)
}

// BasicValidator enforces the .pdf extension and the size limit
type BasicValidator struct {
	MaxSize int64
}

// NewBasicValidator returns a validator with the given limit, falling back to
// DefaultMaxFileSize when maxSize is not positive
func NewBasicValidator(maxSize int64) *BasicValidator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &BasicValidator{MaxSize: maxSize}
}

func (v *BasicValidator) Validate(_ context.Context, file *SelectedFile) error {
	if !HasPDFExtension(file.Name) {
		return &ValidationError{
			Reason:   ReasonExtension,
			Filename: file.Name,
			Message:  MessageNotPDF,
		}
	}

	if file.Size > v.MaxSize {
		return &ValidationError{
			Reason:   ReasonSize,
			Filename: file.Name,
			Message:  SizeMessage(v.MaxSize),
		}
	}

	return nil
}

// HasPDFExtension reports whether name ends in .pdf, ignoring case
func HasPDFExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// Chain runs validators in order and stops at the first failure
func Chain(validators ...Validator) Validator {
	return ValidatorFunc(func(ctx context.Context, file *SelectedFile) error {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v.Validate(ctx, file); err != nil {
				return err
			}
		}
		return nil
	})
}

// SizeMessage is the alert shown for files larger than limit
func SizeMessage(limit int64) string {
	return "The file exceeds the maximum size of " + FormatLimit(limit)
}

// FormatLimit renders a byte limit, in MB when it is a whole number of them
func FormatLimit(limit int64) string {
	const mb = 1024 * 1024
	if limit%mb == 0 {
		return fmt.Sprintf("%d MB", limit/mb)
	}
	return fmt.Sprintf("%d bytes", limit)
}
