// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"strings"
	"sync"

	"pdf-summarizer/internal/upload"
)

// pageView collects what a single request's controller shows so the handler
// can render it once the upload has finished
type pageView struct {
	mu       sync.Mutex
	phase    upload.Phase
	result   *upload.Result
	alerts   []string
	warnings []string
}

func newPageView() *pageView {
	return &pageView{phase: upload.PhaseIdle}
}

func (p *pageView) ShowPhase(phase upload.Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = phase
}

func (p *pageView) ShowResult(result *upload.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = result
}

func (p *pageView) Alert(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, message)
}

func (p *pageView) ClearInput() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = nil
}

func (p *pageView) warn(file *upload.SelectedFile, issues []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings = append(p.warnings, file.Name+": "+strings.Join(issues, "; "))
}

func (p *pageView) snapshot() (upload.Phase, *upload.Result, string, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase, p.result, strings.Join(p.alerts, "\n"), append([]string(nil), p.warnings...)
}

// pageData is the template model
type pageData struct {
	Phase          string
	Alert          string
	Warnings       []string
	FieldName      string
	MaxSize        string
	Result         *upload.Result
	CharacterCount string
	ExtractedText  string
	Version        string
	Backend        string
}
