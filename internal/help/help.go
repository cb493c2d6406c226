// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"text/tabwriter"

	"pdf-summarizer/internal/formatters"

	"github.com/fatih/color"
)

// System renders the CLI help pages
type System struct {
	out    io.Writer
	colors map[string]*color.Color
}

// NewSystem creates a help system writing to out
func NewSystem(out io.Writer, noColor bool) *System {
	colors := map[string]*color.Color{
		"title":    color.New(color.FgWhite, color.Bold),
		"header":   color.New(color.FgBlue, color.Bold),
		"emphasis": color.New(color.FgWhite, color.Bold),
		"example":  color.New(color.FgMagenta),
	}
	if noColor {
		for _, c := range colors {
			c.DisableColor()
		}
	}

	return &System{out: out, colors: colors}
}

// ShowGeneralHelp displays general help information
func (h *System) ShowGeneralHelp() {
	h.colors["title"].Fprintln(h.out, "PDF Summarizer - Upload a PDF and read its summary")
	fmt.Fprintln(h.out, "==================================================")
	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "USAGE:")
	fmt.Fprintln(h.out, "  pdf-summarizer [options] <file.pdf>")
	fmt.Fprintln(h.out, "  pdf-summarizer -interactive        # One path per line, 'reset' and 'quit'")
	fmt.Fprintln(h.out, "  pdf-summarizer -web [-port <port>] # Browser upload console")
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "OPTIONS:")
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  -file\t<path>\tPDF to upload (or pass it as the first argument; extra files are ignored)")
	fmt.Fprintln(w, "  -config\t<path>\tPath to configuration file (YAML)")
	fmt.Fprintln(w, "  -profile\t<name>\tProfile name to use from config file")
	fmt.Fprintln(w, "  -list-profiles\t\tList available profiles in config file")
	fmt.Fprintln(w, "  -api-url\t<url>\tBackend base URL (default: http://localhost:8000)")
	fmt.Fprintln(w, "  -timeout\t<duration>\tUpload timeout, e.g. 90s (default: none)")
	fmt.Fprintln(w, "  -format\t<format>\tOutput format: text, json, yaml (default: text)")
	fmt.Fprintln(w, "  -output\t<path>\tWrite the result to a file instead of stdout")
	fmt.Fprintln(w, "  -locale\t<tag>\tLocale for the character count, e.g. en, de, it")
	fmt.Fprintln(w, "  -hide-text\t\tDo not print the extracted text")
	fmt.Fprintln(w, "  -max-text\t<n>\tTruncate the printed extracted text to n characters")
	fmt.Fprintln(w, "  -inspect\t\tInspect the PDF locally before uploading")
	fmt.Fprintln(w, "  -strict\t\tWith -inspect, refuse files the backend would reject")
	fmt.Fprintln(w, "  -no-color\t\tDisable colored output")
	fmt.Fprintln(w, "  -quiet\t\tSuppress progress output")
	fmt.Fprintln(w, "  -debug\t\tLog validation and upload steps to stderr")
	fmt.Fprintln(w, "  -interactive\t\tRead file paths from stdin")
	fmt.Fprintln(w, "  -web\t\tStart the web console")
	fmt.Fprintln(w, "  -port\t<port>\tPort for the web console (default: 8080)")
	fmt.Fprintln(w, "  -version\t\tShow version information")
	fmt.Fprintln(w, "  -help\t\tShow this help message")
	fmt.Fprintln(w, "  -help formats\t\tList the output formats")
	w.Flush()

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "EXAMPLES:")
	h.colors["example"].Fprintln(h.out, "  pdf-summarizer report.pdf")
	h.colors["example"].Fprintln(h.out, "  pdf-summarizer -format json -output summary.json report.pdf")
	h.colors["example"].Fprintln(h.out, "  pdf-summarizer -api-url https://summarizer.internal -inspect -strict scan.pdf")
	h.colors["example"].Fprintln(h.out, "  pdf-summarizer -config pdf-summarizer.yaml -profile remote report.pdf")
	h.colors["example"].Fprintln(h.out, "  pdf-summarizer -web -port 9000")

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "CONFIGURATION:")
	fmt.Fprintln(h.out, "  Project config: pdf-summarizer.yaml or .pdf-summarizer.yaml (in current directory)")
	fmt.Fprintln(h.out, "  User config:    <user config dir>/pdf-summarizer/config.yaml")
	fmt.Fprintln(h.out, "  Environment:    PDFSUM_API_URL overrides the backend, PDFSUM_CONFIG_DIR the config directory")
	fmt.Fprintln(h.out, "                  A .env file in the current directory is loaded first")
}

// ShowFormatsHelp lists the registered output formats
func (h *System) ShowFormatsHelp(formats []formatters.FormatInfo) {
	h.colors["title"].Fprintln(h.out, "Output Formats")
	fmt.Fprintln(h.out, "==============")
	fmt.Fprintln(h.out)

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	h.colors["header"].Fprintln(w, "  FORMAT\tEXTENSION\tDESCRIPTION")
	for _, info := range formats {
		fmt.Fprint(w, "  ")
		h.colors["emphasis"].Fprint(w, info.Name)
		fmt.Fprintf(w, "\t%s\t%s\n", info.Extension, info.Description)
	}
	w.Flush()

	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "Example:")
	h.colors["example"].Fprintln(h.out, "  pdf-summarizer -format yaml report.pdf")
}
