// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pdf-summarizer/internal/config"
	"pdf-summarizer/internal/console"
	"pdf-summarizer/internal/formatters"
	"pdf-summarizer/internal/help"
	"pdf-summarizer/internal/monitoring"
	"pdf-summarizer/internal/observability"
	"pdf-summarizer/internal/paths"
	"pdf-summarizer/internal/preflight"
	"pdf-summarizer/internal/upload"
	"pdf-summarizer/internal/version"
	"pdf-summarizer/internal/web"

	_ "pdf-summarizer/internal/formatters/json"
	_ "pdf-summarizer/internal/formatters/text"
	_ "pdf-summarizer/internal/formatters/yaml"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// cliFlags holds the parsed command line
type cliFlags struct {
	inputFile    string
	configFile   string
	profileName  string
	listProfiles bool
	apiURL       string
	timeout      time.Duration
	outputFormat string
	outputFile   string
	locale       string
	hideText     bool
	maxText      int
	inspect      bool
	strict       bool
	noColor      bool
	quiet        bool
	debug        bool
	interactive  bool
	webMode      bool
	webPort      string
	showVersion  bool
	showHelp     bool

	args []string
	set  map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	flags := &cliFlags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("pdf-summarizer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {}

	fs.StringVar(&flags.inputFile, "file", "", "Path to the PDF to upload")
	fs.StringVar(&flags.configFile, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&flags.profileName, "profile", "", "Profile name to use from config file")
	fs.BoolVar(&flags.listProfiles, "list-profiles", false, "List available profiles in config file")
	fs.StringVar(&flags.apiURL, "api-url", "", "Backend base URL")
	fs.DurationVar(&flags.timeout, "timeout", 0, "Upload timeout (0 for none)")
	fs.StringVar(&flags.outputFormat, "format", "", "Output format: text, json, yaml (default: text)")
	fs.StringVar(&flags.outputFile, "output", "", "Path to output file (if not specified, output to stdout)")
	fs.StringVar(&flags.locale, "locale", "", "Locale for number formatting")
	fs.BoolVar(&flags.hideText, "hide-text", false, "Do not print the extracted text")
	fs.IntVar(&flags.maxText, "max-text", 0, "Truncate the printed extracted text")
	fs.BoolVar(&flags.inspect, "inspect", false, "Inspect the PDF locally before uploading")
	fs.BoolVar(&flags.strict, "strict", false, "Refuse files that fail inspection")
	fs.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&flags.quiet, "quiet", false, "Suppress progress output")
	fs.BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&flags.interactive, "interactive", false, "Read file paths from stdin")
	fs.BoolVar(&flags.webMode, "web", false, "Start the web console")
	fs.StringVar(&flags.webPort, "port", "", "Port for the web console (default: 8080)")
	fs.BoolVar(&flags.showVersion, "version", false, "Show version information")
	fs.BoolVar(&flags.showHelp, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		flags.set[f.Name] = true
	})
	flags.args = fs.Args()
	return flags, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			help.NewSystem(stdout, true).ShowGeneralHelp()
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\nRun 'pdf-summarizer -help' for usage.\n", err)
		return 2
	}

	if flags.showVersion {
		fmt.Fprintln(stdout, version.Info())
		return 0
	}

	// Auto-detect non-interactive environment
	noColor := flags.noColor || !isTerminal(stderr) || os.Getenv("CI") != ""
	if noColor {
		color.NoColor = true
	}

	if flags.showHelp {
		helpSystem := help.NewSystem(stdout, noColor)
		if len(flags.args) > 0 && flags.args[0] == "formats" {
			helpSystem.ShowFormatsHelp(formatters.GetSupportedFormats())
		} else {
			helpSystem.ShowGeneralHelp()
		}
		return 0
	}

	var debugObs *observability.DebugObserver
	if flags.debug {
		debugObs = observability.NewDebugObserver(stderr)
		debugObs.LogDetail("main", fmt.Sprintf("Command line arguments: %v", args))
	}

	cfg, err := loadConfiguration(flags, debugObs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if flags.listProfiles {
		printProfiles(stdout, cfg)
		return 0
	}

	if cfg.Output.NoColor {
		color.NoColor = true
		noColor = true
	}
	if cfg.Output.Debug && debugObs == nil {
		debugObs = observability.NewDebugObserver(stderr)
	}

	client := newClient(cfg)
	debugObs.LogDetail("main", "Backend endpoint: "+client.Endpoint())

	if flags.webMode {
		if err := runWeb(ctx, cfg, client, debugObs, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	out := stdout
	if flags.outputFile != "" {
		outputPath := paths.NormalizePath(flags.outputFile)
		if err := paths.ValidatePath(outputPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		file, err := os.Create(outputPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error creating output file: %v\n", err)
			return 1
		}
		defer file.Close()
		out = file
	}

	view := console.NewView(out, stderr, console.Options{
		Format: cfg.Output.Format,
		Formatter: formatters.FormatterOptions{
			NoColor:      noColor || flags.outputFile != "",
			Locale:       cfg.Output.Locale,
			ShowText:     cfg.Output.ShowText,
			MaxTextChars: cfg.Output.MaxTextChars,
		},
		Quiet:       cfg.Output.Quiet,
		Interactive: flags.interactive,
	})

	validator := newValidator(cfg, debugObs, view.Warn)
	controller := upload.NewController(client, view,
		upload.WithValidator(validator),
		upload.WithDebugObserver(debugObs),
		upload.WithObserver(operationObserver(debugObs)),
	)

	if flags.interactive {
		return runInteractive(ctx, controller, view, stdin, stderr, cfg.Output.Quiet)
	}

	inputs := flags.args
	if flags.inputFile != "" {
		inputs = append([]string{flags.inputFile}, inputs...)
	}
	if len(inputs) == 0 {
		fmt.Fprintln(stderr, "Error: no PDF specified")
		fmt.Fprintln(stderr, "Usage: pdf-summarizer [options] <file.pdf>  (run 'pdf-summarizer -help' for details)")
		return 1
	}
	if len(inputs) > 1 {
		debugObs.LogDetail("main", fmt.Sprintf("Ignoring %d extra argument(s)", len(inputs)-1))
	}

	return uploadPath(ctx, controller, view, inputs[0])
}

// loadConfiguration resolves settings as flag > environment > file > default
func loadConfiguration(flags *cliFlags, debugObs *observability.DebugObserver) (*config.Config, error) {
	if err := config.LoadDotEnv(""); err != nil {
		debugObs.LogDetail("config", "Ignoring .env: "+err.Error())
	}

	var cfg *config.Config
	var err error
	if flags.configFile != "" {
		cfg, err = config.LoadConfig(paths.NormalizePath(flags.configFile))
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.LoadConfigOrDefault("")
		if err != nil {
			debugObs.LogDetail("config", "Using defaults: "+err.Error())
		}
	}

	if flags.profileName != "" {
		if err := cfg.ApplyProfile(flags.profileName); err != nil {
			return nil, fmt.Errorf("%w (available profiles: %s)", err, strings.Join(cfg.ListProfiles(), ", "))
		}
		debugObs.LogDetail("config", "Applied profile "+flags.profileName)
	}

	if flags.set["api-url"] {
		cfg.API.URL = flags.apiURL
	}
	if flags.set["timeout"] {
		cfg.API.Timeout = flags.timeout
	}
	if flags.set["format"] {
		cfg.Output.Format = strings.ToLower(flags.outputFormat)
	}
	if flags.set["locale"] {
		cfg.Output.Locale = flags.locale
	}
	if flags.set["hide-text"] {
		cfg.Output.ShowText = !flags.hideText
	}
	if flags.set["max-text"] {
		cfg.Output.MaxTextChars = flags.maxText
	}
	if flags.set["inspect"] {
		cfg.Preflight.Enabled = flags.inspect
	}
	if flags.set["strict"] {
		cfg.Preflight.Strict = flags.strict
		if flags.strict {
			cfg.Preflight.Enabled = true
		}
	}
	if flags.set["quiet"] {
		cfg.Output.Quiet = flags.quiet
	}
	if flags.set["port"] {
		cfg.Web.Port = flags.webPort
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printProfiles(out io.Writer, cfg *config.Config) {
	names := cfg.ListProfiles()
	if len(names) == 0 {
		fmt.Fprintln(out, "No profiles defined")
		return
	}
	fmt.Fprintln(out, "Available profiles:")
	for _, name := range names {
		profile := cfg.GetProfile(name)
		if profile.Description != "" {
			fmt.Fprintf(out, "  %s - %s\n", name, profile.Description)
		} else {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
}

func newClient(cfg *config.Config) *upload.Client {
	return upload.NewClient(cfg.API.URL,
		upload.WithTimeout(cfg.API.Timeout),
		upload.WithUploadPath(cfg.API.UploadPath),
		upload.WithFieldName(cfg.API.FieldName),
	)
}

// newValidator chains the extension and size checks with the optional
// local inspection
func newValidator(cfg *config.Config, debugObs *observability.DebugObserver, warn preflight.Notifier) upload.Validator {
	basic := upload.NewBasicValidator(cfg.MaxFileSize())
	if !cfg.Preflight.Enabled {
		return basic
	}

	inspector := preflight.NewInspector(
		preflight.WithStrict(cfg.Preflight.Strict),
		preflight.WithMinTextChars(cfg.Preflight.MinTextChars),
		preflight.WithNotifier(warn),
		preflight.WithDebugObserver(debugObs),
	)
	return upload.Chain(basic, inspector)
}

// uploadPath opens path and runs it through the controller. The exit code is
// 0 only when the results panel was shown.
func uploadPath(ctx context.Context, controller *upload.Controller, view *console.View, path string) int {
	file, err := upload.OpenFile(paths.NormalizePath(path))
	if err != nil {
		view.Alert(err.Error())
		return 1
	}

	view.Prepare(file.Name)
	if err := controller.SelectFile(ctx, file); err != nil {
		return 1
	}
	if controller.Phase() != upload.PhaseResults {
		return 1
	}
	return 0
}

// runInteractive reads one path per line until quit, end of input or
// cancellation of ctx
func runInteractive(ctx context.Context, controller *upload.Controller, view *console.View, in io.Reader, status io.Writer, quiet bool) int {
	if !quiet {
		fmt.Fprintln(status, "Enter the path of a PDF to upload, 'reset' to start over or 'quit' to exit.")
	}

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines, readErr := readLines(readCtx, in)
	for {
		if !quiet {
			fmt.Fprint(status, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			if !quiet {
				fmt.Fprintln(status)
			}
			return 0
		case next, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					fmt.Fprintf(status, "Error reading input: %v\n", err)
					return 1
				}
				return 0
			}
			line = strings.TrimSpace(next)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return 0
		case "reset", "new":
			controller.Reset()
			continue
		}

		if controller.Phase() == upload.PhaseResults {
			controller.Reset()
		}
		uploadPath(ctx, controller, view, unquotePath(line))
	}
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. The error channel receives the scanner error once lines closes.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errs <- nil
				return
			}
		}
		errs <- scanner.Err()
	}()
	return lines, errs
}

// unquotePath undoes the quoting terminals apply to dropped files
func unquotePath(line string) string {
	if len(line) >= 2 {
		first, last := line[0], line[len(line)-1]
		if (first == '"' || first == '\'') && last == first {
			return line[1 : len(line)-1]
		}
	}
	return strings.ReplaceAll(line, `\ `, " ")
}

func runWeb(ctx context.Context, cfg *config.Config, client *upload.Client, debugObs *observability.DebugObserver, out io.Writer) error {
	// A zero API timeout leaves relayed uploads unbounded, like the CLI
	server := web.NewWebServer(web.Settings{
		Host:          cfg.Web.Host,
		Port:          cfg.Web.Port,
		Uploader:      client,
		MaxFileSize:   cfg.MaxFileSize(),
		Locale:        cfg.Output.Locale,
		ShowText:      cfg.Output.ShowText,
		MaxTextChars:  cfg.Output.MaxTextChars,
		Backend:       client.Endpoint(),
		UploadTimeout: cfg.API.Timeout,
		Health:        monitoring.NewHealthChecker(cfg.API.URL, nil, operationObserver(debugObs), nil),
		Debug:         debugObs,
		Observer:      operationObserver(debugObs),
		Out:           out,
		Validator: func(warn func(file *upload.SelectedFile, issues []string)) upload.Validator {
			return newValidator(cfg, debugObs, warn)
		},
	})
	return server.Start(ctx)
}

// operationObserver emits JSON operation records alongside the debug steps
func operationObserver(debugObs *observability.DebugObserver) *observability.StandardObserver {
	if debugObs == nil {
		return nil
	}
	return debugObs.StandardObserver
}

// isTerminal checks if w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
