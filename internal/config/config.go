// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pdf-summarizer/internal/paths"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DotEnvFile is read from the current directory before the environment is consulted
const DotEnvFile = ".env"

// APIURLEnv overrides the backend base URL from the config file
const APIURLEnv = "PDFSUM_API_URL"

// DefaultAPIURL is the local development backend
const DefaultAPIURL = "http://localhost:8000"

// Config represents the application configuration
type Config struct {
	// Backend connection
	API struct {
		URL        string        `yaml:"url"`
		UploadPath string        `yaml:"upload_path"`
		FieldName  string        `yaml:"field_name"`
		Timeout    time.Duration `yaml:"timeout"` // 0 means no timeout
	} `yaml:"api"`

	// Local checks before upload
	Upload struct {
		MaxFileSizeMB int64 `yaml:"max_file_size_mb"`
	} `yaml:"upload"`

	// Optional local PDF inspection
	Preflight struct {
		Enabled      bool `yaml:"enabled"`
		Strict       bool `yaml:"strict"`
		MinTextChars int  `yaml:"min_text_chars"`
	} `yaml:"preflight"`

	// Results panel rendering
	Output struct {
		Format       string `yaml:"format"`
		Locale       string `yaml:"locale"`
		NoColor      bool   `yaml:"no_color"`
		Quiet        bool   `yaml:"quiet"`
		Debug        bool   `yaml:"debug"`
		ShowText     bool   `yaml:"show_text"`
		MaxTextChars int    `yaml:"max_text_chars"`
	} `yaml:"output"`

	// Local browser console
	Web struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"web"`

	// Profiles for different backends
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile overrides a subset of settings, typically to target another backend
type Profile struct {
	Description string        `yaml:"description"`
	APIURL      string        `yaml:"api_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Format      string        `yaml:"format"`
	Locale      string        `yaml:"locale"`
	Preflight   *bool         `yaml:"preflight,omitempty"`
}

// MaxFileSize returns the upload limit in bytes
func (c *Config) MaxFileSize() int64 {
	return c.Upload.MaxFileSizeMB * 1024 * 1024
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	config := defaultConfig()

	// If no config file specified, return default config
	if configPath == "" {
		applyEnvironment(config)
		return config, nil
	}

	// Read config file
	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Store default values before unmarshaling
	defaultShowText := config.Output.ShowText

	// Parse YAML
	// Unknown keys are rejected so a misspelled setting is not silently ignored
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// YAML leaves bools false when absent; keep true defaults unless set
	if !containsField(data, "output", "show_text") {
		config.Output.ShowText = defaultShowText
	}
	if config.Profiles == nil {
		config.Profiles = make(map[string]Profile)
	}

	applyEnvironment(config)

	// Validate the configuration
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func defaultConfig() *Config {
	config := &Config{
		Profiles: make(map[string]Profile),
	}

	config.API.URL = DefaultAPIURL
	config.API.UploadPath = "/api/upload"
	config.API.FieldName = "file"
	config.API.Timeout = 0

	config.Upload.MaxFileSizeMB = 10

	config.Preflight.Enabled = false
	config.Preflight.Strict = false
	config.Preflight.MinTextChars = 50

	config.Output.Format = "text"
	config.Output.Locale = ""
	config.Output.ShowText = true
	config.Output.MaxTextChars = 0

	config.Web.Host = "127.0.0.1"
	config.Web.Port = "8080"

	return config
}

// applyEnvironment lets the environment override the config file
func applyEnvironment(config *Config) {
	if apiURL := strings.TrimSpace(os.Getenv(APIURLEnv)); apiURL != "" {
		config.API.URL = apiURL
	}
	if config.Output.Locale == "" {
		config.Output.Locale = localeFromEnv()
	}
}

// localeFromEnv derives a BCP 47 tag from LC_ALL / LC_NUMERIC / LANG,
// e.g. "it_IT.UTF-8" becomes "it-IT"
func localeFromEnv() string {
	for _, name := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		value := os.Getenv(name)
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		if i := strings.IndexAny(value, ".@"); i >= 0 {
			value = value[:i]
		}
		return strings.ReplaceAll(value, "_", "-")
	}
	return "en"
}

// LoadDotEnv loads path (DotEnvFile when empty) into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DotEnvFile
	}
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	// Project-specific config in the current directory first
	for _, name := range []string{"pdf-summarizer.yaml", "pdf-summarizer.yml", ".pdf-summarizer.yaml", ".pdf-summarizer.yml"} {
		if fileExists(name) {
			return name
		}
	}

	// Check standard location using platform-aware paths
	if standardConfig := paths.GetConfigFile(); fileExists(standardConfig) {
		return standardConfig
	}

	// Check legacy location in home directory
	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, ".pdf-summarizer.yaml")
		if fileExists(homeConfig) {
			return homeConfig
		}
	}

	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListProfiles returns a list of available profile names
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ApplyProfile copies the profile's non-empty settings over the defaults
func (c *Config) ApplyProfile(name string) error {
	profile := c.GetProfile(name)
	if profile == nil {
		return fmt.Errorf("profile '%s' not found", name)
	}

	if profile.APIURL != "" {
		c.API.URL = profile.APIURL
	}
	if profile.Timeout != 0 {
		c.API.Timeout = profile.Timeout
	}
	if profile.Format != "" {
		c.Output.Format = profile.Format
	}
	if profile.Locale != "" {
		c.Output.Locale = profile.Locale
	}
	if profile.Preflight != nil {
		c.Preflight.Enabled = *profile.Preflight
	}

	return ValidateConfig(c)
}

// containsField checks if a nested field exists in the YAML data
func containsField(data []byte, path ...string) bool {
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return false
	}

	current := yamlData
	for i, key := range path {
		if i == len(path)-1 {
			_, exists := current[key]
			return exists
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}
	return false
}

// ValidateConfig checks values that would otherwise fail at upload time
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := ValidateAPIURL(config.API.URL); err != nil {
		return err
	}

	if config.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("upload.max_file_size_mb must be positive, got %d", config.Upload.MaxFileSizeMB)
	}

	if config.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	switch config.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format '%s' (text, json, yaml)", config.Output.Format)
	}

	if config.Web.Port != "" {
		port, err := strconv.Atoi(config.Web.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid web.port '%s': must be between 1 and 65535", config.Web.Port)
		}
	}

	for name, profile := range config.Profiles {
		if profile.APIURL == "" {
			continue
		}
		if err := ValidateAPIURL(profile.APIURL); err != nil {
			return fmt.Errorf("profile '%s': %w", name, err)
		}
	}

	return nil
}

// ValidateAPIURL requires an absolute http(s) URL
func ValidateAPIURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid api url '%s': %w", raw, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid api url '%s': must be an absolute http or https URL", raw)
	}
	return nil
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns a default configuration
// and the load error so callers can warn.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		// A missing or broken config file must not stop the CLI
		cfg, _ = LoadConfig("")
		return cfg, err
	}
	return cfg, nil
}
