// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package version carries build metadata injected with
// -ldflags "-X pdf-summarizer/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name used in banners and the User-Agent
const Name = "pdf-summarizer"

var (
	Version   = "0.0.0-development"
	GitCommit = "unknown"
	BuildDate = "unknown"

	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
)

// Info returns the one-line banner printed by -version
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s, platform: %s)",
		Name, Version, GitCommit, BuildDate, GoVersion, Platform)
}

// Short returns just the version number
func Short() string {
	return Version
}

// UserAgent identifies upload requests to the backend
func UserAgent() string {
	return Name + "/" + Version
}

// Full returns the build metadata reported by the web console's /health
func Full() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    GitCommit,
		"buildDate": BuildDate,
		"goVersion": GoVersion,
		"platform":  Platform,
	}
}
