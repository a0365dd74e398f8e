// ============================================================================
// lexana - LL(1) expression front end
// ============================================================================
//
// Package:     version
// Description: Central version management for the CLI and servers
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants
const (
	// Platform version
	Platform = "0.1.0"

	// Component versions
	Lexer    = "0.1.0"
	Parser   = "0.1.0"
	Analyzer = "0.1.0"
	History  = "0.1.0"

	// APIVersion is the version segment of HTTP routes and gRPC package names
	APIVersion = "v1"
)

// Commit is set at build time with -ldflags "-X .../version.Commit=..."
var Commit = "dev"

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "lexer":
		return Lexer
	case "parser":
		return Parser
	case "analyzer":
		return Analyzer
	case "history":
		return History
	default:
		return Platform
	}
}

// String returns the one-line version banner
func String() string {
	return fmt.Sprintf("lexana %s (%s, %s %s/%s)", Platform, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
