// File: severity.go
// Title: Error Severity Levels
// Description: Severity classification for structured errors and the
//              default severity derived from an error code.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial severity levels
// - 2026-10-17 v0.2.0: Severity mapping for analysis codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates rejected user input
	SeverityLow Severity = iota

	// SeverityMedium indicates a degraded but working system
	SeverityMedium

	// SeverityHigh indicates a failing dependency such as the history database
	SeverityHigh

	// SeverityCritical indicates the process cannot continue
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeInternal:
		return SeverityCritical
	case CodeDatabaseError, CodeServiceUnavailable, CodeConfigError, CodeInvalidConfig:
		return SeverityHigh
	case CodeLexical, CodeSyntax, CodeTrailingInput, CodeInputTooLong,
		CodeInvalidInput, CodeNotFound:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
