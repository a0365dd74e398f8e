// File: codes.go
// Title: Error Codes
// Description: Defines the structured error codes used across lexana and
//              their mapping onto categories, HTTP and gRPC status codes.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial error codes
// - 2026-10-17 v0.2.0: Codes for the expression front end

package error

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Analysis
	CodeLexical       Code = "LEXICAL"
	CodeSyntax        Code = "SYNTAX"
	CodeTrailingInput Code = "TRAILING_INPUT"
	CodeInputTooLong  Code = "INPUT_TOO_LONG"

	// Storage
	CodeDatabaseError Code = "DATABASE_ERROR"

	// Service and network
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeNetworkError       Code = "NETWORK_ERROR"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout,
		CodeLexical, CodeSyntax, CodeTrailingInput, CodeInputTooLong,
		CodeDatabaseError, CodeServiceUnavailable, CodeNetworkError,
		CodeConfigError, CodeInvalidConfig:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeLexical, CodeSyntax, CodeTrailingInput, CodeInputTooLong:
		return "analysis"
	case CodeDatabaseError:
		return "database"
	case CodeServiceUnavailable, CodeNetworkError:
		return "service"
	case CodeConfigError, CodeInvalidConfig:
		return "configuration"
	default:
		return "generic"
	}
}

// IsRejection reports whether the code means the input was rejected by the
// analyzer, as opposed to the analyzer itself failing.
func (c Code) IsRejection() bool {
	return c.Category() == "analysis"
}

// HTTPStatus returns the appropriate HTTP status code for this error code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeLexical, CodeSyntax, CodeTrailingInput:
		return http.StatusUnprocessableEntity
	case CodeInputTooLong:
		return http.StatusRequestEntityTooLarge
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeServiceUnavailable, CodeDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode returns the gRPC status code for this error code
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeNotFound:
		return codes.NotFound
	case CodeInvalidInput, CodeLexical, CodeSyntax, CodeTrailingInput:
		return codes.InvalidArgument
	case CodeInputTooLong:
		return codes.ResourceExhausted
	case CodeTimeout:
		return codes.DeadlineExceeded
	case CodeServiceUnavailable, CodeDatabaseError:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
