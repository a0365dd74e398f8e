// Package error provides structured error handling for lexana.
//
// Package: error
// Title: Structured Error Handling
// Description: Errors carry a code, a severity, details and the failing
//              operation. The expression core returns its own typed errors;
//              service layers wrap them here so transports can map codes onto
//              HTTP and gRPC statuses while errors.As still reaches the typed
//              error underneath.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-17 v0.2.0: Analysis codes, transport status mapping
//
// Usage:
//
//	err := mdwerror.Wrap(parseErr, "analysis rejected").
//		WithCode(mdwerror.CodeSyntax).
//		WithDetail("input", input)
//
//	if mdwerror.HasCode(err, mdwerror.CodeSyntax) {
//		// report the rejection to the user
//	}
package error
