// File: errors.go
// Title: Parse Errors
// Description: Structured errors reported by the expression parser.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial error kinds

package parser

import (
	"fmt"

	"github.com/msto63/lexana/foundation/expr/token"
)

// ErrorKind classifies a parse error
type ErrorKind int

const (
	// UnexpectedToken: the current token does not have the required type
	UnexpectedToken ErrorKind = iota + 1
	// InvalidInF: the lookahead at F is neither LPAREN nor ID
	InvalidInF
	// TrailingInput: tokens remain after the expression (strict mode)
	TrailingInput
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case InvalidInF:
		return "invalid token in F"
	case TrailingInput:
		return "trailing input"
	default:
		return "unknown"
	}
}

// ParseError reports the first mismatch found by the parser
type ParseError struct {
	Kind ErrorKind

	// Expected is set for UnexpectedToken only
	Expected token.Type

	// Found is the offending token, nil at end of input
	Found *token.Token

	// Index is the position of the cursor in the token sequence
	Index int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case UnexpectedToken:
		return fmt.Sprintf("expected %s, found %s", e.Expected, e.found())
	case InvalidInF:
		return fmt.Sprintf("invalid token in F: found %s", e.found())
	case TrailingInput:
		return fmt.Sprintf("unexpected trailing input: found %s", e.found())
	default:
		return fmt.Sprintf("parse error at token %d", e.Index)
	}
}

// AtEnd reports whether the error was raised at end of input
func (e *ParseError) AtEnd() bool {
	return e.Found == nil
}

func (e *ParseError) found() string {
	if e.Found == nil {
		return "none"
	}
	return e.Found.String()
}
