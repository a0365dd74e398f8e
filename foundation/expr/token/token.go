// File: token.go
// Title: Expression Token Model
// Description: Defines the token types of the expression grammar and the
//              immutable Token record emitted by the tokenizer and held as
//              leaf by the parse tree.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial token model

package token

import (
	"fmt"
	"strings"
)

// Type represents the type of a lexical token
type Type int

const (
	// Operators
	PLUS  Type = iota + 1 // +
	TIMES                 // *

	// Delimiters
	LPAREN // (
	RPAREN // )

	// Identifiers
	ID // [a-zA-Z0-9]+

	// EPSILON marks the end of a tail production in the parse tree
	EPSILON
)

// EpsilonLexeme is the lexeme carried by EPSILON leaves
const EpsilonLexeme = "Ɛ"

var typeNames = map[Type]string{
	PLUS:    "PLUS",
	TIMES:   "TIMES",
	LPAREN:  "LPAREN",
	RPAREN:  "RPAREN",
	ID:      "ID",
	EPSILON: "EPSILON",
}

// String returns the name of the token type
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsValid reports whether t is one of the declared token types
func (t Type) IsValid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType parses a token type name such as "PLUS" (case-insensitive)
func ParseType(name string) (Type, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == upper {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown token type: %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Token is a single lexical token. Tokens are passed by value and never
// modified after the tokenizer created them.
type Token struct {
	Type   Type   `json:"type" yaml:"type"`
	Lexeme string `json:"lexeme" yaml:"lexeme"`
	ID     int    `json:"id" yaml:"id"`
	Pos    int    `json:"pos" yaml:"pos"` // rune offset in the input, -1 for EPSILON
}

// New creates a token
func New(typ Type, lexeme string, id, pos int) Token {
	return Token{Type: typ, Lexeme: lexeme, ID: id, Pos: pos}
}

// Epsilon returns the marker leaf inserted when a tail production ends.
// It does not come from the input and therefore has id 0.
func Epsilon() Token {
	return Token{Type: EPSILON, Lexeme: EpsilonLexeme, ID: 0, Pos: -1}
}

// IsEpsilon reports whether the token is the epsilon marker
func (t Token) IsEpsilon() bool {
	return t.Type == EPSILON
}

// String returns the listing form "TYPE (ID: n): lexeme"
func (t Token) String() string {
	return fmt.Sprintf("%s (ID: %d): %s", t.Type, t.ID, t.Lexeme)
}
