// File: expr.go
// Title: Expression Front End
// Description: Combines tokenizer and parser into a single Analyze call
//              returning the token sequence, parse tree and symbol table.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial front end facade

package expr

import (
	"time"

	mdwlog "github.com/msto63/lexana/foundation/core/log"
	"github.com/msto63/lexana/foundation/expr/ast"
	"github.com/msto63/lexana/foundation/expr/lexer"
	"github.com/msto63/lexana/foundation/expr/parser"
	"github.com/msto63/lexana/foundation/expr/symbols"
	"github.com/msto63/lexana/foundation/expr/token"
)

// Options configures the front end
type Options struct {
	Logger        *mdwlog.Logger
	NormalizeNFC  bool
	MatchTimeout  time.Duration
	AllowTrailing bool
}

// Analysis is the result of tokenizing and parsing one input
type Analysis struct {
	Tokens  []token.Token
	Tree    *ast.Node
	Symbols *symbols.Table
}

// Analyzer tokenizes and parses expressions. It is safe for concurrent use.
type Analyzer struct {
	tokenizer *lexer.Tokenizer
	parser    *parser.Parser
}

// New creates an analyzer
func New(opts Options) (*Analyzer, error) {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}

	tokenizer, err := lexer.New(lexer.Options{
		Logger:       opts.Logger,
		NormalizeNFC: opts.NormalizeNFC,
		MatchTimeout: opts.MatchTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		tokenizer: tokenizer,
		parser: parser.New(parser.Options{
			Logger:        opts.Logger,
			AllowTrailing: opts.AllowTrailing,
		}),
	}, nil
}

// Tokenize returns the tokens of input
func (a *Analyzer) Tokenize(input string) ([]token.Token, error) {
	return a.tokenizer.Tokenize(input)
}

// Analyze tokenizes and parses input. When parsing fails the tokens are
// still returned together with the error.
func (a *Analyzer) Analyze(input string) (*Analysis, error) {
	tokens, err := a.tokenizer.Tokenize(input)
	if err != nil {
		return nil, err
	}

	out, err := a.parser.Parse(tokens)
	if err != nil {
		return &Analysis{Tokens: tokens}, err
	}
	return &Analysis{Tokens: tokens, Tree: out.Tree, Symbols: out.Symbols}, nil
}

// Accepted reports whether the analysis produced a tree
func (a *Analysis) Accepted() bool {
	return a != nil && a.Tree != nil
}

// Analyze tokenizes and parses input with the default strict settings
func Analyze(input string) (*Analysis, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	out, err := parser.Parse(tokens)
	if err != nil {
		return &Analysis{Tokens: tokens}, err
	}
	return &Analysis{Tokens: tokens, Tree: out.Tree, Symbols: out.Symbols}, nil
}
