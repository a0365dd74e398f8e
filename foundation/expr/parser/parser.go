// File: parser.go
// Title: Expression Recursive Descent Parser
// Description: LL(1) parser for the expression grammar
//
//                E  -> T E'
//                E' -> '+' T E' | ε
//                T  -> F T'
//                T' -> '*' F T' | ε
//                F  -> '(' E ')' | ID
//
//              Builds the concrete parse tree and registers every consumed
//              identifier in the run's symbol table.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial parser implementation

package parser

import (
	"fmt"

	mdwlog "github.com/msto63/lexana/foundation/core/log"
	"github.com/msto63/lexana/foundation/expr/ast"
	"github.com/msto63/lexana/foundation/expr/symbols"
	"github.com/msto63/lexana/foundation/expr/token"
)

// Parser parses token sequences. It holds configuration only; every call to
// Parse uses its own cursor and symbol table.
type Parser struct {
	logger  *mdwlog.Logger
	options Options
}

// Options configures parser behavior
type Options struct {
	Logger *mdwlog.Logger

	// AllowTrailing accepts token sequences with tokens left after E.
	// By default the whole sequence must be consumed.
	AllowTrailing bool
}

// Outcome is the result of a successful parse
type Outcome struct {
	Tree    *ast.Node
	Symbols *symbols.Table

	// Consumed is the number of tokens consumed by E
	Consumed int
}

// New creates a parser with the given options
func New(opts Options) *Parser {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	return &Parser{
		logger:  opts.Logger.WithField("component", "parser"),
		options: opts,
	}
}

// Parse parses tokens starting at E. On error no tree is returned.
func (p *Parser) Parse(tokens []token.Token) (*Outcome, error) {
	r := &run{tokens: tokens, table: symbols.New()}

	tree, err := r.parseE()
	if err != nil {
		p.logger.Debug("parsing failed", mdwlog.Fields{
			"tokens": len(tokens),
			"index":  r.i,
			"error":  err.Error(),
		})
		return nil, err
	}

	if r.i < len(tokens) {
		if !p.options.AllowTrailing {
			found := tokens[r.i]
			return nil, &ParseError{Kind: TrailingInput, Found: &found, Index: r.i}
		}
		p.logger.Debug("ignoring trailing tokens", mdwlog.Fields{
			"consumed": r.i,
			"tokens":   len(tokens),
		})
	}

	r.table.Freeze()
	p.logger.Debug("parsing completed", mdwlog.Fields{
		"tokens":  len(tokens),
		"symbols": r.table.Len(),
	})
	return &Outcome{Tree: tree, Symbols: r.table, Consumed: r.i}, nil
}

// run is the state of a single parse: cursor and symbol table
type run struct {
	tokens []token.Token
	i      int
	table  *symbols.Table
}

// current returns the token under the cursor, ok is false at end of input
func (r *run) current() (token.Token, bool) {
	if r.i < len(r.tokens) {
		return r.tokens[r.i], true
	}
	return token.Token{}, false
}

// peekIs reports whether the current token has type typ
func (r *run) peekIs(typ token.Type) bool {
	tok, ok := r.current()
	return ok && tok.Type == typ
}

// expect consumes and returns the current token if it has type typ
func (r *run) expect(typ token.Type) (token.Token, error) {
	tok, ok := r.current()
	if !ok {
		return token.Token{}, &ParseError{Kind: UnexpectedToken, Expected: typ, Index: r.i}
	}
	if tok.Type != typ {
		return token.Token{}, &ParseError{Kind: UnexpectedToken, Expected: typ, Found: &tok, Index: r.i}
	}
	r.i++
	return tok, nil
}

// parseE parses E -> T E'
func (r *run) parseE() (*ast.Node, error) {
	t, err := r.parseT()
	if err != nil {
		return nil, err
	}
	ep, err := r.parseEPrime()
	if err != nil {
		return nil, err
	}
	return ast.NewNode(ast.E, ast.NodeOf(t), ast.NodeOf(ep)), nil
}

// parseEPrime parses E' -> '+' T E' | ε
func (r *run) parseEPrime() (*ast.Node, error) {
	if !r.peekIs(token.PLUS) {
		return ast.NewNode(ast.EPrime, ast.LeafOf(token.Epsilon())), nil
	}
	plus, err := r.expect(token.PLUS)
	if err != nil {
		return nil, err
	}
	t, err := r.parseT()
	if err != nil {
		return nil, err
	}
	ep, err := r.parseEPrime()
	if err != nil {
		return nil, err
	}
	return ast.NewNode(ast.EPrime, ast.LeafOf(plus), ast.NodeOf(t), ast.NodeOf(ep)), nil
}

// parseT parses T -> F T'
func (r *run) parseT() (*ast.Node, error) {
	f, err := r.parseF()
	if err != nil {
		return nil, err
	}
	tp, err := r.parseTPrime()
	if err != nil {
		return nil, err
	}
	return ast.NewNode(ast.T, ast.NodeOf(f), ast.NodeOf(tp)), nil
}

// parseTPrime parses T' -> '*' F T' | ε
func (r *run) parseTPrime() (*ast.Node, error) {
	if !r.peekIs(token.TIMES) {
		return ast.NewNode(ast.TPrime, ast.LeafOf(token.Epsilon())), nil
	}
	times, err := r.expect(token.TIMES)
	if err != nil {
		return nil, err
	}
	f, err := r.parseF()
	if err != nil {
		return nil, err
	}
	tp, err := r.parseTPrime()
	if err != nil {
		return nil, err
	}
	return ast.NewNode(ast.TPrime, ast.LeafOf(times), ast.NodeOf(f), ast.NodeOf(tp)), nil
}

// parseF parses F -> '(' E ')' | ID
func (r *run) parseF() (*ast.Node, error) {
	tok, ok := r.current()
	switch {
	case ok && tok.Type == token.LPAREN:
		lparen, err := r.expect(token.LPAREN)
		if err != nil {
			return nil, err
		}
		e, err := r.parseE()
		if err != nil {
			return nil, err
		}
		rparen, err := r.expect(token.RPAREN)
		if err != nil {
			return nil, err
		}
		return ast.NewNode(ast.F, ast.LeafOf(lparen), ast.NodeOf(e), ast.LeafOf(rparen)), nil

	case ok && tok.Type == token.ID:
		id, err := r.expect(token.ID)
		if err != nil {
			return nil, err
		}
		if err := r.table.Register(id); err != nil {
			return nil, fmt.Errorf("register identifier: %w", err)
		}
		return ast.NewNode(ast.F, ast.LeafOf(id)), nil

	case ok:
		return nil, &ParseError{Kind: InvalidInF, Found: &tok, Index: r.i}

	default:
		return nil, &ParseError{Kind: InvalidInF, Index: r.i}
	}
}

var defaultParser = New(Options{Logger: mdwlog.NewNop()})

// Parse parses tokens with the default strict parser
func Parse(tokens []token.Token) (*Outcome, error) {
	return defaultParser.Parse(tokens)
}
