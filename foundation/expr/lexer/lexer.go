// File: lexer.go
// Title: Expression Tokenizer
// Description: Converts expression strings into token sequences. Patterns
//              are tried in a fixed declared order at the cursor and the
//              first one that matches wins. Whitespace is consumed without
//              emitting a token. Every run numbers its tokens from 1.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial tokenizer on an ordered regexp2 pattern table

package lexer

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"

	mdwlog "github.com/msto63/lexana/foundation/core/log"
	"github.com/msto63/lexana/foundation/expr/token"
)

// DefaultMatchTimeout bounds a single pattern match
const DefaultMatchTimeout = 100 * time.Millisecond

// Pattern is one entry of the ordered pattern table
type Pattern struct {
	Name string
	Expr string
	Type token.Type // zero for patterns whose matches are discarded
}

// Patterns is the pattern table in match order. Earlier entries win when
// more than one pattern matches at the cursor.
var Patterns = []Pattern{
	{Name: "PLUS", Expr: `\+`, Type: token.PLUS},
	{Name: "TIMES", Expr: `\*`, Type: token.TIMES},
	{Name: "LPAREN", Expr: `\(`, Type: token.LPAREN},
	{Name: "RPAREN", Expr: `\)`, Type: token.RPAREN},
	{Name: "ID", Expr: `[a-zA-Z0-9]+`, Type: token.ID},
	{Name: "WHITESPACE", Expr: `\s+`},
}

// Options configures tokenizer behavior
type Options struct {
	Logger *mdwlog.Logger

	// NormalizeNFC applies Unicode NFC normalization before scanning
	NormalizeNFC bool

	// MatchTimeout bounds each pattern match; zero uses DefaultMatchTimeout
	MatchTimeout time.Duration
}

// LexError reports that no pattern matched at Position
type LexError struct {
	Position int  // rune offset of the offending character
	Char     rune // the offending character
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unexpected character %q at position %d", e.Char, e.Position)
}

type rule struct {
	name string
	typ  token.Type
	re   *regexp2.Regexp
}

func (r rule) discard() bool {
	return r.typ == 0
}

// Tokenizer holds the compiled pattern table. It keeps no per-run state
// and may be shared between goroutines.
type Tokenizer struct {
	rules   []rule
	logger  *mdwlog.Logger
	options Options
}

// New compiles the pattern table and returns a tokenizer
func New(opts Options) (*Tokenizer, error) {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.MatchTimeout <= 0 {
		opts.MatchTimeout = DefaultMatchTimeout
	}

	rules := make([]rule, 0, len(Patterns))
	for _, p := range Patterns {
		re, err := regexp2.Compile("^(?:"+p.Expr+")", regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %s: %w", p.Name, err)
		}
		re.MatchTimeout = opts.MatchTimeout
		rules = append(rules, rule{name: p.Name, typ: p.Type, re: re})
	}

	return &Tokenizer{
		rules:   rules,
		logger:  opts.Logger.WithField("component", "lexer"),
		options: opts,
	}, nil
}

// Tokenize scans input and returns its tokens. On a *LexError no tokens are
// returned; the whole call is failed.
func (t *Tokenizer) Tokenize(input string) ([]token.Token, error) {
	if t.options.NormalizeNFC {
		input = norm.NFC.String(input)
	}

	s := &scanner{
		rules:  t.rules,
		input:  []rune(input),
		nextID: 1,
		trace:  t.logger.IsLevelEnabled(mdwlog.LevelTrace),
		logger: t.logger,
	}

	tokens, err := s.run()
	if err != nil {
		t.logger.Debug("tokenization failed", mdwlog.Fields{
			"input": input,
			"error": err.Error(),
		})
		return nil, err
	}

	t.logger.Debug("tokenization completed", mdwlog.Fields{
		"input":  input,
		"tokens": len(tokens),
	})
	return tokens, nil
}

// scanner is the state of a single run: the cursor and its own id counter
type scanner struct {
	rules  []rule
	input  []rune
	pos    int
	nextID int
	tokens []token.Token
	trace  bool
	logger *mdwlog.Logger
}

func (s *scanner) run() ([]token.Token, error) {
	for s.pos < len(s.input) {
		r, length, err := s.match()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, &LexError{Position: s.pos, Char: s.input[s.pos]}
		}

		start := s.pos
		s.pos += length
		if r.discard() {
			continue
		}
		s.emit(r.typ, string(s.input[start:s.pos]), start)
	}
	return s.tokens, nil
}

// match returns the first rule matching at the cursor and the match length
func (s *scanner) match() (*rule, int, error) {
	rest := s.input[s.pos:]
	for i := range s.rules {
		m, err := s.rules[i].re.FindRunesMatch(rest)
		if err != nil {
			return nil, 0, fmt.Errorf("pattern %s at position %d: %w", s.rules[i].name, s.pos, err)
		}
		if m != nil && m.Length > 0 {
			return &s.rules[i], m.Length, nil
		}
	}
	return nil, 0, nil
}

func (s *scanner) emit(typ token.Type, lexeme string, pos int) {
	tok := token.New(typ, lexeme, s.nextID, pos)
	s.nextID++
	s.tokens = append(s.tokens, tok)

	if s.trace {
		s.logger.Trace("token emitted", mdwlog.Fields{
			"type":   typ.String(),
			"lexeme": lexeme,
			"id":     tok.ID,
			"pos":    pos,
		})
	}
}

var defaultTokenizer *Tokenizer

func init() {
	var err error
	defaultTokenizer, err = New(Options{Logger: mdwlog.NewNop()})
	if err != nil {
		panic(err)
	}
}

// Tokenize scans input with the default tokenizer
func Tokenize(input string) ([]token.Token, error) {
	return defaultTokenizer.Tokenize(input)
}
