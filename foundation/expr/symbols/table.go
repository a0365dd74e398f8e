// File: table.go
// Title: Symbol Table
// Description: Collects the identifiers referenced by an expression. Each
//              lexeme maps to the type and id of its most recent occurrence:
//              registering a lexeme again overwrites the earlier entry.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial symbol table

package symbols

import (
	"errors"
	"fmt"
	"strings"

	"github.com/msto63/lexana/foundation/expr/token"
)

// ErrFrozen is returned by Register after Freeze
var ErrFrozen = errors.New("symbol table is frozen")

// Info is the metadata stored for a lexeme
type Info struct {
	Type token.Type `json:"type" yaml:"type"`
	ID   int        `json:"id" yaml:"id"`
}

// Entry is a lexeme with its metadata
type Entry struct {
	Lexeme string     `json:"lexeme" yaml:"lexeme"`
	Type   token.Type `json:"type" yaml:"type"`
	ID     int        `json:"id" yaml:"id"`
}

// Table maps lexemes to the metadata of their last occurrence. Entries keep
// the order in which each lexeme was first registered. A Table belongs to a
// single parse run and is not safe for concurrent use.
type Table struct {
	entries map[string]Info
	order   []string
	frozen  bool
}

// New creates an empty table
func New() *Table {
	return &Table{entries: make(map[string]Info)}
}

// Register stores tok under its lexeme, overwriting any previous entry
// (last write wins)
func (t *Table) Register(tok token.Token) error {
	if t.frozen {
		return fmt.Errorf("register %q: %w", tok.Lexeme, ErrFrozen)
	}
	if _, exists := t.entries[tok.Lexeme]; !exists {
		t.order = append(t.order, tok.Lexeme)
	}
	t.entries[tok.Lexeme] = Info{Type: tok.Type, ID: tok.ID}
	return nil
}

// Freeze makes the table read-only
func (t *Table) Freeze() {
	t.frozen = true
}

// Frozen reports whether Freeze was called
func (t *Table) Frozen() bool {
	return t.frozen
}

// Lookup returns the metadata stored for lexeme
func (t *Table) Lookup(lexeme string) (Info, bool) {
	info, ok := t.entries[lexeme]
	return info, ok
}

// Len returns the number of distinct lexemes
func (t *Table) Len() int {
	return len(t.entries)
}

// Snapshot returns a copy of the current mapping
func (t *Table) Snapshot() map[string]Info {
	snap := make(map[string]Info, len(t.entries))
	for k, v := range t.entries {
		snap[k] = v
	}
	return snap
}

// Entries returns the entries in first-registration order
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, lexeme := range t.order {
		info := t.entries[lexeme]
		entries = append(entries, Entry{Lexeme: lexeme, Type: info.Type, ID: info.ID})
	}
	return entries
}

// String lists the entries as "lexeme: TYPE (ID: n)" lines
func (t *Table) String() string {
	var sb strings.Builder
	for _, e := range t.Entries() {
		fmt.Fprintf(&sb, "%s: %s (ID: %d)\n", e.Lexeme, e.Type, e.ID)
	}
	return sb.String()
}
