// File: table_test.go
// Title: Symbol Table Tests
// Description: Tests for last-write-wins registration, ordering, snapshots
//              and freezing.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial tests

package symbols

import (
	"errors"
	"reflect"
	"testing"

	"github.com/msto63/lexana/foundation/expr/token"
)

func TestTable_RegisterLastWriteWins(t *testing.T) {
	table := New()
	first := token.New(token.ID, "x", 1, 0)
	second := token.New(token.ID, "x", 3, 4)

	for _, tok := range []token.Token{first, second} {
		if err := table.Register(tok); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}
	info, ok := table.Lookup("x")
	if !ok {
		t.Fatal("Lookup(x) not found")
	}
	if info.ID != second.ID {
		t.Errorf("ID = %d, want %d (second occurrence)", info.ID, second.ID)
	}
}

func TestTable_EntriesKeepFirstRegistrationOrder(t *testing.T) {
	table := New()
	for i, lexeme := range []string{"b", "a", "b", "c"} {
		table.Register(token.New(token.ID, lexeme, i+1, i))
	}

	want := []Entry{
		{Lexeme: "b", Type: token.ID, ID: 3},
		{Lexeme: "a", Type: token.ID, ID: 2},
		{Lexeme: "c", Type: token.ID, ID: 4},
	}
	if got := table.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
	if got := table.String(); got != "b: ID (ID: 3)\na: ID (ID: 2)\nc: ID (ID: 4)\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestTable_SnapshotIsCopy(t *testing.T) {
	table := New()
	table.Register(token.New(token.ID, "x", 1, 0))

	snap := table.Snapshot()
	snap["y"] = Info{Type: token.ID, ID: 7}
	delete(snap, "x")

	if _, ok := table.Lookup("x"); !ok {
		t.Error("deleting from snapshot changed the table")
	}
	if _, ok := table.Lookup("y"); ok {
		t.Error("adding to snapshot changed the table")
	}
}

func TestTable_Freeze(t *testing.T) {
	table := New()
	table.Register(token.New(token.ID, "x", 1, 0))
	table.Freeze()

	err := table.Register(token.New(token.ID, "x", 2, 2))
	if !errors.Is(err, ErrFrozen) {
		t.Errorf("Register() after Freeze error = %v, want ErrFrozen", err)
	}
	if info, _ := table.Lookup("x"); info.ID != 1 {
		t.Errorf("frozen entry overwritten: %+v", info)
	}
	if !table.Frozen() {
		t.Error("Frozen() = false after Freeze")
	}
}
