// File: nodes_test.go
// Title: Parse Tree Tests
// Description: Tests for node construction, immutability, bracket form and
//              traversal.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial tests

package ast

import (
	"testing"

	"github.com/msto63/lexana/foundation/expr/token"
)

// tree for the input "x": E -> [T -> [F -> [x], T' -> [Ɛ]], E' -> [Ɛ]]
func singleIdentifierTree() *Node {
	x := token.New(token.ID, "x", 1, 0)
	f := NewNode(F, LeafOf(x))
	tp := NewNode(TPrime, LeafOf(token.Epsilon()))
	t := NewNode(T, NodeOf(f), NodeOf(tp))
	ep := NewNode(EPrime, LeafOf(token.Epsilon()))
	return NewNode(E, NodeOf(t), NodeOf(ep))
}

func TestNode_String(t *testing.T) {
	got := singleIdentifierTree().String()
	want := "E -> [T -> [F -> [ID (ID: 1): x], T' -> [EPSILON (ID: 0): Ɛ]], E' -> [EPSILON (ID: 0): Ɛ]]"
	if got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestNewNode_CopiesChildren(t *testing.T) {
	children := []Element{LeafOf(token.Epsilon())}
	n := NewNode(EPrime, children...)

	children[0] = LeafOf(token.New(token.ID, "y", 9, 0))
	if tok, _ := n.Child(0).Leaf(); !tok.IsEpsilon() {
		t.Error("node changed when the caller's slice was modified")
	}

	got := n.Children()
	got[0] = LeafOf(token.New(token.ID, "z", 9, 0))
	if tok, _ := n.Child(0).Leaf(); !tok.IsEpsilon() {
		t.Error("node changed through the Children() copy")
	}
}

func TestNewNode_PanicsWithoutChildren(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewNode() without children should panic")
		}
	}()
	NewNode(E)
}

func TestElement_Kind(t *testing.T) {
	leaf := LeafOf(token.New(token.PLUS, "+", 2, 1))
	if leaf.Kind() != LeafElement || leaf.Node() != nil {
		t.Errorf("leaf element = %v / %v", leaf.Kind(), leaf.Node())
	}
	if _, ok := leaf.Leaf(); !ok {
		t.Error("Leaf() ok = false for a leaf")
	}

	node := NodeOf(singleIdentifierTree())
	if node.Kind() != NodeElement || node.Node() == nil {
		t.Errorf("node element = %v / %v", node.Kind(), node.Node())
	}
	if _, ok := node.Leaf(); ok {
		t.Error("Leaf() ok = true for a node")
	}
}

func TestNode_WalkAndStats(t *testing.T) {
	tree := singleIdentifierTree()

	var names []string
	tree.Walk(func(el Element, depth int) bool {
		if el.Kind() == NodeElement {
			names = append(names, string(el.Node().Name()))
		}
		return true
	})
	want := []string{"E", "T", "F", "T'", "E'"}
	if len(names) != len(want) {
		t.Fatalf("visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("visit[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	stats := tree.Stats()
	if stats != (Stats{Nodes: 5, Leaves: 3, Epsilons: 2, Depth: 3}) {
		t.Errorf("Stats() = %+v", stats)
	}

	leaves := tree.Leaves()
	if len(leaves) != 3 || leaves[0].Lexeme != "x" {
		t.Errorf("Leaves() = %v", leaves)
	}
}

func TestNode_WalkSkipsChildren(t *testing.T) {
	visited := 0
	singleIdentifierTree().Walk(func(el Element, depth int) bool {
		visited++
		return depth < 1
	})
	// root plus its two direct children
	if visited != 3 {
		t.Errorf("visited = %d, want 3", visited)
	}
}

func TestNode_Equal(t *testing.T) {
	a, b := singleIdentifierTree(), singleIdentifierTree()
	if !a.Equal(b) {
		t.Error("identical trees reported unequal")
	}
	other := NewNode(E, NodeOf(a.Child(0).Node()), NodeOf(NewNode(EPrime, LeafOf(token.New(token.ID, "q", 5, 3)))))
	if a.Equal(other) {
		t.Error("different trees reported equal")
	}
}
