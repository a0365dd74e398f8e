// File: nodes.go
// Title: Parse Tree Nodes
// Description: Node and Element types of the parse tree together with their
//              accessors and the bracket string form.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial node definitions

package ast

import (
	"fmt"
	"strings"

	"github.com/msto63/lexana/foundation/expr/token"
)

// Symbol is a nonterminal of the expression grammar
type Symbol string

const (
	E      Symbol = "E"
	EPrime Symbol = "E'"
	T      Symbol = "T"
	TPrime Symbol = "T'"
	F      Symbol = "F"
)

// IsValid reports whether s is one of the grammar's nonterminals
func (s Symbol) IsValid() bool {
	switch s {
	case E, EPrime, T, TPrime, F:
		return true
	}
	return false
}

// ElementKind tags the variant held by an Element
type ElementKind int

const (
	// NodeElement holds a nested *Node
	NodeElement ElementKind = iota + 1
	// LeafElement holds a token
	LeafElement
)

func (k ElementKind) String() string {
	switch k {
	case NodeElement:
		return "node"
	case LeafElement:
		return "leaf"
	default:
		return "invalid"
	}
}

// Element is one child of a Node: either a nested node or a token leaf
type Element struct {
	kind ElementKind
	node *Node
	leaf token.Token
}

// NodeOf wraps a node as a child element
func NodeOf(n *Node) Element {
	return Element{kind: NodeElement, node: n}
}

// LeafOf wraps a token as a child element
func LeafOf(tok token.Token) Element {
	return Element{kind: LeafElement, leaf: tok}
}

// Kind returns which variant the element holds
func (e Element) Kind() ElementKind {
	return e.kind
}

// Node returns the nested node, or nil for leaves
func (e Element) Node() *Node {
	return e.node
}

// Leaf returns the token of a leaf element; ok is false for nodes
func (e Element) Leaf() (tok token.Token, ok bool) {
	return e.leaf, e.kind == LeafElement
}

// String returns the bracket form of a node or the listing form of a leaf
func (e Element) String() string {
	switch e.kind {
	case NodeElement:
		return e.node.String()
	case LeafElement:
		return e.leaf.String()
	default:
		return "<invalid>"
	}
}

// Node is an internal parse tree node
type Node struct {
	name     Symbol
	children []Element
}

// NewNode builds a node from its children in production order. Nodes never
// have an empty children list; NewNode panics if called without children.
func NewNode(name Symbol, children ...Element) *Node {
	if len(children) == 0 {
		panic(fmt.Sprintf("ast: node %s built without children", name))
	}
	c := make([]Element, len(children))
	copy(c, children)
	return &Node{name: name, children: c}
}

// Name returns the grammar symbol of the node
func (n *Node) Name() Symbol {
	return n.name
}

// Len returns the number of children
func (n *Node) Len() int {
	return len(n.children)
}

// Child returns the i-th child
func (n *Node) Child(i int) Element {
	return n.children[i]
}

// Children returns a copy of the ordered children
func (n *Node) Children() []Element {
	c := make([]Element, len(n.children))
	copy(c, n.children)
	return c
}

// String returns the bracket form "E -> [T -> [...], E' -> [...]]"
func (n *Node) String() string {
	var sb strings.Builder
	n.writeBracket(&sb)
	return sb.String()
}

func (n *Node) writeBracket(sb *strings.Builder) {
	sb.WriteString(string(n.name))
	sb.WriteString(" -> [")
	for i, child := range n.children {
		if i > 0 {
			sb.WriteString(", ")
		}
		if child.kind == NodeElement {
			child.node.writeBracket(sb)
		} else {
			sb.WriteString(child.leaf.String())
		}
	}
	sb.WriteString("]")
}

// Equal reports whether two trees have the same shape, names and leaves
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.name != other.name || len(n.children) != len(other.children) {
		return false
	}
	for i := range n.children {
		a, b := n.children[i], other.children[i]
		if a.kind != b.kind {
			return false
		}
		switch a.kind {
		case NodeElement:
			if !a.node.Equal(b.node) {
				return false
			}
		case LeafElement:
			if a.leaf != b.leaf {
				return false
			}
		}
	}
	return true
}
