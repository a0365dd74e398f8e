// File: visitor.go
// Title: Parse Tree Traversal
// Description: Depth-first traversal of the parse tree and helpers built on
//              it for collecting leaves and counting nodes.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial traversal helpers

package ast

import "github.com/msto63/lexana/foundation/expr/token"

// WalkFunc is called for every element in pre-order with its depth, the
// root being at depth 0. Returning false skips the children of a node.
type WalkFunc func(el Element, depth int) bool

// Walk traverses the tree rooted at n depth-first in child order
func (n *Node) Walk(fn WalkFunc) {
	walk(NodeOf(n), 0, fn)
}

func walk(el Element, depth int, fn WalkFunc) {
	if !fn(el, depth) || el.kind != NodeElement {
		return
	}
	for _, child := range el.node.children {
		walk(child, depth+1, fn)
	}
}

// Leaves returns the token leaves in left-to-right order, including
// epsilon markers
func (n *Node) Leaves() []token.Token {
	var leaves []token.Token
	n.Walk(func(el Element, _ int) bool {
		if tok, ok := el.Leaf(); ok {
			leaves = append(leaves, tok)
		}
		return true
	})
	return leaves
}

// Stats summarizes the shape of a tree
type Stats struct {
	Nodes    int `json:"nodes" yaml:"nodes"`
	Leaves   int `json:"leaves" yaml:"leaves"`
	Epsilons int `json:"epsilons" yaml:"epsilons"`
	Depth    int `json:"depth" yaml:"depth"`
}

// Stats counts nodes, leaves and epsilon markers and measures the depth
func (n *Node) Stats() Stats {
	var s Stats
	n.Walk(func(el Element, depth int) bool {
		if depth > s.Depth {
			s.Depth = depth
		}
		if el.kind == NodeElement {
			s.Nodes++
			return true
		}
		s.Leaves++
		if el.leaf.IsEpsilon() {
			s.Epsilons++
		}
		return true
	})
	return s
}
