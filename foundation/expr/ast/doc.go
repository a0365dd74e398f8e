// File: doc.go
// Title: Parse Tree Package Documentation
// Description: Package documentation for the expression parse tree.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-17
// Modified: 2026-10-17
//
// Change History:
// - 2026-10-17 v0.1.0: Initial parse tree package

/*
Package ast defines the concrete parse tree built by the expression parser.

Every internal node is named after the grammar symbol it was built for
(E, E', T, T', F). Its children are Elements in production order, each one
either a nested Node or a token leaf. Element carries an explicit Kind so
traversal switches on the tag instead of inspecting dynamic types.

Nodes are immutable: the children slice is fixed by NewNode and accessors
return copies.

Usage:

	tree.Walk(func(el ast.Element, depth int) bool {
		if el.Kind() == ast.LeafElement {
			fmt.Println(el.Leaf())
		}
		return true
	})
*/
package ast
