package service

import (
	"errors"
	"fmt"
	"time"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	"github.com/msto63/lexana/foundation/expr/ast"
	"github.com/msto63/lexana/foundation/expr/symbols"
	"github.com/msto63/lexana/foundation/expr/token"
)

// Document is the serializable form of a Result used by the JSON and YAML
// outputs, the HTTP API and the history payload
type Document struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	Input      string          `json:"input" yaml:"input"`
	Accepted   bool            `json:"accepted" yaml:"accepted"`
	Error      *ErrorDocument  `json:"error,omitempty" yaml:"error,omitempty"`
	Tokens     []token.Token   `json:"tokens" yaml:"tokens"`
	Tree       *TreeDocument   `json:"tree,omitempty" yaml:"tree,omitempty"`
	Symbols    []symbols.Entry `json:"symbols" yaml:"symbols"`
	DurationMS float64         `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
}

// ErrorDocument describes why an input was rejected. Reason is the lexer or
// parser message without the classification prefix.
type ErrorDocument struct {
	Code    string                 `json:"code" yaml:"code"`
	Message string                 `json:"message" yaml:"message"`
	Reason  string                 `json:"reason" yaml:"reason"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

// TreeDocument is one element of the parse tree. Interior nodes carry a
// symbol and children, leaves carry a token.
type TreeDocument struct {
	Symbol   string          `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Token    *token.Token    `json:"token,omitempty" yaml:"token,omitempty"`
	Children []*TreeDocument `json:"children,omitempty" yaml:"children,omitempty"`
}

// Document converts the result into its serializable form
func (r *Result) Document() *Document {
	doc := &Document{
		RunID:      r.RunID,
		Input:      r.Input,
		Accepted:   r.Accepted,
		Tokens:     r.Tokens,
		Symbols:    []symbols.Entry{},
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
		CreatedAt:  r.CreatedAt,
	}
	if doc.Tokens == nil {
		doc.Tokens = []token.Token{}
	}
	if r.Tree != nil {
		doc.Tree = TreeOf(r.Tree)
	}
	if r.Symbols != nil {
		doc.Symbols = r.Symbols.Entries()
	}
	if r.Err != nil {
		doc.Error = ErrorOf(r.Err)
	}
	return doc
}

// ErrorOf describes err with its code and details
func ErrorOf(err error) *ErrorDocument {
	doc := &ErrorDocument{
		Code:    string(mdwerror.GetCode(err)),
		Message: err.Error(),
		Reason:  Reason(err),
	}
	var e *mdwerror.Error
	if errors.As(err, &e) {
		if details := e.Details(); len(details) > 0 {
			doc.Details = details
		}
	}
	return doc
}

// TreeOf converts a parse tree node
func TreeOf(n *ast.Node) *TreeDocument {
	doc := &TreeDocument{
		Symbol:   string(n.Name()),
		Children: make([]*TreeDocument, 0, n.Len()),
	}
	for _, child := range n.Children() {
		if tok, ok := child.Leaf(); ok {
			leaf := tok
			doc.Children = append(doc.Children, &TreeDocument{Token: &leaf})
			continue
		}
		doc.Children = append(doc.Children, TreeOf(child.Node()))
	}
	return doc
}

// Reason returns the message of the underlying lexer or parser error
// without the classification prefix
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var e *mdwerror.Error
	if errors.As(err, &e) {
		if cause := e.Unwrap(); cause != nil {
			return cause.Error()
		}
		return e.Message()
	}
	return err.Error()
}

// Result rebuilds a Result from its serializable form, as received from a
// remote analyzer
func (d *Document) Result() (*Result, error) {
	res := &Result{
		RunID:     d.RunID,
		Input:     d.Input,
		Accepted:  d.Accepted,
		Tokens:    d.Tokens,
		Duration:  time.Duration(d.DurationMS * float64(time.Millisecond)),
		CreatedAt: d.CreatedAt,
	}

	if d.Tree != nil {
		tree, err := d.Tree.node()
		if err != nil {
			return nil, err
		}
		res.Tree = tree
	}

	if d.Accepted {
		res.Symbols = symbols.New()
		for _, e := range d.Symbols {
			if err := res.Symbols.Register(token.New(e.Type, e.Lexeme, e.ID, -1)); err != nil {
				return nil, err
			}
		}
		res.Symbols.Freeze()
	}

	if d.Error != nil {
		rebuilt := mdwerror.Wrap(errors.New(d.Error.Reason), "remote analysis").
			WithCode(mdwerror.Code(d.Error.Code))
		for k, v := range d.Error.Details {
			rebuilt.WithDetail(k, v)
		}
		res.Err = rebuilt
	}
	return res, nil
}

func (t *TreeDocument) node() (*ast.Node, error) {
	symbol := ast.Symbol(t.Symbol)
	if !symbol.IsValid() {
		return nil, fmt.Errorf("invalid tree symbol %q", t.Symbol)
	}
	if len(t.Children) == 0 {
		return nil, fmt.Errorf("tree node %s has no children", t.Symbol)
	}

	children := make([]ast.Element, 0, len(t.Children))
	for _, child := range t.Children {
		if child.Token != nil {
			children = append(children, ast.LeafOf(*child.Token))
			continue
		}
		n, err := child.node()
		if err != nil {
			return nil, err
		}
		children = append(children, ast.NodeOf(n))
	}
	return ast.NewNode(symbol, children...), nil
}
