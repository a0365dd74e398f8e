// Package render formats analysis results for terminals and files.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	"github.com/msto63/lexana/foundation/expr/ast"
	"github.com/msto63/lexana/foundation/expr/symbols"
	"github.com/msto63/lexana/foundation/expr/token"
	"github.com/msto63/lexana/internal/analyzer/service"
)

// Format selects an output form
type Format string

const (
	FormatText Format = "text"
	FormatTree Format = "tree"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted format names
var Formats = []Format{FormatText, FormatTree, FormatJSON, FormatYAML}

// ParseFormat parses a format name
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", mdwerror.Newf("unknown output format %q", name).
		WithCode(mdwerror.CodeInvalidInput).
		WithDetail("supported", Formats)
}

// Write renders res to w in the given format
func Write(w io.Writer, format Format, res *service.Result) error {
	switch format {
	case FormatText:
		return Text(w, res)
	case FormatTree:
		return TreeOnly(w, res)
	case FormatJSON:
		return JSON(w, res)
	case FormatYAML:
		return YAML(w, res)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// Text writes the input, the token listing, the outcome and, when
// accepted, the indented tree and the symbol table
func Text(w io.Writer, res *service.Result) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Input: %s\n", res.Input)
	if len(res.Tokens) > 0 {
		sb.WriteString("Tokens:\n")
		writeTokens(&sb, res.Tokens)
	}

	if !res.Accepted {
		fmt.Fprintf(&sb, "Error: %s\n", ErrorMessage(res.Err))
		_, err := io.WriteString(w, sb.String())
		return err
	}

	sb.WriteString("Accepted!\n")
	sb.WriteString("Parse Tree:\n")
	writeTree(&sb, res.Tree, 0)
	sb.WriteString("Symbol Table:\n")
	sb.WriteString(res.Symbols.String())

	_, err := io.WriteString(w, sb.String())
	return err
}

// TreeOnly writes the indented tree, or the error line when rejected
func TreeOnly(w io.Writer, res *service.Result) error {
	if !res.Accepted {
		_, err := fmt.Fprintf(w, "Error: %s\n", ErrorMessage(res.Err))
		return err
	}
	_, err := io.WriteString(w, Tree(res.Tree))
	return err
}

// JSON writes the result document as indented JSON
func JSON(w io.Writer, res *service.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Document())
}

// YAML writes the result document as YAML
func YAML(w io.Writer, res *service.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res.Document()); err != nil {
		return err
	}
	return enc.Close()
}

// Tokens returns one line per token in the form "TYPE (ID: n): lexeme"
func Tokens(tokens []token.Token) string {
	var sb strings.Builder
	writeTokens(&sb, tokens)
	return sb.String()
}

// Tree returns the tree with one element per line, children indented two
// spaces deeper than their parent
func Tree(n *ast.Node) string {
	var sb strings.Builder
	writeTree(&sb, n, 0)
	return sb.String()
}

// Bracket returns the single line form E -> [T -> [...], ...]
func Bracket(n *ast.Node) string {
	return n.String()
}

// Symbols returns the table listing in first-registration order
func Symbols(t *symbols.Table) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// BatchLine returns the one line summary used for batch input
func BatchLine(res *service.Result) string {
	if res.Accepted {
		return "Accepted: " + res.Input
	}
	return "Error: " + ErrorMessage(res.Err)
}

// ErrorMessage returns the message shown after "Error: "
func ErrorMessage(err error) string {
	return service.Reason(err)
}

func writeTokens(sb *strings.Builder, tokens []token.Token) {
	for _, tok := range tokens {
		sb.WriteString(tok.String())
		sb.WriteByte('\n')
	}
}

func writeTree(sb *strings.Builder, n *ast.Node, indent int) {
	pad := strings.Repeat(" ", indent)
	sb.WriteString(pad)
	sb.WriteString(string(n.Name()))
	sb.WriteByte('\n')

	for _, child := range n.Children() {
		if tok, ok := child.Leaf(); ok {
			sb.WriteString(pad)
			sb.WriteString("  ")
			sb.WriteString(tok.String())
			sb.WriteByte('\n')
			continue
		}
		writeTree(sb, child.Node(), indent+2)
	}
}
