package render

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	mdwlog "github.com/msto63/lexana/foundation/core/log"
	"github.com/msto63/lexana/internal/analyzer/service"
	"github.com/msto63/lexana/pkg/core/logging"
)

func analyze(t *testing.T, input string) *service.Result {
	t.Helper()
	svc, err := service.NewService(service.Config{Logger: logging.Wrap("test", mdwlog.NewNop())})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	res, err := svc.Analyze(context.Background(), input)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res
}

func TestTree(t *testing.T) {
	res := analyze(t, "a")
	want := strings.Join([]string{
		"E",
		"  T",
		"    F",
		"      ID (ID: 1): a",
		"    T'",
		"      EPSILON (ID: 0): Ɛ",
		"  E'",
		"    EPSILON (ID: 0): Ɛ",
		"",
	}, "\n")
	if got := Tree(res.Tree); got != want {
		t.Errorf("Tree() =\n%s\nwant\n%s", got, want)
	}
}

func TestBracket(t *testing.T) {
	res := analyze(t, "a")
	want := "E -> [T -> [F -> [ID (ID: 1): a], T' -> [EPSILON (ID: 0): Ɛ]], E' -> [EPSILON (ID: 0): Ɛ]]"
	if got := Bracket(res.Tree); got != want {
		t.Errorf("Bracket() = %q, want %q", got, want)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:  "accepted",
			input: "x + y",
			contains: []string{
				"Input: x + y\n",
				"Tokens:\nID (ID: 1): x\nPLUS (ID: 2): +\nID (ID: 3): y\n",
				"Accepted!\n",
				"Parse Tree:\nE\n",
				"Symbol Table:\nx: ID (ID: 1)\ny: ID (ID: 3)\n",
			},
			absent: []string{"Error:"},
		},
		{
			name:     "lexical error",
			input:    "3 & 4",
			contains: []string{"Error: unexpected character '&' at position 2\n"},
			absent:   []string{"Tokens:", "Accepted!"},
		},
		{
			name:     "syntax error keeps tokens",
			input:    "3 + 4 *",
			contains: []string{"Tokens:\n", "Error: invalid token in F: found none\n"},
			absent:   []string{"Parse Tree:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Text(&buf, analyze(t, tt.input)); err != nil {
				t.Fatalf("Text() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(out, unwanted) {
					t.Errorf("output contains %q:\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, analyze(t, "(a)")); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var doc struct {
		Accepted bool `json:"accepted"`
		Tokens   []struct {
			Type string `json:"type"`
		} `json:"tokens"`
		Tree struct {
			Symbol string `json:"symbol"`
		} `json:"tree"`
		Symbols []struct {
			Lexeme string `json:"lexeme"`
			ID     int    `json:"id"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !doc.Accepted || doc.Tree.Symbol != "E" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Tokens) != 3 || doc.Tokens[0].Type != "LPAREN" {
		t.Errorf("tokens = %+v", doc.Tokens)
	}
	if len(doc.Symbols) != 1 || doc.Symbols[0].Lexeme != "a" || doc.Symbols[0].ID != 2 {
		t.Errorf("symbols = %+v", doc.Symbols)
	}
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := YAML(&buf, analyze(t, "3 &")); err != nil {
		t.Fatalf("YAML() error = %v", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if doc["accepted"] != false {
		t.Errorf("accepted = %v", doc["accepted"])
	}
	errDoc, ok := doc["error"].(map[string]interface{})
	if !ok || errDoc["code"] != "LEXICAL" {
		t.Errorf("error = %v", doc["error"])
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "TREE", " json ", "yaml"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", name, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestBatchLine(t *testing.T) {
	if got := BatchLine(analyze(t, "a * b")); got != "Accepted: a * b" {
		t.Errorf("BatchLine() = %q", got)
	}
	if got := BatchLine(analyze(t, "3 + (4 * 5")); got != "Error: expected RPAREN, found none" {
		t.Errorf("BatchLine() = %q", got)
	}
}
