package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/msto63/lexana/internal/analyzer/render"
	"github.com/spf13/cobra"
)

var (
	analyzeOutput string
	analyzeServer string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [expression]",
	Short: "Tokenize and parse one expression",
	Long: `Tokenizes and parses one expression and prints the tokens, the
parse tree and the symbol table.

Without argument the expression is read from stdin.

Examples:
  lexana analyze "a + b * (c + 3)"
  echo "x * (y + 1)" | lexana analyze -o json
  lexana analyze --server localhost:9480 "3 +"`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "text", "output format (text, tree, json, yaml)")
	analyzeCmd.Flags().StringVar(&analyzeServer, "server", "", "analyze on a running server (host:port)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(analyzeOutput)
	if err != nil {
		return err
	}
	input, err := getInputText(args)
	if err != nil {
		return err
	}

	cfg, err := loadClientConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	analyzer, closeFn, err := newAnalyzer(cfg, analyzeServer)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := analyzer.Analyze(context.Background(), input)
	if err != nil {
		return err
	}
	if err := render.Write(cmd.OutOrStdout(), format, res); err != nil {
		return err
	}
	if !res.Accepted {
		return errRejected
	}
	return nil
}

// getInputText returns the joined arguments, or stdin when it is not a
// terminal and no argument was given. One trailing line break is dropped.
func getInputText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}
