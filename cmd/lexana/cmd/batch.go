package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/msto63/lexana/internal/analyzer/render"
	"github.com/spf13/cobra"
)

var batchLineNumbers bool

var batchCmd = &cobra.Command{
	Use:   "batch <file|->",
	Short: "Analyze a file with one expression per line",
	Long: `Analyzes every non-blank line of a file and prints one result line
per expression. A rejected line does not stop the batch, but the exit status
is non-zero when any line was rejected.

Examples:
  lexana batch expressions.txt
  cat expressions.txt | lexana batch -`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().BoolVarP(&batchLineNumbers, "line-numbers", "n", false, "prefix results with their line number")
}

func runBatch(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	cfg, err := loadClientConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	svc, history, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	if history != nil {
		defer history.Close()
	}

	batch, err := svc.AnalyzeLines(context.Background(), in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, line := range batch.Results {
		if batchLineNumbers {
			fmt.Fprintf(out, "%d: ", line.Line)
		}
		fmt.Fprintln(out, render.BatchLine(line.Result))
	}
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d accepted, %d rejected\n", batch.Accepted, batch.Rejected)
	}
	if batch.Rejected > 0 {
		return errRejected
	}
	return nil
}
