package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/msto63/lexana/internal/analyzer/render"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const replHistoryFile = "repl_history"

const replHelp = `Commands:
  :help             show this help
  :output <format>  switch output format (text, tree, json, yaml)
  :quit             leave (Ctrl+D works as well)`

var (
	replOutput string
	replServer string
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Analyze expressions interactively",
	Long: "Reads expressions from a prompt and prints the analysis of each.\n\n" + replHelp,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVarP(&replOutput, "output", "o", "text", "output format (text, tree, json, yaml)")
	replCmd.Flags().StringVar(&replServer, "server", "", "analyze on a running server (host:port)")
}

func runRepl(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(replOutput)
	if err != nil {
		return err
	}
	cfg, err := loadClientConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	analyzer, closeFn, err := newAnalyzer(cfg, replServer)
	if err != nil {
		return err
	}
	defer closeFn()

	histPath := filepath.Join(cfg.General.DataDir, replHistoryFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "lexana repl - :help for commands")

	for {
		line, err := ln.Prompt("expr> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				printError("prompt failed", err)
			}
			fmt.Fprintln(out)
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		ln.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			quit, next := handleReplCommand(out, input, format)
			if quit {
				break
			}
			format = next
			continue
		}

		res, err := analyzer.Analyze(context.Background(), line)
		if err != nil {
			printError("analysis failed", err)
			continue
		}
		if err := render.Write(out, format, res); err != nil {
			printError("output failed", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(histPath), 0755); err == nil {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	return nil
}

// handleReplCommand runs a ':' command and returns the format to use next
func handleReplCommand(out io.Writer, line string, format render.Format) (quit bool, next render.Format) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true, format
	case ":help", ":h":
		fmt.Fprintln(out, replHelp)
	case ":output", ":o":
		if len(fields) != 2 {
			fmt.Fprintf(out, "usage: :output <format>, current: %s\n", format)
			return false, format
		}
		f, err := render.ParseFormat(fields[1])
		if err != nil {
			fmt.Fprintln(out, render.ErrorMessage(err))
			return false, format
		}
		return false, f
	default:
		fmt.Fprintf(out, "unknown command %s\n", fields[0])
	}
	return false, format
}
