package cmd

import (
	"io"

	"github.com/msto63/lexana/internal/tui"
	"github.com/spf13/cobra"
)

var tuiServer string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the terminal UI",
	Long: `Starts the interactive terminal UI. Enter analyzes the expression in
the input field, Tab switches between tree, tokens, symbols and session.
Logs are discarded while the UI is running.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringVar(&tuiServer, "server", "", "analyze on a running server (host:port)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadClientConfig(io.Discard)
	if err != nil {
		return err
	}
	analyzer, closeFn, err := newAnalyzer(cfg, tuiServer)
	if err != nil {
		return err
	}
	defer closeFn()

	source := "local"
	if tuiServer != "" {
		source = tuiServer
	}
	return tui.Run(analyzer, source)
}
