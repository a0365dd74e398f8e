package cmd

import (
	"fmt"

	"github.com/msto63/lexana/pkg/core/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  Analyzer: %s\n", version.Analyzer)
			fmt.Fprintf(cmd.OutOrStdout(), "  History:  %s\n", version.History)
			fmt.Fprintf(cmd.OutOrStdout(), "  API:      %s\n", version.APIVersion)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
