package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	"github.com/msto63/lexana/internal/analyzer/store"
	"github.com/spf13/cobra"
)

var (
	historyAccepted  bool
	historyRejected  bool
	historyContains  string
	historySince     time.Duration
	historyLimit     int
	historyOffset    int
	historyOutput    string
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded analyses",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded analyses, newest first",
	Long: `Lists recorded analyses, newest first.

Examples:
  lexana history list --rejected --since 24h
  lexana history list --contains "(" -o json`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the stored document of one analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count analyses by outcome and error code",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete analyses older than --older-than",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyStatsCmd, historyPruneCmd)

	historyListCmd.Flags().BoolVar(&historyAccepted, "accepted", false, "only accepted inputs")
	historyListCmd.Flags().BoolVar(&historyRejected, "rejected", false, "only rejected inputs")
	historyListCmd.Flags().StringVar(&historyContains, "contains", "", "only inputs containing this text")
	historyListCmd.Flags().DurationVar(&historySince, "since", 0, "only analyses newer than this age (e.g. 24h)")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of records")
	historyListCmd.Flags().IntVar(&historyOffset, "offset", 0, "records to skip")
	historyListCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "output format (table, json)")
	historyListCmd.MarkFlagsMutuallyExclusive("accepted", "rejected")

	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "age of the records to delete (default: history.retention)")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	if historyOutput != "table" && historyOutput != "json" {
		return mdwerror.Newf("unknown output format %q", historyOutput).WithCode(mdwerror.CodeInvalidInput)
	}

	cfg, err := loadClientConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	svc, closeFn, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	filter := store.Filter{
		Contains: historyContains,
		Limit:    historyLimit,
		Offset:   historyOffset,
	}
	if historyAccepted || historyRejected {
		accepted := historyAccepted
		filter.Accepted = &accepted
	}
	if historySince > 0 {
		filter.Since = time.Now().Add(-historySince)
	}

	records, err := svc.History(context.Background(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyOutput == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	fmt.Fprintf(out, "%-36s %-19s %-8s %-16s %s\n", "RUN ID", "CREATED", "RESULT", "CODE", "INPUT")
	for _, r := range records {
		result := "accepted"
		if !r.Accepted {
			result = "rejected"
		}
		fmt.Fprintf(out, "%-36s %-19s %-8s %-16s %s\n",
			r.RunID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), result, r.ErrorCode, truncate(r.Input, 40))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadClientConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	svc, closeFn, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	record, err := svc.Lookup(context.Background(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadClientConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	svc, closeFn, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := svc.HistoryStats(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total:    %d\n", stats.Total)
	fmt.Fprintf(out, "Accepted: %d\n", stats.Accepted)
	fmt.Fprintf(out, "Rejected: %d\n", stats.Rejected)
	codes := make([]string, 0, len(stats.ByErrorCode))
	for code := range stats.ByErrorCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "  %-16s %d\n", code, stats.ByErrorCode[code])
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadClientConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	svc, closeFn, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	olderThan := historyOlderThan
	if olderThan <= 0 {
		olderThan = cfg.History.Retention.Duration
	}
	n, err := svc.PruneHistory(context.Background(), olderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records older than %s\n", n, olderThan)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
