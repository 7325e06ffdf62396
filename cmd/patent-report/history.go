// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-report/internal/format"
	"github.com/pdiddy/patent-report/internal/history"
	"github.com/pdiddy/patent-report/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, delete, and export past searches",
	Long: `History manages the record of past searches. Records are listed newest
first and can be filtered by endpoint or by a case-insensitive query over
the input summary, file name, and report text.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past searches, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := historyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List(context.Background(), listOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Println("No history.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-30s  %-7s  %-7s  %s\n",
		"ID", "Created", "Endpoint", "Status", "Results", "Input")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 140))
	for _, r := range recs {
		input := r.InputSummary
		if r.InputType == types.InputImage {
			input = r.FileName
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-30s  %-7s  %-7d  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Endpoint,
			r.Status, r.TotalReturned, format.Truncate(input, 40))
	}
	fmt.Fprintf(os.Stdout, "\n%d records\n", len(recs))
	return nil
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete history records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := historyStore()
		if err != nil {
			return err
		}
		defer store.Close()

		for _, id := range args {
			if err := store.Delete(context.Background(), id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			fmt.Printf("Deleted %s\n", id)
		}
		return nil
	},
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export history to YAML",
	Long: `Export writes history records as a YAML list, newest first,
to standard output or the file given with -o. Supports the same filters
as list.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("output")

	store, err := historyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	opts := listOptsFromFlags(cmd)
	if !cmd.Flags().Changed("limit") {
		opts.Limit = 0
	}
	n, err := history.ExportYAML(context.Background(), store, opts, w)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", n, out)
	}
	return nil
}

// --- shared helpers ---

func historyStore() (history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openHistory(cfg)
}

func listOptsFromFlags(cmd *cobra.Command) history.ListOptions {
	limit, _ := cmd.Flags().GetInt("limit")
	query, _ := cmd.Flags().GetString("query")
	endpoint, _ := cmd.Flags().GetString("endpoint")
	return history.ListOptions{Limit: limit, Query: query, Endpoint: endpoint}
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().Int("limit", 50, "maximum number of records")
		c.Flags().String("query", "", "case-insensitive text filter")
		c.Flags().String("endpoint", "", "filter by API endpoint")
	}
	historyListCmd.Flags().Bool("json", false, "output records as JSON")
	historyExportCmd.Flags().StringP("output", "o", "", "output file (default: standard output)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
