// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-report/internal/clipboard"
	"github.com/pdiddy/patent-report/internal/format"
	"github.com/pdiddy/patent-report/internal/pdfexport"
	"github.com/pdiddy/patent-report/internal/report"
	"github.com/pdiddy/patent-report/pkg/types"
)

// --- show subcommand ---

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the presentation tree of a stored result",
	Long: `Show renders a history record, or a report text file given with --file,
as its presentation tree: title, summary lines, and one card per result.
Records stored without a structured payload are parsed from their text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var tree report.Tree
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		tree = report.ParseLegacy(string(data))
	case len(args) == 1:
		rec, err := loadRecord(args[0])
		if err != nil {
			return err
		}
		tree = report.FromRecord(rec, log)
	default:
		return fmt.Errorf("record id or --file required")
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}
	printTree(tree)
	return nil
}

func printTree(t report.Tree) {
	switch t.Source {
	case report.SourceEmpty:
		fmt.Println(report.Placeholder)
		return
	case report.SourceRaw:
		fmt.Println(t.Raw)
		return
	}

	fmt.Println(t.Title)
	for _, kv := range t.Summary {
		fmt.Printf("  %s: %s\n", kv.Label, kv.Value)
	}
	if t.Skipped > 0 {
		fmt.Printf("  (%d item(s) could not be read)\n", t.Skipped)
	}
	if len(t.Cards) == 0 {
		fmt.Println("\nNo results.")
		return
	}
	for _, c := range t.Cards {
		fmt.Printf("\n%d. %s\n", c.Index, c.Title)
		for _, f := range c.Fields {
			fmt.Printf("   %-22s %s\n", f.Label+":", format.Truncate(f.Value, 200))
		}
		for _, chunk := range c.Chunks {
			fmt.Printf("   > %s\n", chunk)
		}
	}
	fmt.Printf("\n%d results\n", len(t.Cards))
}

// --- text subcommand ---

var textCmd = &cobra.Command{
	Use:   "text <id>",
	Short: "Print the canonical report text of a stored result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := loadRecord(args[0])
		if err != nil {
			return err
		}
		fmt.Print(rec.CanonicalText)
		if !strings.HasSuffix(rec.CanonicalText, "\n") {
			fmt.Println()
		}
		return nil
	},
}

// --- copy subcommand ---

var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy the canonical report text to the system clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := loadRecord(args[0])
		if err != nil {
			return err
		}
		if err := clipboard.Copy(nil, rec.CanonicalText); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Copied %d characters\n", format.CharCount(rec.CanonicalText))
		return nil
	},
}

// --- pdf subcommand ---

var pdfCmd = &cobra.Command{
	Use:   "pdf <id>",
	Short: "Export a stored result as a PDF",
	Long: `PDF lays the canonical report text out as an A4 document. Without -o the
file is written to <pdf.filename>-YYYY-MM-DD.pdf in the working directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func runPDF(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rec, err := loadRecord(args[0])
	if err != nil {
		return err
	}

	path, err := savePDF(cfg.PDF, rec.CanonicalText, out)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	info, err := pdfexport.Inspect(f, st.Size())
	if err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	fmt.Printf("Wrote %s (%d page(s))\n", path, info.Pages)
	return nil
}

// --- shared helpers ---

func loadRecord(id string) (types.HistoryRecord, error) {
	cfg, err := loadConfig()
	if err != nil {
		return types.HistoryRecord{}, err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return types.HistoryRecord{}, err
	}
	defer store.Close()
	return store.Get(context.Background(), id)
}

func init() {
	showCmd.Flags().String("file", "", "read a report text file instead of a history record")
	showCmd.Flags().Bool("json", false, "output the tree as JSON")
	pdfCmd.Flags().StringP("output", "o", "", "output file")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(pdfCmd)
}
