// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-report/internal/analysis"
	"github.com/pdiddy/patent-report/internal/report"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Run a similarity search by text or image",
	Long: `Search sends free text or an image to the patent similarity API and
prints the canonical text report. Every search, successful or not, is
recorded in history.

Modes:
  text    similar patents for the text (default)
  chunks  similar text chunks for the text
  image   similar patents for the image given with --image`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	imagePath, _ := cmd.Flags().GetString("image")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	view, _ := cmd.Flags().GetBool("view")
	conversation, _ := cmd.Flags().GetString("conversation")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Search.SimilarityThreshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("max-results") {
		cfg.Search.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}

	req := analysis.Request{
		Mode:           analysis.Mode(mode),
		Threshold:      &cfg.Search.SimilarityThreshold,
		MaxResults:     cfg.Search.MaxResults,
		ConversationID: conversation,
	}
	if len(args) > 0 {
		req.Text = args[0]
	}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
		req.Mode = analysis.ModeImage
		req.ImageName = filepath.Base(imagePath)
		req.ImageData = data
	} else if req.Text == "-" {
		data, err := readStdin()
		if err != nil {
			return err
		}
		req.Text = data
	}

	api, err := newAPIClient(cfg)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := newAnalysis(cfg, api, store).Run(ctx, req)
	if err != nil {
		return err
	}
	if !res.Saved {
		writeSaveStatus(os.Stderr, res)
	}

	if view {
		session := report.NewSession(api, log)
		session.Load(res.Response)
		return runViewer(ctx, cfg, session, res.Text)
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			ID       string      `json:"id"`
			Response interface{} `json:"response"`
		}{res.Record.ID, res.Response})
	}

	fmt.Print(res.Text)
	if res.Saved {
		writeSaveStatus(os.Stderr, res)
	}
	return nil
}

// writeSaveStatus reports where the result went in history, or warns that
// it went nowhere.
func writeSaveStatus(w io.Writer, res analysis.Result) {
	if !res.Saved {
		fmt.Fprintln(w, "warning: result was not saved to history")
		return
	}
	fmt.Fprintf(w, "\nSaved as %s\n", res.Record.ID)
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading standard input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no text on standard input")
	}
	return string(data), nil
}

func init() {
	searchCmd.Flags().String("mode", string(analysis.ModeText), "search mode: text, chunks, image")
	searchCmd.Flags().String("image", "", "image file for an image search")
	searchCmd.Flags().Float64("threshold", 0, "similarity threshold in [0,1] (default from config)")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results (default from config)")
	searchCmd.Flags().String("conversation", "", "conversation id to attach the search to")
	searchCmd.Flags().Bool("json", false, "output the structured response as JSON")
	searchCmd.Flags().Bool("view", false, "open the result in the interactive viewer")

	rootCmd.AddCommand(searchCmd)
}
