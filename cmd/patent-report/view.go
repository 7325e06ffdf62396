// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-report/internal/pdfexport"
	"github.com/pdiddy/patent-report/internal/report"
	"github.com/pdiddy/patent-report/internal/tui"
	"github.com/pdiddy/patent-report/pkg/types"
)

var viewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Open a history record in the interactive viewer",
	Long: `View renders a stored result in the terminal. Select a card with the
arrow keys, expand its abstract with enter, load its images with i, copy the
report with c, or save it as a PDF with p.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	rec, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}

	// Galleries need the API; without it the viewer still works.
	var fetcher report.GalleryFetcher
	if api, err := newAPIClient(cfg); err == nil {
		fetcher = api
	} else {
		log.Debug("image galleries disabled")
	}

	session := report.NewSession(fetcher, log)
	session.LoadTree(report.FromRecord(rec, log))
	return runViewer(ctx, cfg, session, rec.CanonicalText)
}

func runViewer(ctx context.Context, cfg types.Config, session *report.Session, text string) error {
	m := tui.New(ctx, session, text, tui.Options{
		SavePDF: func(text string) (string, error) {
			return savePDF(cfg.PDF, text, "")
		},
	})
	return tui.Run(m)
}

// savePDF writes text as a PDF to out, or to the dated default file name
// in the working directory when out is empty.
func savePDF(cfg types.PDFConfig, text, out string) (string, error) {
	now := time.Now()
	if out == "" {
		out = pdfexport.Filename(cfg.Filename, now)
	}
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", out, err)
	}
	if err := pdfexport.Write(f, pdfexport.Document{Text: text, Title: cfg.Title, Generated: now}); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", out, err)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
