// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve searches, history, and reports over HTTP",
	Long: `Serve starts the HTTP API: POST /api/search, the /api/history routes with
their report, text, and PDF projections, image galleries, chat, /healthz,
and Prometheus metrics on /metrics. It shuts down gracefully on SIGINT or
SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
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

	deps := server.Deps{
		Search:  newAnalysis(cfg, api, store),
		History: store,
		Gallery: api,
		PDF:     cfg.PDF,
		Logger:  log,
	}
	if assistant, err := newAssistant(cfg, store); err == nil {
		deps.Chat = assistant
	} else {
		log.Warn("chat disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.New(deps).Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")

	rootCmd.AddCommand(serveCmd)
}
