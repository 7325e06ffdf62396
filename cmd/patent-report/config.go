// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/patent-report/internal/analysis"
	"github.com/pdiddy/patent-report/internal/chat"
	"github.com/pdiddy/patent-report/internal/history"
	"github.com/pdiddy/patent-report/internal/patentapi"
	"github.com/pdiddy/patent-report/internal/pdfexport"
	"github.com/pdiddy/patent-report/internal/secrets"
	"github.com/pdiddy/patent-report/pkg/types"
)

// setDefaults registers every key so AutomaticEnv can override any of them.
func setDefaults() {
	viper.SetDefault("api.base_url", "")
	viper.SetDefault("api.token", "")
	viper.SetDefault("api.timeout", 60*time.Second)
	viper.SetDefault("api.user_agent", "patent-report/"+version)
	viper.SetDefault("api.rate_per_second", 5.0)
	viper.SetDefault("api.max_retries", 3)
	viper.SetDefault("search.similarity_threshold", 0.5)
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("history.driver", string(types.HistorySQLite))
	viper.SetDefault("history.path", history.DefaultPath)
	viper.SetDefault("history.redis_addrs", []string{})
	viper.SetDefault("history.redis_password", "")
	viper.SetDefault("history.key_prefix", history.DefaultKeyPrefix)
	viper.SetDefault("history.max_payload_bytes", 1<<20)
	viper.SetDefault("chat.base_url", "")
	viper.SetDefault("chat.api_key", "")
	viper.SetDefault("chat.model", "gemini-2.0-flash")
	viper.SetDefault("chat.history_limit", 10)
	viper.SetDefault("pdf.title", pdfexport.DefaultTitle)
	viper.SetDefault("pdf.filename", pdfexport.DefaultFilename)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
}

// loadConfig reads the merged configuration and fills credentials from
// loaded secrets where the config leaves them empty.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.API.Token = secretDefault(secrets.PatentAPIToken, cfg.API.Token)
	cfg.Chat.APIKey = secretDefault(secrets.ChatAPIKey, cfg.Chat.APIKey)
	cfg.History.RedisPassword = secretDefault(secrets.RedisPassword, cfg.History.RedisPassword)
	return cfg, nil
}

func openHistory(cfg types.Config) (history.Store, error) {
	return history.Open(cfg.History, log)
}

func newAPIClient(cfg types.Config) (*patentapi.Client, error) {
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is not set: use --api-url, PATENT_REPORT_API_BASE_URL, or the config file")
	}
	return patentapi.New(cfg.API, log)
}

func newAnalysis(cfg types.Config, api *patentapi.Client, store history.Store) *analysis.Service {
	return analysis.NewService(api, store, cfg.Search, cfg.History.MaxPayloadBytes, log)
}

func newAssistant(cfg types.Config, store history.Store) (*chat.Assistant, error) {
	return chat.NewAssistant(cfg.Chat, store, log)
}
