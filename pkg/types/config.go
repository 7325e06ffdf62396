package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "patent-report/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// APIConfig holds settings for the remote patent-search API.
type APIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the API root, e.g. "https://patents.example.com".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Token is sent as a Bearer credential.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// RatePerSecond paces outgoing requests (default 5).
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	// MaxRetries bounds the HTTP 429 backoff loop (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig holds default query parameters.
type SearchConfig struct {
	// SimilarityThreshold is the minimum similarity in [0,1] (default 0.5).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold" mapstructure:"similarity_threshold"`

	// MaxResults caps the number of results, 1-100 (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// HistoryDriver selects the history backend.
type HistoryDriver string

const (
	HistorySQLite HistoryDriver = "sqlite"
	HistoryRedis  HistoryDriver = "redis"
)

// HistoryConfig holds settings for search history persistence.
type HistoryConfig struct {
	// Driver selects the backend: sqlite or redis.
	Driver HistoryDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Path is the SQLite database file (default "data/history.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// RedisAddrs lists Redis endpoints for the redis driver.
	RedisAddrs []string `json:"redis_addrs" yaml:"redis_addrs" mapstructure:"redis_addrs"`

	// RedisPassword authenticates against Redis.
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`

	// KeyPrefix namespaces Redis keys (default "patent-report:").
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`

	// MaxPayloadBytes is the largest structured payload stored alongside the
	// canonical text. Larger responses are stored as text only. Zero means
	// no limit.
	MaxPayloadBytes int `json:"max_payload_bytes" yaml:"max_payload_bytes" mapstructure:"max_payload_bytes"`
}

// ChatConfig holds settings for the generative chat assistant.
type ChatConfig struct {
	// BaseURL is an OpenAI-compatible endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the authentication key for the chat API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Model is the chat model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// HistoryLimit is the number of earlier messages sent as context (default 10).
	HistoryLimit int `json:"history_limit" yaml:"history_limit" mapstructure:"history_limit"`
}

// PDFConfig holds defaults for PDF export.
type PDFConfig struct {
	// Title is printed in the page header (default "Patent Analysis").
	Title string `json:"title" yaml:"title" mapstructure:"title"`

	// Filename is the base name; a date suffix and .pdf are appended.
	Filename string `json:"filename" yaml:"filename" mapstructure:"filename"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings.
type Config struct {
	API      APIConfig     `json:"api" yaml:"api" mapstructure:"api"`
	Search   SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	History  HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Chat     ChatConfig    `json:"chat" yaml:"chat" mapstructure:"chat"`
	PDF      PDFConfig     `json:"pdf" yaml:"pdf" mapstructure:"pdf"`
	Server   ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Log      LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
