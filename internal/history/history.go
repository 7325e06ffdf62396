// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists search history records and the chat messages
// attached to them. Two backends implement Store: SQLite (the default,
// single-user) and Redis (shared).
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/pkg/types"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("history record not found")

const defaultListLimit = 50

// ListOptions filters List.
type ListOptions struct {
	// Limit caps the number of records returned (default 50).
	Limit int

	// Query keeps records whose input summary, file name, or canonical
	// text contains it, case-insensitively.
	Query string

	// Endpoint keeps records for one API endpoint.
	Endpoint string
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return defaultListLimit
	}
	return o.Limit
}

func (o ListOptions) matches(rec types.HistoryRecord) bool {
	if o.Endpoint != "" && rec.Endpoint != o.Endpoint {
		return false
	}
	if o.Query == "" {
		return true
	}
	q := strings.ToLower(o.Query)
	for _, s := range []string{rec.InputSummary, rec.FileName, rec.CanonicalText} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// Store is a history backend. Records come back newest first; chat
// messages come back oldest first.
type Store interface {
	// Save assigns an id and creation time when missing and persists rec.
	Save(ctx context.Context, rec *types.HistoryRecord) error
	Get(ctx context.Context, id string) (types.HistoryRecord, error)
	List(ctx context.Context, opts ListOptions) ([]types.HistoryRecord, error)
	Delete(ctx context.Context, id string) error

	AppendMessage(ctx context.Context, msg types.ChatMessage) error
	// Messages returns the last limit messages of a conversation.
	Messages(ctx context.Context, conversationID string, limit int) ([]types.ChatMessage, error)

	Close() error
}

// Open creates the backend selected by cfg.Driver.
func Open(cfg types.HistoryConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", types.HistorySQLite:
		return NewSQLiteStore(cfg.Path, logger)
	case types.HistoryRedis:
		return NewRedisStore(RedisConfig{
			Addrs:     cfg.RedisAddrs,
			Password:  cfg.RedisPassword,
			KeyPrefix: cfg.KeyPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

// prepare fills the id and timestamp of a record about to be saved.
func prepare(rec *types.HistoryRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = types.StatusSuccess
	}
}

// EncodePayload marshals r for storage next to the canonical text. It
// returns nil when r is nil or its encoding exceeds maxBytes (zero means
// unlimited); such records are later rendered from their text.
func EncodePayload(r *types.SearchResponse, maxBytes int) (json.RawMessage, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding structured payload: %w", err)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, nil
	}
	return data, nil
}
