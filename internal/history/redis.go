// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/metrics"
	"github.com/pdiddy/patent-report/pkg/types"
)

// DefaultKeyPrefix namespaces all Redis keys.
const DefaultKeyPrefix = "patent-report:"

// RedisConfig holds connection parameters for the Redis backend.
type RedisConfig struct {
	Addrs     []string
	Password  string
	KeyPrefix string
}

// RedisStore keeps each record as a JSON string, indexed by a sorted set
// scored by creation time. Chat messages are Redis lists.
//
// Keys:
//
//	<prefix>record:<id>    JSON record
//	<prefix>records        ZSET id → created_at (unix µs)
//	<prefix>chat:<conv>    LIST of JSON messages
type RedisStore struct {
	client rueidis.Client
	prefix string
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis.
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis history: addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return newRedisStore(client, cfg.KeyPrefix, logger), nil
}

func newRedisStore(client rueidis.Client, prefix string, logger *zap.Logger) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

// Close shuts down the client.
func (s *RedisStore) Close() error {
	s.client.Close()
	return nil
}

func (s *RedisStore) recordKey(id string) string { return s.prefix + "record:" + id }
func (s *RedisStore) indexKey() string           { return s.prefix + "records" }
func (s *RedisStore) chatKey(conv string) string { return s.prefix + "chat:" + conv }

// Save writes the record and indexes it in one round trip.
func (s *RedisStore) Save(ctx context.Context, rec *types.HistoryRecord) (err error) {
	defer func() { metrics.HistoryOperationsTotal.WithLabelValues("redis", "save", metrics.Status(err)).Inc() }()
	prepare(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.ID, err)
	}
	b := s.client.B()
	results := s.client.DoMulti(ctx,
		b.Set().Key(s.recordKey(rec.ID)).Value(string(data)).Build(),
		b.Zadd().Key(s.indexKey()).ScoreMember().ScoreMember(float64(rec.CreatedAt.UnixMicro()), rec.ID).Build(),
	)
	for _, r := range results {
		if err := r.Error(); err != nil {
			return fmt.Errorf("saving record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// Get returns the record with the given id.
func (s *RedisStore) Get(ctx context.Context, id string) (rec types.HistoryRecord, err error) {
	defer func() { metrics.HistoryOperationsTotal.WithLabelValues("redis", "get", metrics.Status(err)).Inc() }()

	raw, err := s.client.Do(ctx, s.client.B().Get().Key(s.recordKey(id)).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return rec, ErrNotFound
		}
		return rec, fmt.Errorf("reading record %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return rec, nil
}

// List returns records newest first. Filters are applied client side.
func (s *RedisStore) List(ctx context.Context, opts ListOptions) ([]types.HistoryRecord, error) {
	stop := "-1"
	if opts.Query == "" && opts.Endpoint == "" {
		stop = fmt.Sprint(opts.limit() - 1)
	}
	ids, err := s.client.Do(ctx, s.client.B().Zrange().Key(s.indexKey()).Min("0").Max(stop).Rev().Build()).AsStrSlice()
	metrics.HistoryOperationsTotal.WithLabelValues("redis", "list", metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	values, err := s.client.Do(ctx, s.client.B().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}

	var out []types.HistoryRecord
	for i, v := range values {
		raw, err := v.ToString()
		if err != nil {
			// Indexed but deleted between the two calls.
			continue
		}
		var rec types.HistoryRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("skipping undecodable history record", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		if !opts.matches(rec) {
			continue
		}
		out = append(out, rec)
		if len(out) == opts.limit() {
			break
		}
	}
	return out, nil
}

// Delete removes a record and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) (err error) {
	defer func() { metrics.HistoryOperationsTotal.WithLabelValues("redis", "delete", metrics.Status(err)).Inc() }()

	b := s.client.B()
	results := s.client.DoMulti(ctx,
		b.Del().Key(s.recordKey(id)).Build(),
		b.Zrem().Key(s.indexKey()).Member(id).Build(),
	)
	n, err := results[0].AsInt64()
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	if err := results[1].Error(); err != nil {
		return fmt.Errorf("unindexing record %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage pushes one chat turn onto the conversation list.
func (s *RedisStore) AppendMessage(ctx context.Context, msg types.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	err = s.client.Do(ctx, s.client.B().Rpush().Key(s.chatKey(msg.ConversationID)).Element(string(data)).Build()).Error()
	metrics.HistoryOperationsTotal.WithLabelValues("redis", "append_message", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// Messages returns the last limit messages of a conversation, oldest first.
func (s *RedisStore) Messages(ctx context.Context, conversationID string, limit int) ([]types.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	raws, err := s.client.Do(ctx, s.client.B().Lrange().Key(s.chatKey(conversationID)).Start(int64(-limit)).Stop(-1).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	out := make([]types.ChatMessage, 0, len(raws))
	for _, raw := range raws {
		var m types.ChatMessage
		if err := json.NewDecoder(strings.NewReader(raw)).Decode(&m); err != nil {
			return nil, fmt.Errorf("decoding message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
