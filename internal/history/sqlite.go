// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/metrics"
	"github.com/pdiddy/patent-report/pkg/types"
)

// DefaultPath is the SQLite database used when none is configured.
const DefaultPath = "data/history.db"

// SQLiteStore keeps history in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at path and creates the
// schema if it does not exist.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			input_type TEXT,
			input_summary TEXT,
			file_name TEXT,
			similarity_threshold REAL,
			max_results INTEGER,
			total_returned INTEGER,
			canonical_text TEXT,
			payload TEXT,
			conversation_id TEXT,
			latency_ms INTEGER,
			status TEXT NOT NULL,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_endpoint ON records(endpoint)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

const recordColumns = `id, created_at, endpoint, input_type, input_summary, file_name,
	similarity_threshold, max_results, total_returned, canonical_text, payload,
	conversation_id, latency_ms, status, error_message`

// Save inserts rec, replacing any record with the same id.
func (s *SQLiteStore) Save(ctx context.Context, rec *types.HistoryRecord) (err error) {
	defer func() { metrics.HistoryOperationsTotal.WithLabelValues("sqlite", "save", metrics.Status(err)).Inc() }()
	prepare(rec)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, rec.ID); err != nil {
		return fmt.Errorf("replacing record %s: %w", rec.ID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.Endpoint,
		string(rec.InputType), rec.InputSummary, rec.FileName,
		rec.SimilarityThreshold, rec.MaxResults, rec.TotalReturned,
		rec.CanonicalText, nullableText(string(rec.Payload)),
		rec.ConversationID, rec.LatencyMS, string(rec.Status), rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", rec.ID, err)
	}
	return tx.Commit()
}

// Get returns the record with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (rec types.HistoryRecord, err error) {
	defer func() { metrics.HistoryOperationsTotal.WithLabelValues("sqlite", "get", metrics.Status(err)).Inc() }()

	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err = scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.HistoryRecord{}, ErrNotFound
	}
	if err != nil {
		return types.HistoryRecord{}, fmt.Errorf("reading record %s: %w", id, err)
	}
	return rec, nil
}

// List returns records newest first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]types.HistoryRecord, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT ` + recordColumns + ` FROM records WHERE 1=1`)
	if opts.Endpoint != "" {
		qb.WriteString(` AND endpoint = ?`)
		args = append(args, opts.Endpoint)
	}
	if opts.Query != "" {
		qb.WriteString(` AND (instr(lower(input_summary), ?) > 0 OR instr(lower(file_name), ?) > 0 OR instr(lower(canonical_text), ?) > 0)`)
		q := strings.ToLower(opts.Query)
		args = append(args, q, q, q)
	}
	qb.WriteString(` ORDER BY seq DESC LIMIT ?`)
	args = append(args, opts.limit())

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	metrics.HistoryOperationsTotal.WithLabelValues("sqlite", "list", metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []types.HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a record. Its conversation messages are kept.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (err error) {
	defer func() { metrics.HistoryOperationsTotal.WithLabelValues("sqlite", "delete", metrics.Status(err)).Inc() }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage stores one chat turn.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg types.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		msg.ConversationID, string(msg.Role), msg.Content, msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	metrics.HistoryOperationsTotal.WithLabelValues("sqlite", "append_message", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// Messages returns the last limit messages of a conversation, oldest first.
func (s *SQLiteStore) Messages(ctx context.Context, conversationID string, limit int) ([]types.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, role, content, created_at FROM (
			SELECT seq, conversation_id, role, content, created_at FROM messages
			WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	var out []types.ChatMessage
	for rows.Next() {
		var (
			m       types.ChatMessage
			role    string
			created string
		)
		if err := rows.Scan(&m.ConversationID, &role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = types.ChatRole(role)
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.HistoryRecord, error) {
	var (
		rec                               types.HistoryRecord
		created, inputType, status        string
		summary, fileName, text, conv, em sql.NullString
		payload                           sql.NullString
		threshold                         sql.NullFloat64
		maxResults, total, latency        sql.NullInt64
	)
	err := sc.Scan(&rec.ID, &created, &rec.Endpoint, &inputType, &summary, &fileName,
		&threshold, &maxResults, &total, &text, &payload, &conv, &latency, &status, &em)
	if err != nil {
		return rec, err
	}
	rec.CreatedAt = parseTime(created)
	rec.InputType = types.InputType(inputType)
	rec.InputSummary = summary.String
	rec.FileName = fileName.String
	rec.SimilarityThreshold = threshold.Float64
	rec.MaxResults = int(maxResults.Int64)
	rec.TotalReturned = int(total.Int64)
	rec.CanonicalText = text.String
	if payload.Valid && payload.String != "" {
		rec.Payload = []byte(payload.String)
	}
	rec.ConversationID = conv.String
	rec.LatencyMS = latency.Int64
	rec.Status = types.RecordStatus(status)
	rec.ErrorMessage = em.String
	return rec, nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
