package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wavelength-ai/chat-insights/internal/model"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
	"github.com/wavelength-ai/chat-insights/pkg/metrics"
)

// SQLiteStore implements Store using modernc.org/sqlite. The schema is
// created automatically on open.
type SQLiteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteStore opens (or creates) a SQLite store at the given path.
// Parent directories are created if needed.
func NewSQLiteStore(path string, log *logger.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL keeps readers unblocked while submissions write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	log.Info("sqlite store initialized", zap.String("path", path))
	return s, nil
}

// Timestamps are stored as integer Unix nanoseconds (UTC) so range filters
// and ordering never depend on string formats.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}'
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages(conversation_id);

		CREATE INDEX IF NOT EXISTS idx_messages_user
			ON messages(user_id);

		CREATE INDEX IF NOT EXISTS idx_messages_created_desc
			ON messages(created_at DESC);

		CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			summary TEXT NOT NULL,
			sentiment TEXT,
			keywords TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_summaries_conversation
			ON summaries(conversation_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertMessage persists a message, assigning its ID.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *model.Message) error {
	start := time.Now()
	defer metrics.ObserveStorageOp("insert_message", start)

	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	meta := "{}"
	if len(msg.Metadata) > 0 {
		raw, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		meta = string(raw)
	}

	query := `
		INSERT INTO messages (id, conversation_id, user_id, body, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.UserID,
		msg.Body,
		msg.CreatedAt.UTC().UnixNano(),
		meta,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("inserted message",
		zap.String("id", msg.ID),
		zap.String("conversation_id", msg.ConversationID),
	)
	return nil
}

// QueryMessages returns a conversation's messages sorted ascending by
// timestamp. The search text is a case-insensitive substring pattern (LIKE
// semantics), not a tokenized search.
func (s *SQLiteStore) QueryMessages(ctx context.Context, q MessageQuery) ([]model.Message, error) {
	start := time.Now()
	defer metrics.ObserveStorageOp("query_messages", start)

	query := `
		SELECT id, conversation_id, user_id, body, created_at, metadata
		FROM messages
		WHERE conversation_id = ?
	`
	args := []any{q.ConversationID}

	if q.SearchText != "" {
		query += ` AND body LIKE '%' || ? || '%'`
		args = append(args, q.SearchText)
	}
	if q.StartTime != nil {
		query += ` AND created_at >= ?`
		args = append(args, q.StartTime.UTC().UnixNano())
	}
	if q.EndTime != nil {
		query += ` AND created_at <= ?`
		args = append(args, q.EndTime.UTC().UnixNano())
	}

	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// PaginateByUser returns one page of a user's messages, newest first. The
// total is computed with a window function in the same pass as the page so a
// concurrent insert cannot skew count against data.
func (s *SQLiteStore) PaginateByUser(ctx context.Context, userID string, page, limit int) (*model.PaginatedMessages, error) {
	start := time.Now()
	defer metrics.ObserveStorageOp("paginate_by_user", start)

	offset := (page - 1) * limit

	query := `
		SELECT id, conversation_id, user_id, body, created_at, metadata,
		       COUNT(*) OVER () AS total
		FROM messages
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("paginating messages: %w", err)
	}
	defer rows.Close()

	resp := &model.PaginatedMessages{
		Page:  page,
		Limit: limit,
		Data:  make([]model.Message, 0, limit),
	}

	for rows.Next() {
		var (
			msg       model.Message
			createdAt int64
			meta      string
			total     int
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.Body, &createdAt, &meta, &total); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msg.CreatedAt = time.Unix(0, createdAt).UTC()
		if err := decodeMetadata(meta, &msg); err != nil {
			return nil, err
		}
		resp.Total = total
		resp.Data = append(resp.Data, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	// A page past the end returns no rows, so the window total is missing
	// and has to be counted separately.
	if len(resp.Data) == 0 {
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID)
		if err := row.Scan(&resp.Total); err != nil {
			return nil, fmt.Errorf("counting messages: %w", err)
		}
	}

	return resp, nil
}

// InsertSummary persists a summary, assigning its ID.
func (s *SQLiteStore) InsertSummary(ctx context.Context, summary *model.Summary) error {
	start := time.Now()
	defer metrics.ObserveStorageOp("insert_summary", start)

	if summary.ID == "" {
		summary.ID = uuid.Must(uuid.NewV7()).String()
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}

	keywords := "[]"
	if len(summary.Keywords) > 0 {
		raw, err := json.Marshal(summary.Keywords)
		if err != nil {
			return fmt.Errorf("encoding keywords: %w", err)
		}
		keywords = string(raw)
	}

	query := `
		INSERT INTO summaries (id, conversation_id, summary, sentiment, keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		summary.ID,
		summary.ConversationID,
		summary.Summary,
		nullString(summary.Sentiment),
		keywords,
		summary.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting summary: %w", err)
	}

	s.logger.Debug("inserted summary",
		zap.String("id", summary.ID),
		zap.String("conversation_id", summary.ConversationID),
	)
	return nil
}

// DeleteConversation removes all messages and summaries for the conversation
// in a single transaction, so a failure cannot leave orphaned summaries.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, conversationID string) (bool, error) {
	start := time.Now()
	defer metrics.ObserveStorageOp("delete_conversation", start)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	msgResult, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return false, fmt.Errorf("deleting messages: %w", err)
	}

	sumResult, err := tx.ExecContext(ctx, `DELETE FROM summaries WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return false, fmt.Errorf("deleting summaries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}

	msgCount, _ := msgResult.RowsAffected()
	sumCount, _ := sumResult.RowsAffected()

	s.logger.Debug("deleted conversation",
		zap.String("conversation_id", conversationID),
		zap.Int64("messages", msgCount),
		zap.Int64("summaries", sumCount),
	)
	return msgCount+sumCount > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (model.Message, error) {
	var (
		msg       model.Message
		createdAt int64
		meta      string
	)
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.Body, &createdAt, &meta); err != nil {
		return model.Message{}, fmt.Errorf("scanning message row: %w", err)
	}
	msg.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := decodeMetadata(meta, &msg); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

func decodeMetadata(raw string, msg *model.Message) error {
	if raw == "" || raw == "{}" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &msg.Metadata); err != nil {
		return fmt.Errorf("decoding metadata: %w", err)
	}
	return nil
}

// nullString returns nil for empty strings so the column stays NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
