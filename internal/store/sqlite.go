// ABOUTME: SQLite implementation of ChatStore using modernc.org/sqlite
// ABOUTME: Provides chat and message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements ChatStore on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a store at the given path. The schema is created if
// it doesn't exist, and parent directories are created as needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// modernc's driver allows one writer at a time; a single connection
	// avoids SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist. Message seq
// numbers are AUTOINCREMENT so history order survives deletes and restarts.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS chats (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_chats_created ON chats(created_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			seq     INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT NOT NULL REFERENCES chats(id),
			role    TEXT NOT NULL,
			content TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant', 'assistant_error', 'system'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// List returns summaries of all chats, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]ChatSummary, error) {
	query := `
		SELECT id, title, created_at
		FROM chats
		ORDER BY created_at DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying chats: %w", err)
	}
	defer rows.Close()

	summaries := make([]ChatSummary, 0)
	for rows.Next() {
		var summary ChatSummary
		var createdAt int64

		if err := rows.Scan(&summary.ID, &summary.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat row: %w", err)
		}
		summary.CreatedAt = time.Unix(0, createdAt).UTC()
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat rows: %w", err)
	}
	return summaries, nil
}

// Create adds an empty chat with the given title.
func (s *SQLiteStore) Create(ctx context.Context, title string) (ChatSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return ChatSummary{}, ErrEmptyTitle
	}

	summary := ChatSummary{
		ID:        NewChatID(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO chats (id, title, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, summary.ID, summary.Title, summary.CreatedAt.UnixNano()); err != nil {
		return ChatSummary{}, fmt.Errorf("inserting chat: %w", err)
	}

	s.logger.Debug("chat created", "chat_id", summary.ID, "title", summary.Title)
	return summary, nil
}

// History returns the messages of a chat in append order.
func (s *SQLiteStore) History(ctx context.Context, id string) ([]Message, error) {
	if err := s.chatExists(ctx, id); err != nil {
		return nil, err
	}

	query := `
		SELECT role, content
		FROM messages
		WHERE chat_id = ?
		ORDER BY seq
	`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return messages, nil
}

// Append adds a message to a chat. The existence check and insert share a
// transaction so a concurrent delete cannot orphan the row.
func (s *SQLiteStore) Append(ctx context.Context, id string, role Role, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM chats WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("querying chat: %w", err)
	}

	query := `INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, id, string(role), content); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing message: %w", err)
	}

	s.logger.Debug("message appended", "chat_id", id, "role", role)
	return nil
}

// chatExists returns ErrNotFound when no chat has the given id.
func (s *SQLiteStore) chatExists(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chats WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("querying chat: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// Ensure both backends implement ChatStore.
var (
	_ ChatStore = (*SQLiteStore)(nil)
	_ ChatStore = (*JSONStore)(nil)
)
