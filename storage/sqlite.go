// SQLite persistence.
//
// Information Hiding:
// - SQLite connection management hidden behind interfaces
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore implements Store using SQLite.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// An in-memory database exists per connection; pin the pool to one.
	db.SetMaxOpenConns(1)

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS api_keys (
			key_name TEXT PRIMARY KEY,
			key_value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_sessions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_chat_messages_session
		ON chat_messages(session_id, timestamp);

		CREATE TABLE IF NOT EXISTS program_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			tool_name TEXT NOT NULL,
			input_data TEXT NOT NULL,
			result_data TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_program_results_session
		ON program_results(session_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Session operations

// CreateSession creates a new named session.
func (s *SqliteStore) CreateSession(ctx context.Context, name string) (Session, error) {
	now := time.Now().UTC()
	session := Session{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_sessions (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		session.ID, session.Name, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// DefaultSession returns the earliest-created session, creating a
// "Default" session lazily when none exists.
func (s *SqliteStore) DefaultSession(ctx context.Context) (Session, error) {
	var session Session
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM chat_sessions ORDER BY created_at ASC LIMIT 1").
		Scan(&session.ID, &session.Name, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return s.CreateSession(ctx, "Default")
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to query default session: %w", err)
	}

	return session, nil
}

// Session returns a session by id.
func (s *SqliteStore) Session(ctx context.Context, id string) (Session, error) {
	var session Session
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM chat_sessions WHERE id = ?", id).
		Scan(&session.ID, &session.Name, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return Session{}, fmt.Errorf("session %q not found", id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to query session: %w", err)
	}

	return session, nil
}

// ListSessions lists all sessions, most recently updated first.
func (s *SqliteStore) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, updated_at FROM chat_sessions ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{} // Start with empty slice, not nil
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.ID, &session.Name, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// RenameSession updates a session's name.
func (s *SqliteStore) RenameSession(ctx context.Context, id, name string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE chat_sessions SET name = ?, updated_at = ? WHERE id = ?",
		name, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rename result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %q not found", id)
	}
	return nil
}

// DeleteSession removes a session; messages and results cascade.
func (s *SqliteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// AppendMessage appends a transcript entry and advances the session's
// updated_at.
func (s *SqliteStore) AppendMessage(ctx context.Context, sessionID, role, content string) (Message, error) {
	now := time.Now().UTC()
	msg := Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op after Commit
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO chat_messages (id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.Timestamp)
	if err != nil {
		return Message{}, fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE chat_sessions SET updated_at = ? WHERE id = ?", now, sessionID)
	if err != nil {
		return Message{}, fmt.Errorf("failed to update session timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return msg, nil
}

// Messages returns the session transcript ordered by timestamp ascending.
// Insertion order breaks timestamp ties.
func (s *SqliteStore) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, role, content, timestamp FROM chat_messages WHERE session_id = ? ORDER BY timestamp ASC, rowid ASC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{} // Start with empty slice, not nil
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// Result operations

// SaveResult appends one result row and returns its generated id.
func (s *SqliteStore) SaveResult(ctx context.Context, sessionID, toolName, inputData, resultData, summary string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO program_results (session_id, tool_name, input_data, result_data, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, toolName, inputData, resultData, summary, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to save result: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read result id: %w", err)
	}
	return id, nil
}

// Result returns a result by id, or nil when absent.
func (s *SqliteStore) Result(ctx context.Context, id int64) (*ProgramResult, error) {
	var r ProgramResult
	err := s.db.QueryRowContext(ctx,
		"SELECT id, session_id, tool_name, input_data, result_data, summary, created_at FROM program_results WHERE id = ?", id).
		Scan(&r.ID, &r.SessionID, &r.ToolName, &r.InputData, &r.ResultData, &r.Summary, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query result: %w", err)
	}

	return &r, nil
}

// ResultsBySession returns a session's results, newest first.
func (s *SqliteStore) ResultsBySession(ctx context.Context, sessionID string) ([]ProgramResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, tool_name, input_data, result_data, summary, created_at FROM program_results WHERE session_id = ? ORDER BY id DESC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []ProgramResult{} // Start with empty slice, not nil
	for rows.Next() {
		var r ProgramResult
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ToolName, &r.InputData, &r.ResultData, &r.Summary, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// Key operations

// Key returns the value for a key name, or "" when absent.
func (s *SqliteStore) Key(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT key_value FROM api_keys WHERE key_name = ?", name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query key: %w", err)
	}

	return value, nil
}

// SetKey inserts or replaces a key.
func (s *SqliteStore) SetKey(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO api_keys (key_name, key_value) VALUES (?, ?)", name, value)
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// DeleteKey removes a key.
func (s *SqliteStore) DeleteKey(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE key_name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Verify SqliteStore implements the full persistence surface
var _ Store = (*SqliteStore)(nil)
