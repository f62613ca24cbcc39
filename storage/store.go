// Storage interfaces consumed by the orchestrator and tool handlers.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interfaces
// - Each implementation encapsulates its own schema and protocols

package storage

import "context"

// SessionStore manages sessions and their transcripts.
type SessionStore interface {
	// CreateSession creates a new named session.
	CreateSession(ctx context.Context, name string) (Session, error)

	// DefaultSession returns the earliest-created session, creating one
	// lazily when none exists.
	DefaultSession(ctx context.Context) (Session, error)

	// Session returns a session by id.
	Session(ctx context.Context, id string) (Session, error)

	// ListSessions lists all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]Session, error)

	// RenameSession updates a session's name.
	RenameSession(ctx context.Context, id, name string) error

	// DeleteSession removes a session; messages and results cascade.
	DeleteSession(ctx context.Context, id string) error

	// AppendMessage appends a transcript entry and advances the
	// session's updated_at.
	AppendMessage(ctx context.Context, sessionID, role, content string) (Message, error)

	// Messages returns the session transcript ordered by timestamp
	// ascending. Returns empty slice (not nil) for unknown sessions.
	Messages(ctx context.Context, sessionID string) ([]Message, error)
}

// ResultStore persists tool execution results.
type ResultStore interface {
	// SaveResult appends one result row and returns its generated id.
	// Every call appends; there is no deduplication.
	SaveResult(ctx context.Context, sessionID, toolName, inputData, resultData, summary string) (int64, error)

	// Result returns a result by id, or nil when absent.
	Result(ctx context.Context, id int64) (*ProgramResult, error)

	// ResultsBySession returns a session's results, newest first.
	ResultsBySession(ctx context.Context, sessionID string) ([]ProgramResult, error)
}

// KeyStore holds named secrets (LLM API keys, proxy credentials).
type KeyStore interface {
	// Key returns the value for a key name, or "" when absent.
	Key(ctx context.Context, name string) (string, error)

	// SetKey inserts or replaces a key.
	SetKey(ctx context.Context, name, value string) error

	// DeleteKey removes a key. Removing an absent key is not an error.
	DeleteKey(ctx context.Context, name string) error
}

// Store is the full persistence surface.
type Store interface {
	SessionStore
	ResultStore
	KeyStore
}
