// Package storage persists chat sessions, transcripts, tool results and
// API keys.
package storage

import "time"

// Session is a named conversation transcript.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one transcript entry. Messages are ordered by Timestamp
// ascending within a session; that ordered sequence is the literal
// transcript sent to the LLM on each turn.
type Message struct {
	ID        string
	SessionID string
	Role      string // "user" or "assistant"
	Content   string
	Timestamp time.Time
}

// ProgramResult is the persisted record of one executed tool invocation.
// Rows are immutable once written and only removed by session cascade.
type ProgramResult struct {
	ID         int64
	SessionID  string
	ToolName   string
	InputData  string // serialized tool input
	ResultData string // serialized tool result
	Summary    string
	CreatedAt  time.Time
}
