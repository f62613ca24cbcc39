// Package tracker records in-flight tool executions per chat session.
//
// The tracker is advisory UI state: it tells a front end whether a session
// currently has a tool call running (or which call last failed), nothing
// more. It is not a durable queue and resets with the process. Instances
// are injected into the orchestrator rather than shared through a package
// global so tests can run against isolated trackers.
package tracker

import (
	"sync"
	"time"
)

// Execution is the tracked state for one session.
type Execution struct {
	ToolName  string
	Input     map[string]interface{}
	StartTime time.Time
	Executing bool
}

// Tracker holds at most one Execution per session id.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]Execution
	now      func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		sessions: make(map[string]Execution),
		now:      time.Now,
	}
}

// Start records that a tool call is now executing for the session,
// replacing any previous entry.
func (t *Tracker) Start(sessionID, toolName string, input map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessions[sessionID] = Execution{
		ToolName:  toolName,
		Input:     input,
		StartTime: t.now(),
		Executing: true,
	}
}

// Stop removes the session's entry unconditionally.
// The returned bool reports whether an entry existed (diagnostic only).
func (t *Tracker) Stop(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, existed := t.sessions[sessionID]
	delete(t.sessions, sessionID)
	return existed
}

// Query returns the session's entry, or false if none exists.
func (t *Tracker) Query(sessionID string) (Execution, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	exec, ok := t.sessions[sessionID]
	return exec, ok
}

// Checkpoint overwrites the session's entry with Executing=false.
// Used when a tool call fails so a UI can show "last attempted: X"
// rather than "currently running: X".
func (t *Tracker) Checkpoint(sessionID, toolName string, input map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessions[sessionID] = Execution{
		ToolName:  toolName,
		Input:     input,
		StartTime: t.now(),
		Executing: false,
	}
}
