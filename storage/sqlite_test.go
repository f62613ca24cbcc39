package storage

import (
	"context"
	"fmt"
	"testing"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMessagesOrderedByAppend(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var want []string
	for i := 0; i < 10; i++ {
		content := fmt.Sprintf("message %d", i)
		want = append(want, content)
		if _, err := store.AppendMessage(ctx, session.ID, "user", content); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	messages, err := store.Messages(ctx, session.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(messages))
	}
	for i, msg := range messages {
		if msg.Content != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], msg.Content)
		}
		if i > 0 && messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			t.Errorf("message %d timestamp regressed", i)
		}
	}
}

func TestMessagesUnknownSessionEmpty(t *testing.T) {
	store := newTestStore(t)

	messages, err := store.Messages(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if messages == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %d", len(messages))
	}
}

func TestDefaultSessionLazyCreation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session, err := store.DefaultSession(ctx)
	if err != nil {
		t.Fatalf("DefaultSession failed: %v", err)
	}
	if session.Name != "Default" {
		t.Errorf("expected lazily created 'Default' session, got %q", session.Name)
	}

	// A second call returns the same session, not another one.
	again, err := store.DefaultSession(ctx)
	if err != nil {
		t.Fatalf("DefaultSession failed: %v", err)
	}
	if again.ID != session.ID {
		t.Error("DefaultSession should be stable across calls")
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("expected exactly one session, got %d", len(sessions))
	}
}

func TestDefaultSessionPicksEarliest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "first")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := store.CreateSession(ctx, "second"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	session, err := store.DefaultSession(ctx)
	if err != nil {
		t.Fatalf("DefaultSession failed: %v", err)
	}
	if session.ID != first.ID {
		t.Errorf("expected earliest session %q, got %q", first.ID, session.ID)
	}
}

func TestAppendMessageAdvancesUpdatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := store.AppendMessage(ctx, session.ID, "user", "hello"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	updated, err := store.Session(ctx, session.ID)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if updated.UpdatedAt.Before(session.UpdatedAt) {
		t.Error("updated_at should not regress after AppendMessage")
	}
}

func TestSaveResultAppendsDistinctRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Replaying the identical invocation appends a second, distinct row.
	id1, err := store.SaveResult(ctx, session.ID, "list_requests", `{"limit":10}`, `{"count":3}`, "Found 3 requests")
	if err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	id2, err := store.SaveResult(ctx, session.ID, "list_requests", `{"limit":10}`, `{"count":3}`, "Found 3 requests")
	if err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	if id1 == id2 {
		t.Error("expected distinct result ids")
	}
	if id2 <= id1 {
		t.Errorf("expected monotonic ids, got %d then %d", id1, id2)
	}

	results, err := store.ResultsBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ResultsBySession failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 rows, got %d", len(results))
	}

	r, err := store.Result(ctx, id1)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if r == nil || r.Summary != "Found 3 requests" {
		t.Errorf("unexpected result row: %+v", r)
	}
}

func TestResultAbsent(t *testing.T) {
	store := newTestStore(t)

	r, err := store.Result(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if r != nil {
		t.Error("expected nil for absent result")
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := store.AppendMessage(ctx, session.ID, "user", "hello"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	id, err := store.SaveResult(ctx, session.ID, "get_request", `{}`, `{}`, "ok")
	if err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	if err := store.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	messages, err := store.Messages(ctx, session.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected messages to cascade, got %d", len(messages))
	}

	r, err := store.Result(ctx, id)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if r != nil {
		t.Error("expected results to cascade")
	}
}

func TestKeyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	value, err := store.Key(ctx, "anthropic_api_key")
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value for absent key, got %q", value)
	}

	if err := store.SetKey(ctx, "anthropic_api_key", "sk-test"); err != nil {
		t.Fatalf("SetKey failed: %v", err)
	}
	if err := store.SetKey(ctx, "anthropic_api_key", "sk-test-2"); err != nil {
		t.Fatalf("SetKey replace failed: %v", err)
	}

	value, err = store.Key(ctx, "anthropic_api_key")
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if value != "sk-test-2" {
		t.Errorf("expected replaced value, got %q", value)
	}

	if err := store.DeleteKey(ctx, "anthropic_api_key"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	value, err = store.Key(ctx, "anthropic_api_key")
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value after delete, got %q", value)
	}
}

func TestPersistedCredentials(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	creds, err := store.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if creds.Token != "" || creds.BaseURL != "" {
		t.Errorf("expected empty credentials, got %+v", creds)
	}

	if err := store.SetAuth(ctx, "token-1", "http://127.0.0.1:9090/graphql"); err != nil {
		t.Fatalf("SetAuth failed: %v", err)
	}

	creds, err = store.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if creds.Token != "token-1" {
		t.Errorf("expected token-1, got %q", creds.Token)
	}
	if creds.BaseURL != "http://127.0.0.1:9090" {
		t.Errorf("expected trimmed base URL, got %q", creds.BaseURL)
	}
}
