package tracker

import (
	"testing"
)

func TestStartThenQuery(t *testing.T) {
	tr := New()

	input := map[string]interface{}{"query": "req.host.eq:\"example.com\""}
	tr.Start("session-1", "list_requests", input)

	exec, ok := tr.Query("session-1")
	if !ok {
		t.Fatal("expected an entry after Start")
	}
	if !exec.Executing {
		t.Error("expected Executing=true after Start")
	}
	if exec.ToolName != "list_requests" {
		t.Errorf("expected tool 'list_requests', got %q", exec.ToolName)
	}
	if exec.Input["query"] != input["query"] {
		t.Errorf("input not preserved: %v", exec.Input)
	}
	if exec.StartTime.IsZero() {
		t.Error("expected StartTime to be stamped")
	}
}

func TestStopRemovesEntry(t *testing.T) {
	tr := New()

	tr.Start("session-1", "get_request", nil)
	if existed := tr.Stop("session-1"); !existed {
		t.Error("Stop should report the entry existed")
	}

	if _, ok := tr.Query("session-1"); ok {
		t.Error("expected no entry after Stop")
	}

	if existed := tr.Stop("session-1"); existed {
		t.Error("second Stop should report no entry")
	}
}

func TestCheckpointKeepsEntryNotExecuting(t *testing.T) {
	tr := New()

	tr.Start("session-1", "create_tamper_rule", map[string]interface{}{"name": "r1"})
	tr.Checkpoint("session-1", "create_tamper_rule", map[string]interface{}{"name": "r1"})

	exec, ok := tr.Query("session-1")
	if !ok {
		t.Fatal("expected entry to survive Checkpoint")
	}
	if exec.Executing {
		t.Error("expected Executing=false after Checkpoint")
	}
	if exec.ToolName != "create_tamper_rule" {
		t.Errorf("expected tool 'create_tamper_rule', got %q", exec.ToolName)
	}
}

func TestAtMostOneEntryPerSession(t *testing.T) {
	tr := New()

	tr.Start("session-1", "tool_a", nil)
	tr.Start("session-1", "tool_b", nil)

	exec, ok := tr.Query("session-1")
	if !ok {
		t.Fatal("expected an entry")
	}
	if exec.ToolName != "tool_b" {
		t.Errorf("second Start should overwrite, got %q", exec.ToolName)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	tr := New()

	tr.Start("session-1", "tool_a", nil)
	tr.Start("session-2", "tool_b", nil)
	tr.Stop("session-1")

	if _, ok := tr.Query("session-1"); ok {
		t.Error("session-1 should be cleared")
	}
	exec, ok := tr.Query("session-2")
	if !ok || exec.ToolName != "tool_b" {
		t.Error("session-2 entry should be untouched")
	}
}
