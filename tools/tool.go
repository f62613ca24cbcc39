// Package tools defines the tool catalogue exposed to the LLM and the
// registry that dispatches tool invocations to handlers.
//
// Tool identity is a closed enum: adding a tool means adding a ToolID,
// a Definition case and a bind case, so a missing handler is caught when
// the registry is built, not when the LLM happens to call the tool. The
// wire-level name is a serialization detail of the enum.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolID identifies one tool in the closed catalogue.
type ToolID int

const (
	// ToolConfigure sets the proxy auth token and endpoint (bridge only).
	ToolConfigure ToolID = iota
	// ToolListRequests lists captured requests matching an HTTPQL query.
	ToolListRequests
	// ToolGetRequest fetches one captured request by id.
	ToolGetRequest
	// ToolGetResponse fetches the response of a captured request.
	ToolGetResponse
	// ToolCreateReplaySession creates a replay session from a request.
	ToolCreateReplaySession
	// ToolListReplaySessions lists replay sessions.
	ToolListReplaySessions
	// ToolRenameReplaySession renames a replay session.
	ToolRenameReplaySession
	// ToolSendReplayRequest sends a raw request in a replay session.
	ToolSendReplayRequest
	// ToolCreateTamperRule creates a match/replace rule.
	ToolCreateTamperRule
	// ToolListTamperRules lists match/replace rules.
	ToolListTamperRules
	// ToolUpdateTamperRule updates a match/replace rule.
	ToolUpdateTamperRule
	// ToolCreateFinding records a finding.
	ToolCreateFinding
	// ToolListFindings lists recorded findings.
	ToolListFindings
	// ToolSendRequest issues an ad-hoc HTTP request.
	ToolSendRequest

	toolCount // sentinel, keep last
)

// WireName returns the tool's serialized name as seen by the LLM.
func (id ToolID) WireName() string {
	switch id {
	case ToolConfigure:
		return "configure"
	case ToolListRequests:
		return "list_requests"
	case ToolGetRequest:
		return "get_request"
	case ToolGetResponse:
		return "get_response"
	case ToolCreateReplaySession:
		return "create_replay_session"
	case ToolListReplaySessions:
		return "list_replay_sessions"
	case ToolRenameReplaySession:
		return "rename_replay_session"
	case ToolSendReplayRequest:
		return "send_replay_request"
	case ToolCreateTamperRule:
		return "create_tamper_rule"
	case ToolListTamperRules:
		return "list_tamper_rules"
	case ToolUpdateTamperRule:
		return "update_tamper_rule"
	case ToolCreateFinding:
		return "create_finding"
	case ToolListFindings:
		return "list_findings"
	case ToolSendRequest:
		return "send_request"
	default:
		return fmt.Sprintf("unknown_tool_%d", int(id))
	}
}

// All returns every tool in the catalogue, in a stable order.
func All() []ToolID {
	ids := make([]ToolID, 0, toolCount)
	for id := ToolID(0); id < toolCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// byWireName resolves a serialized tool name back to its id.
func byWireName(name string) (ToolID, bool) {
	for id := ToolID(0); id < toolCount; id++ {
		if id.WireName() == name {
			return id, true
		}
	}
	return 0, false
}

// Result is the uniform outcome of a tool execution. Summary is mandatory
// on both success and failure paths: the orchestrator builds the next
// LLM-facing message from it, so an empty summary is a handler bug.
type Result struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Summary string                 `json:"summary"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Succeed creates a successful result.
func Succeed(summary string, data map[string]interface{}) Result {
	return Result{Success: true, Summary: summary, Data: data}
}

// Fail creates a failed result. The failure is still a normal handler
// outcome: it is persisted and reported to the LLM, not thrown.
func Fail(summary, errMsg string) Result {
	return Result{Success: false, Summary: summary, Error: errMsg}
}

// Handler executes one tool invocation.
// A returned error is an execution fault (aborts the whole turn); an
// expected failure is expressed as Result{Success: false}.
type Handler func(ctx context.Context, input map[string]interface{}) (Result, error)

// HandlerNotFoundError reports a dispatch for a name absent from the
// registry. This is a configuration bug, not a user error, and it is
// fatal to the turn that triggered it.
type HandlerNotFoundError struct {
	Tool string
}

func (e *HandlerNotFoundError) Error() string {
	return "Handler not found for tool: " + e.Tool
}

// decodeInput maps loosely-typed tool input onto a typed args struct.
func decodeInput(input map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	return nil
}
