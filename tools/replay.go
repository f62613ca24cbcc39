// Replay session tools.

package tools

import (
	"context"
	"fmt"
)

type createReplaySessionArgs struct {
	RequestID string `json:"request_id" jsonschema:"description=Captured request id to seed the replay session from"`
}

type listReplaySessionsArgs struct{}

type renameReplaySessionArgs struct {
	SessionID string `json:"session_id" jsonschema:"description=Replay session id"`
	Name      string `json:"name" jsonschema:"description=New session name"`
}

type sendReplayRequestArgs struct {
	SessionID  string `json:"session_id" jsonschema:"description=Replay session id"`
	RawRequest string `json:"raw_request" jsonschema:"description=Full raw HTTP request to send"`
	Host       string `json:"host,omitempty" jsonschema:"description=Target host; defaults to the session's current target"`
	Port       int    `json:"port,omitempty" jsonschema:"description=Target port"`
	IsTLS      bool   `json:"is_tls,omitempty" jsonschema:"description=Whether to connect over TLS"`
}

const createReplaySessionMutation = `
	mutation createReplaySession($requestId: ID!) {
		createReplaySession(input: { requestId: $requestId }) {
			session {
				id
				name
			}
		}
	}`

const listReplaySessionsQuery = `
	query replaySessions {
		replaySessions {
			nodes {
				id
				name
			}
		}
	}`

const renameReplaySessionMutation = `
	mutation renameReplaySession($id: ID!, $name: String!) {
		renameReplaySession(id: $id, name: $name) {
			session {
				id
				name
			}
		}
	}`

const sendReplayRequestMutation = `
	mutation startReplayTask($sessionId: ID!, $input: StartReplayTaskInput!) {
		startReplayTask(sessionId: $sessionId, input: $input) {
			task {
				id
				replayEntry {
					id
					request {
						id
						response {
							statusCode
							raw
						}
					}
				}
			}
		}
	}`

func (b *Backend) createReplaySession(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args createReplaySessionArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid create_replay_session input", err.Error()), nil
	}
	if args.RequestID == "" {
		return Fail("Missing request id", "request_id is required"), nil
	}

	data, failed := b.runOperation(ctx, "createReplaySession", createReplaySessionMutation,
		map[string]interface{}{"requestId": args.RequestID}, "Failed to create replay session")
	if failed != nil {
		return *failed, nil
	}

	return Succeed(fmt.Sprintf("Created replay session from request %s", args.RequestID), data), nil
}

func (b *Backend) listReplaySessions(ctx context.Context, input map[string]interface{}) (Result, error) {
	data, failed := b.runOperation(ctx, "replaySessions", listReplaySessionsQuery, nil,
		"Failed to list replay sessions")
	if failed != nil {
		return *failed, nil
	}

	count := len(nodesOf(data, "replaySessions"))
	return Succeed(fmt.Sprintf("Found %d replay sessions", count), data), nil
}

func (b *Backend) renameReplaySession(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args renameReplaySessionArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid rename_replay_session input", err.Error()), nil
	}
	if args.SessionID == "" || args.Name == "" {
		return Fail("Missing session id or name", "session_id and name are required"), nil
	}

	data, failed := b.runOperation(ctx, "renameReplaySession", renameReplaySessionMutation,
		map[string]interface{}{"id": args.SessionID, "name": args.Name}, "Failed to rename replay session")
	if failed != nil {
		return *failed, nil
	}

	return Succeed(fmt.Sprintf("Renamed replay session %s to %q", args.SessionID, args.Name), data), nil
}

func (b *Backend) sendReplayRequest(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args sendReplayRequestArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid send_replay_request input", err.Error()), nil
	}
	if args.SessionID == "" {
		return Fail("Missing session id", "session_id is required"), nil
	}
	if args.RawRequest == "" {
		return Fail("Missing raw request", "raw_request is required"), nil
	}

	taskInput := map[string]interface{}{"raw": args.RawRequest}
	if args.Host != "" {
		connection := map[string]interface{}{"host": args.Host, "isTLS": args.IsTLS}
		if args.Port > 0 {
			connection["port"] = args.Port
		}
		taskInput["connection"] = connection
	}

	data, failed := b.runOperation(ctx, "startReplayTask", sendReplayRequestMutation,
		map[string]interface{}{"sessionId": args.SessionID, "input": taskInput},
		"Failed to send replay request")
	if failed != nil {
		return *failed, nil
	}

	return Succeed(fmt.Sprintf("Sent replay request in session %s", args.SessionID), data), nil
}
