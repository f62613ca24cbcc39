// Package mcp exposes the tool catalogue over the Model Context Protocol:
// JSON-RPC 2.0 messages on standard input/output, one message per line
// (Content-Length framing is also accepted on the read side).
//
// The server is the standalone bridge front door: it has no database and
// no LLM. Credentials arrive through the configure tool and live in an
// in-process store for the life of the process.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avennor/trawl/llm"
	"github.com/avennor/trawl/tools"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "trawl"
	serverVersion   = "0.1.0"

	// maxMessageSize caps Content-Length framed bodies.
	maxMessageSize = 4 * 1024 * 1024
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Dispatcher executes tools and exposes the catalogue.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, input map[string]interface{}) (tools.Result, error)
	Definitions() []llm.ToolDefinition
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server serves MCP over a reader/writer pair (stdin/stdout in the
// bridge process, in-memory pipes in tests).
type Server struct {
	in         *bufio.Reader
	out        io.Writer
	dispatcher Dispatcher
	log        zerolog.Logger
}

// NewServer creates an MCP server. Logging must go to the given logger
// (typically stderr): stdout carries protocol messages only.
func NewServer(in io.Reader, out io.Writer, dispatcher Dispatcher, log zerolog.Logger) *Server {
	return &Server{
		in:         bufio.NewReader(in),
		out:        out,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run serves requests until the input closes or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := readMessage(s.in, maxMessageSize)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		var req request
		if err := json.Unmarshal(raw, &req); err != nil {
			s.reply(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}})
			continue
		}

		s.log.Debug().Str("method", req.Method).Msg("mcp request")
		s.handle(ctx, req)
	}
}

func (s *Server) handle(ctx context.Context, req request) {
	// Notifications get no reply.
	if strings.HasPrefix(req.Method, "notifications/") {
		return
	}

	switch req.Method {
	case "initialize":
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": serverVersion,
			},
		}})

	case "ping":
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{}})

	case "tools/list":
		defs := s.dispatcher.Definitions()
		list := make([]map[string]interface{}, 0, len(defs))
		for _, def := range defs {
			list = append(list, map[string]interface{}{
				"name":        def.Name,
				"description": def.Description,
				"inputSchema": def.Parameters,
			})
		}
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{"tools": list}})

	case "tools/call":
		s.handleToolCall(ctx, req)

	default:
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code:    codeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}})
	}
}

func (s *Server) handleToolCall(ctx context.Context, req request) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code:    codeInvalidParams,
			Message: "tools/call requires a tool name",
		}})
		return
	}

	result, err := s.dispatcher.Dispatch(ctx, params.Name, params.Arguments)
	if err != nil {
		// Unknown tool or handler fault: a protocol-level error, not a
		// tool-reported failure.
		s.log.Error().Str("tool", params.Name).Err(err).Msg("tool dispatch failed")
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code:    codeInternalError,
			Message: err.Error(),
		}})
		return
	}

	body, merr := json.MarshalIndent(result, "", "  ")
	if merr != nil {
		body = []byte(result.Summary)
	}

	s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(body)},
		},
		"isError": !result.Success,
	}})
}

func (s *Server) reply(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal response")
		return
	}
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.log.Error().Err(err).Msg("failed to write response")
	}
}

// readMessage reads one message: either a line of JSON or a
// Content-Length framed body.
func readMessage(reader *bufio.Reader, maxBody int) ([]byte, error) {
	for {
		lineBytes, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				trimmed := strings.TrimSpace(string(lineBytes))
				if trimmed == "" {
					return nil, io.EOF
				}
				return []byte(trimmed), nil
			}
			return nil, err
		}

		line := strings.TrimSpace(string(lineBytes))
		if line == "" {
			continue
		}

		if !strings.HasPrefix(strings.ToLower(line), "content-length:") {
			return []byte(line), nil
		}

		parts := strings.SplitN(line, ":", 2)
		length, convErr := strconv.Atoi(strings.TrimSpace(parts[1]))
		if convErr != nil || length < 0 || length > maxBody {
			return []byte(line), nil
		}

		// Skip remaining headers up to the blank separator line.
		for {
			header, headerErr := reader.ReadBytes('\n')
			if headerErr != nil {
				return nil, headerErr
			}
			if strings.TrimSpace(string(header)) == "" {
				break
			}
		}

		payload := make([]byte, length)
		if _, readErr := io.ReadFull(reader, payload); readErr != nil {
			return nil, readErr
		}
		return bytes.TrimSpace(payload), nil
	}
}
