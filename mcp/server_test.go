package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avennor/trawl/graphql"
	"github.com/avennor/trawl/tools"
)

func runServer(t *testing.T, input string) []map[string]interface{} {
	t.Helper()

	store := graphql.NewConfigStore("", "")
	dispatcher := tools.NewRegistry(tools.NewBackend(graphql.NewClient(store), store))

	var out bytes.Buffer
	server := NewServer(strings.NewReader(input), &out, dispatcher, zerolog.Nop())
	if err := server.Run(context.Background()); err != nil {
		t.Fatalf("server failed: %v", err)
	}

	var replies []map[string]interface{}
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var reply map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &reply); err != nil {
			t.Fatalf("malformed reply %q: %v", scanner.Text(), err)
		}
		replies = append(replies, reply)
	}
	return replies
}

func TestInitializeHandshake(t *testing.T) {
	replies := runServer(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`+"\n")
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	result, _ := replies[0]["result"].(map[string]interface{})
	if result == nil {
		t.Fatalf("no result in %v", replies[0])
	}
	if result["protocolVersion"] != protocolVersion {
		t.Fatalf("protocolVersion = %v", result["protocolVersion"])
	}
	info, _ := result["serverInfo"].(map[string]interface{})
	if info == nil || info["name"] != serverName {
		t.Fatalf("serverInfo = %v", result["serverInfo"])
	}
}

func TestInitializedNotificationGetsNoReply(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n"
	replies := runServer(t, input)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1 (notifications are not answered)", len(replies))
	}
}

func TestToolsListExposesCatalogue(t *testing.T) {
	replies := runServer(t, `{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`+"\n")
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	result, _ := replies[0]["result"].(map[string]interface{})
	list, _ := result["tools"].([]interface{})
	if len(list) != len(tools.All()) {
		t.Fatalf("catalogue has %d tools, want %d", len(list), len(tools.All()))
	}
	first, _ := list[0].(map[string]interface{})
	if first["name"] == "" || first["description"] == "" {
		t.Fatalf("tool entry incomplete: %v", first)
	}
	schema, _ := first["inputSchema"].(map[string]interface{})
	if schema["type"] != "object" {
		t.Fatalf("inputSchema type = %v", schema["type"])
	}
}

func TestToolsCallReportsFailureAsToolResult(t *testing.T) {
	// No token configured: the handler fails, but it is a tool-level
	// failure, not a JSON-RPC error.
	input := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"list_requests","arguments":{}}}` + "\n"
	replies := runServer(t, input)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	if replies[0]["error"] != nil {
		t.Fatalf("expected a tool result, got rpc error %v", replies[0]["error"])
	}
	result, _ := replies[0]["result"].(map[string]interface{})
	if result["isError"] != true {
		t.Fatalf("isError = %v, want true", result["isError"])
	}
	content, _ := result["content"].([]interface{})
	if len(content) != 1 {
		t.Fatalf("content = %v", result["content"])
	}
	text, _ := content[0].(map[string]interface{})
	if !strings.Contains(text["text"].(string), "no auth token") {
		t.Fatalf("tool result text %q does not explain the failure", text["text"])
	}
}

func TestToolsCallUnknownToolIsRPCError(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"nonexistent_tool","arguments":{}}}` + "\n"
	replies := runServer(t, input)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	rpcErr, _ := replies[0]["error"].(map[string]interface{})
	if rpcErr == nil {
		t.Fatalf("expected rpc error, got %v", replies[0])
	}
	if !strings.Contains(rpcErr["message"].(string), "Handler not found for tool: nonexistent_tool") {
		t.Fatalf("error message = %v", rpcErr["message"])
	}
}

func TestUnknownMethod(t *testing.T) {
	replies := runServer(t, `{"jsonrpc":"2.0","id":5,"method":"resources/list","params":{}}`+"\n")
	rpcErr, _ := replies[0]["error"].(map[string]interface{})
	if rpcErr == nil {
		t.Fatalf("expected rpc error, got %v", replies[0])
	}
	if code, _ := rpcErr["code"].(float64); int(code) != codeMethodNotFound {
		t.Fatalf("code = %v, want %d", rpcErr["code"], codeMethodNotFound)
	}
}

func TestContentLengthFraming(t *testing.T) {
	payload := `{"jsonrpc":"2.0","id":6,"method":"ping","params":{}}`
	framed := "Content-Length: " + strconv.Itoa(len(payload)) + "\r\n\r\n" + payload

	reader := bufio.NewReader(strings.NewReader(framed))
	msg, err := readMessage(reader, maxMessageSize)
	if err != nil {
		t.Fatalf("readMessage failed: %v", err)
	}
	if string(msg) != payload {
		t.Fatalf("message = %q, want %q", msg, payload)
	}

	if _, err := readMessage(reader, maxMessageSize); err != io.EOF {
		t.Fatalf("expected EOF after the framed message, got %v", err)
	}
}
