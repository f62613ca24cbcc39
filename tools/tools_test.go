package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avennor/trawl/graphql"
)

func TestWireNamesUnique(t *testing.T) {
	seen := make(map[string]ToolID)
	for _, id := range All() {
		name := id.WireName()
		if name == "" {
			t.Fatalf("tool id %d has empty wire name", int(id))
		}
		if prev, dup := seen[name]; dup {
			t.Fatalf("wire name %q used by both tool %d and tool %d", name, int(prev), int(id))
		}
		seen[name] = id
	}
	if len(seen) != int(toolCount) {
		t.Fatalf("expected %d wire names, got %d", int(toolCount), len(seen))
	}
}

func TestByWireNameRoundTrip(t *testing.T) {
	for _, id := range All() {
		got, ok := byWireName(id.WireName())
		if !ok {
			t.Fatalf("byWireName(%q) not found", id.WireName())
		}
		if got != id {
			t.Fatalf("byWireName(%q) = %d, want %d", id.WireName(), int(got), int(id))
		}
	}
	if _, ok := byWireName("nonexistent_tool"); ok {
		t.Fatal("byWireName accepted an unknown name")
	}
}

func TestDefinitionsCoverCatalogue(t *testing.T) {
	defs := Definitions()
	if len(defs) != int(toolCount) {
		t.Fatalf("expected %d definitions, got %d", int(toolCount), len(defs))
	}
	for _, def := range defs {
		if def.Description == "" {
			t.Errorf("tool %q has no description", def.Name)
		}
		if def.Parameters["type"] != "object" {
			t.Errorf("tool %q schema type = %v, want object", def.Name, def.Parameters["type"])
		}
		if _, ok := def.Parameters["properties"]; !ok {
			t.Errorf("tool %q schema has no properties", def.Name)
		}
	}
}

func TestSchemaRequiredIsStringSlice(t *testing.T) {
	schema := schemaFor(&configureArgs{})
	required, ok := schema["required"].([]string)
	if !ok {
		t.Fatalf("required is %T, want []string", schema["required"])
	}
	want := map[string]bool{"auth_token": true, "api_endpoint": true}
	if len(required) != len(want) {
		t.Fatalf("required = %v, want auth_token and api_endpoint", required)
	}
	for _, field := range required {
		if !want[field] {
			t.Fatalf("unexpected required field %q", field)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	store := graphql.NewConfigStore("", "")
	reg := NewRegistry(NewBackend(graphql.NewClient(store), store))

	_, err := reg.Dispatch(context.Background(), "nonexistent_tool", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	var notFound *HandlerNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error type = %T, want *HandlerNotFoundError", err)
	}
	if err.Error() != "Handler not found for tool: nonexistent_tool" {
		t.Fatalf("unexpected error message: %q", err.Error())
	}
}

func TestConfigureUnavailableWithoutWriter(t *testing.T) {
	store := graphql.NewConfigStore("", "")
	backend := NewBackend(graphql.NewClient(store), nil)

	res, err := backend.configure(context.Background(), map[string]interface{}{
		"auth_token":   "tok",
		"api_endpoint": "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatal("configure succeeded without a credential writer")
	}
	if res.Summary == "" {
		t.Fatal("failure result has no summary")
	}
}

// graphqlStub serves canned GraphQL responses keyed by operation name.
func graphqlStub(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OperationName string `json:"operationName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("malformed request body: %v", err)
		}
		reply, ok := responses[body.OperationName]
		if !ok {
			t.Errorf("unexpected operation %q", body.OperationName)
			reply = `{"errors":[{"message":"unexpected operation"}]}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
}

func TestConfigureStoresAndValidates(t *testing.T) {
	server := graphqlStub(t, map[string]string{
		"viewer": `{"data":{"viewer":{"id":"u1","username":"tester"}}}`,
	})
	defer server.Close()

	store := graphql.NewConfigStore("", "")
	reg := NewRegistry(NewBackend(graphql.NewClient(store), store))

	res, err := reg.Dispatch(context.Background(), "configure", map[string]interface{}{
		"auth_token":   "secret",
		"api_endpoint": server.URL + "/graphql",
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("configure failed: %s", res.Error)
	}
	if want := "Connected to proxy API at " + server.URL; res.Summary != want {
		t.Fatalf("summary = %q, want %q", res.Summary, want)
	}

	creds, err := store.Credentials(context.Background())
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.Token != "secret" {
		t.Fatalf("stored token = %q, want secret", creds.Token)
	}
	if creds.BaseURL != server.URL {
		t.Fatalf("stored base URL = %q, want %q", creds.BaseURL, server.URL)
	}
}

func TestListRequestsSummary(t *testing.T) {
	server := graphqlStub(t, map[string]string{
		"requestsByQuery": `{"data":{"requestsByQuery":{"nodes":[
			{"id":"1","method":"GET","host":"a","path":"/"},
			{"id":"2","method":"POST","host":"b","path":"/login"}
		]}}}`,
	})
	defer server.Close()

	store := graphql.NewConfigStore(server.URL, "tok")
	reg := NewRegistry(NewBackend(graphql.NewClient(store), store))

	res, err := reg.Dispatch(context.Background(), "list_requests", map[string]interface{}{
		"query": `resp.code.eq:200`,
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("list_requests failed: %s", res.Error)
	}
	if want := `Found 2 requests matching "resp.code.eq:200"`; res.Summary != want {
		t.Fatalf("summary = %q, want %q", res.Summary, want)
	}
}

func TestGraphQLErrorBecomesFailureResult(t *testing.T) {
	server := graphqlStub(t, map[string]string{
		"request": `{"errors":[{"message":"request not found"}]}`,
	})
	defer server.Close()

	store := graphql.NewConfigStore(server.URL, "tok")
	reg := NewRegistry(NewBackend(graphql.NewClient(store), store))

	res, err := reg.Dispatch(context.Background(), "get_request", map[string]interface{}{
		"id": "missing",
	})
	if err != nil {
		t.Fatalf("API failure must be a result, not an error: %v", err)
	}
	if res.Success {
		t.Fatal("expected a failed result")
	}
	if !strings.Contains(res.Error, "request not found") {
		t.Fatalf("error %q does not carry the upstream message", res.Error)
	}
	if !strings.HasPrefix(res.Summary, "Failed to fetch request") {
		t.Fatalf("unexpected summary %q", res.Summary)
	}
}

func TestCreateTamperRuleValidatesSection(t *testing.T) {
	store := graphql.NewConfigStore("", "")
	backend := NewBackend(graphql.NewClient(store), store)

	res, err := backend.createTamperRule(context.Background(), map[string]interface{}{
		"name":       "strip header",
		"section":    "Everything",
		"match_term": "X-Debug: .*",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatal("invalid section accepted")
	}
	if !strings.Contains(res.Summary, "Everything") {
		t.Fatalf("summary %q does not name the bad section", res.Summary)
	}
}

func TestSendRequestRejectsRelativeURL(t *testing.T) {
	store := graphql.NewConfigStore("", "")
	backend := NewBackend(graphql.NewClient(store), store)

	res, err := backend.sendRequest(context.Background(), map[string]interface{}{
		"url": "/relative/path",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatal("relative URL accepted")
	}
}

func TestSendRequestRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("X-Test = %q, want yes", got)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("done"))
	}))
	defer server.Close()

	store := graphql.NewConfigStore("", "")
	backend := NewBackend(graphql.NewClient(store), store)

	res, err := backend.sendRequest(context.Background(), map[string]interface{}{
		"url":     server.URL,
		"method":  "put",
		"headers": map[string]interface{}{"X-Test": "yes"},
		"body":    "payload",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("send_request failed: %s", res.Error)
	}
	if res.Data["status_code"] != 201 {
		t.Fatalf("status_code = %v, want 201", res.Data["status_code"])
	}
	if res.Data["body"] != "done" {
		t.Fatalf("body = %v, want done", res.Data["body"])
	}
}
