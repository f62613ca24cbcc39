package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExecuteSuccess(t *testing.T) {
	var gotAuth, gotAccept string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if r.URL.Path != "/graphql" {
			t.Errorf("expected POST to /graphql, got %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"requests":{"count":3}}}`))
	}))
	defer server.Close()

	client := NewClient(NewConfigStore(server.URL, "test-token"))

	result := client.Execute(context.Background(), Request{
		Query:         "query requests { requests { count } }",
		OperationName: "requests",
		Variables:     map[string]interface{}{"limit": 10},
	})

	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if !strings.Contains(gotAccept, "application/graphql-response+json") {
		t.Errorf("missing GraphQL accept type: %q", gotAccept)
	}
	if gotBody["operationName"] != "requests" {
		t.Errorf("operationName not sent: %v", gotBody)
	}

	var data struct {
		Requests struct {
			Count int `json:"count"`
		} `json:"requests"`
	}
	if err := result.Decode(&data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if data.Requests.Count != 3 {
		t.Errorf("expected count 3, got %d", data.Requests.Count)
	}
}

func TestExecuteNoTokenShortCircuits(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(NewConfigStore(server.URL, ""))

	result := client.Execute(context.Background(), Request{Query: "query { viewer { id } }"})

	if result.Success {
		t.Fatal("expected failure without a token")
	}
	if !strings.Contains(result.Error, "no auth token") {
		t.Errorf("expected auth-specific error, got %q", result.Error)
	}
	if called {
		t.Error("no network request should be issued without a token")
	}
}

func TestExecuteHTTPErrorEmbedsStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("access denied"))
	}))
	defer server.Close()

	client := NewClient(NewConfigStore(server.URL, "token"))

	result := client.Execute(context.Background(), Request{Query: "query { viewer { id } }"})

	if result.Success {
		t.Fatal("expected failure for HTTP 403")
	}
	if !strings.Contains(result.Error, "403") {
		t.Errorf("expected status in error, got %q", result.Error)
	}
	if !strings.Contains(result.Error, "access denied") {
		t.Errorf("expected body in error, got %q", result.Error)
	}
}

func TestExecuteJoinsGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors":[{"message":"A"},{"message":"B"}]}`))
	}))
	defer server.Close()

	client := NewClient(NewConfigStore(server.URL, "token"))

	result := client.Execute(context.Background(), Request{Query: "mutation { noop }"})

	if result.Success {
		t.Fatal("expected failure for errors[] response")
	}
	if result.Error != "GraphQL errors: A; B" {
		t.Errorf("expected joined message, got %q", result.Error)
	}
	if len(result.Raw) == 0 {
		t.Error("raw response should be attached for structured callers")
	}
}

func TestExecuteEndpointOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	// Stored base URL points nowhere; the override must win.
	client := NewClient(NewConfigStore("http://127.0.0.1:1", "token"))

	result := client.Execute(context.Background(), Request{
		Query:    "query { viewer { id } }",
		Endpoint: server.URL,
	})

	if !result.Success {
		t.Fatalf("expected override endpoint to be used, got: %s", result.Error)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"http://127.0.0.1:8080/", "http://127.0.0.1:8080"},
		{"http://127.0.0.1:8080/graphql", "http://127.0.0.1:8080"},
		{"http://127.0.0.1:8080/graphql/", "http://127.0.0.1:8080"},
	}

	for _, tt := range tests {
		if got := NormalizeEndpoint(tt.in); got != tt.want {
			t.Errorf("NormalizeEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigStoreReplacesWholesale(t *testing.T) {
	store := NewConfigStore("http://old:1234", "old-token")
	if err := store.SetAuth(context.Background(), "new-token", "http://new:5678/graphql"); err != nil {
		t.Fatalf("SetAuth failed: %v", err)
	}

	creds, err := store.Credentials(context.Background())
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if creds.Token != "new-token" {
		t.Errorf("expected new token, got %q", creds.Token)
	}
	if creds.BaseURL != "http://new:5678" {
		t.Errorf("expected trimmed base URL, got %q", creds.BaseURL)
	}
}
