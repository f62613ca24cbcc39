// Package graphql is the adapter between tool handlers and the proxy's
// GraphQL API.
//
// Every call is a single best-effort POST whose outcome is normalized into a
// Result: transport failures, non-2xx statuses and GraphQL-level errors []
// all come back as Success=false with a descriptive Error string, never as a
// Go error. Retry policy belongs to the caller, and no caller retries.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// acceptTypes lists the standard GraphQL response media types, most
// specific first.
const acceptTypes = "application/graphql-response+json, application/graphql+json, application/json"

// Request is one GraphQL operation to execute.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]interface{}
	// Endpoint overrides the stored base URL when non-empty.
	Endpoint string
}

// Result is the uniform outcome contract for a GraphQL call.
// Raw carries the unparsed response body so callers that want structured
// detail (e.g. partial data alongside errors) still have it.
type Result struct {
	Success bool
	Data    json.RawMessage
	Error   string
	Raw     []byte
}

func failure(format string, args ...interface{}) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// graphqlResponse is the wire shape of a GraphQL reply.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client executes GraphQL operations against the proxy API.
type Client struct {
	http   *resty.Client
	source CredentialSource
}

// NewClient creates a client resolving credentials from the given source.
func NewClient(source CredentialSource) *Client {
	return &Client{
		http:   resty.New().SetTimeout(30 * time.Second),
		source: source,
	}
}

// Execute runs one GraphQL operation and normalizes the reply.
//
// Resolution order for the endpoint: explicit override, stored base URL,
// DefaultEndpoint. A missing auth token short-circuits before any network
// I/O.
func (c *Client) Execute(ctx context.Context, req Request) Result {
	creds, err := c.source.Credentials(ctx)
	if err != nil {
		return failure("failed to resolve credentials: %v", err)
	}

	if creds.Token == "" {
		return failure("no auth token configured; set an API token before calling the proxy")
	}

	base := req.Endpoint
	if base == "" {
		base = creds.BaseURL
	}
	if base == "" {
		base = DefaultEndpoint
	}
	url := NormalizeEndpoint(base) + "/graphql"

	body := map[string]interface{}{
		"query": req.Query,
	}
	if req.OperationName != "" {
		body["operationName"] = req.OperationName
	}
	if req.Variables != nil {
		body["variables"] = req.Variables
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", acceptTypes).
		SetHeader("Authorization", "Bearer "+creds.Token).
		SetBody(body).
		Post(url)
	if err != nil {
		return failure("GraphQL request failed: %v", err)
	}

	raw := resp.Body()

	if resp.IsError() {
		// Embed status and body verbatim for diagnosability. No retry.
		r := failure("GraphQL request returned HTTP %d: %s", resp.StatusCode(), string(raw))
		r.Raw = raw
		return r
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		r := failure("failed to parse GraphQL response: %v", err)
		r.Raw = raw
		return r
	}

	if len(parsed.Errors) > 0 {
		msgs := make([]string, len(parsed.Errors))
		for i, e := range parsed.Errors {
			msgs[i] = e.Message
		}
		r := failure("GraphQL errors: %s", strings.Join(msgs, "; "))
		r.Raw = raw
		return r
	}

	return Result{
		Success: true,
		Data:    parsed.Data,
		Raw:     raw,
	}
}

// Decode unmarshals the result data into out. Helper for handlers.
func (r Result) Decode(out interface{}) error {
	if !r.Success {
		return fmt.Errorf("cannot decode failed result: %s", r.Error)
	}
	return json.Unmarshal(r.Data, out)
}
