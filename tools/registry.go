// Tool registry: binds the closed ToolID set to handler implementations
// and dispatches wire-name invocations.
//
// Information Hiding:
// - Handler binding and lookup hidden
// - Backend dependencies (GraphQL client, HTTP client) hidden from callers

package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/avennor/trawl/graphql"
	"github.com/avennor/trawl/llm"
)

// CredentialWriter persists new proxy credentials. The bridge writes to an
// in-process store, the chat front door to the database.
type CredentialWriter interface {
	SetAuth(ctx context.Context, token, endpoint string) error
}

// Backend holds the shared dependencies handlers execute against.
type Backend struct {
	gql  *graphql.Client
	auth CredentialWriter // nil when the host does not expose the configure tool
	http *resty.Client
}

// NewBackend creates a handler backend. auth may be nil; the configure
// tool then reports itself unavailable instead of panicking.
func NewBackend(gql *graphql.Client, auth CredentialWriter) *Backend {
	return &Backend{
		gql:  gql,
		auth: auth,
		http: resty.New().SetTimeout(30 * time.Second),
	}
}

// Registry maps wire names to bound handlers for the whole catalogue.
type Registry struct {
	handlers map[string]Handler
	defs     []llm.ToolDefinition
}

// NewRegistry builds a registry binding every catalogue tool to its
// handler. Construction panics if a ToolID has no binding: an unbound
// tool is a build error, not a runtime condition.
func NewRegistry(backend *Backend) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler, toolCount),
	}
	for _, id := range All() {
		r.handlers[id.WireName()] = bind(id, backend)
		r.defs = append(r.defs, id.Definition())
	}
	return r
}

// bind returns the handler implementation for a tool id.
func bind(id ToolID, b *Backend) Handler {
	switch id {
	case ToolConfigure:
		return b.configure
	case ToolListRequests:
		return b.listRequests
	case ToolGetRequest:
		return b.getRequest
	case ToolGetResponse:
		return b.getResponse
	case ToolCreateReplaySession:
		return b.createReplaySession
	case ToolListReplaySessions:
		return b.listReplaySessions
	case ToolRenameReplaySession:
		return b.renameReplaySession
	case ToolSendReplayRequest:
		return b.sendReplayRequest
	case ToolCreateTamperRule:
		return b.createTamperRule
	case ToolListTamperRules:
		return b.listTamperRules
	case ToolUpdateTamperRule:
		return b.updateTamperRule
	case ToolCreateFinding:
		return b.createFinding
	case ToolListFindings:
		return b.listFindings
	case ToolSendRequest:
		return b.sendRequest
	default:
		panic(fmt.Sprintf("tools: no handler bound for tool id %d", int(id)))
	}
}

// Dispatch executes the named tool. An unknown name returns
// *HandlerNotFoundError; the registry performs no I/O itself.
func (r *Registry) Dispatch(ctx context.Context, name string, input map[string]interface{}) (Result, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return Result{}, &HandlerNotFoundError{Tool: name}
	}
	return handler(ctx, input)
}

// Definitions returns the catalogue handed to the LLM.
func (r *Registry) Definitions() []llm.ToolDefinition {
	return r.defs
}

// Names returns the wire names of all registered tools, in catalogue order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		names = append(names, d.Name)
	}
	return names
}
