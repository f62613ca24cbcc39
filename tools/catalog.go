// The advisory tool catalogue handed to the LLM on every completion
// request that may use tools.

package tools

import (
	"fmt"

	"github.com/avennor/trawl/llm"
)

// Definition returns the tool's LLM-facing descriptor: wire name,
// description and input schema.
func (id ToolID) Definition() llm.ToolDefinition {
	def := llm.ToolDefinition{Name: id.WireName()}

	switch id {
	case ToolConfigure:
		def.Description = "Set the proxy API token and endpoint. Must be called before any other tool. Validates the credentials with a discovery call."
		def.Parameters = schemaFor(&configureArgs{})
	case ToolListRequests:
		def.Description = "List captured HTTP requests, optionally filtered by an HTTPQL query. Returns request ids, methods, hosts, paths and status codes."
		def.Parameters = schemaFor(&listRequestsArgs{})
	case ToolGetRequest:
		def.Description = "Get the full raw request (method, URL, headers, body) for a captured request id."
		def.Parameters = schemaFor(&getRequestArgs{})
	case ToolGetResponse:
		def.Description = "Get the full raw response (status, headers, body) for a captured request id."
		def.Parameters = schemaFor(&getResponseArgs{})
	case ToolCreateReplaySession:
		def.Description = "Create a replay session seeded from a captured request so it can be modified and re-sent."
		def.Parameters = schemaFor(&createReplaySessionArgs{})
	case ToolListReplaySessions:
		def.Description = "List existing replay sessions with their ids and names."
		def.Parameters = schemaFor(&listReplaySessionsArgs{})
	case ToolRenameReplaySession:
		def.Description = "Rename a replay session."
		def.Parameters = schemaFor(&renameReplaySessionArgs{})
	case ToolSendReplayRequest:
		def.Description = "Send a raw HTTP request within a replay session and return the response."
		def.Parameters = schemaFor(&sendReplayRequestArgs{})
	case ToolCreateTamperRule:
		def.Description = "Create a match/replace rule that rewrites a section of proxied traffic."
		def.Parameters = schemaFor(&createTamperRuleArgs{})
	case ToolListTamperRules:
		def.Description = "List existing match/replace rules."
		def.Parameters = schemaFor(&listTamperRulesArgs{})
	case ToolUpdateTamperRule:
		def.Description = "Update fields of an existing match/replace rule."
		def.Parameters = schemaFor(&updateTamperRuleArgs{})
	case ToolCreateFinding:
		def.Description = "Record a security finding, optionally linked to a captured request."
		def.Parameters = schemaFor(&createFindingArgs{})
	case ToolListFindings:
		def.Description = "List recorded findings."
		def.Parameters = schemaFor(&listFindingsArgs{})
	case ToolSendRequest:
		def.Description = "Send an ad-hoc HTTP request (outside the proxy) and return status, headers and body."
		def.Parameters = schemaFor(&sendRequestArgs{})
	default:
		panic(fmt.Sprintf("tools: no definition for tool id %d", int(id)))
	}

	return def
}

// Definitions returns the full catalogue in stable order.
func Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, toolCount)
	for _, id := range All() {
		defs = append(defs, id.Definition())
	}
	return defs
}
