// Captured-traffic tools: HTTPQL search and request/response retrieval.
//
// The GraphQL operation text is opaque template data; this system does
// not define the proxy's schema.

package tools

import (
	"context"
	"fmt"
)

type listRequestsArgs struct {
	Query string `json:"query,omitempty" jsonschema:"description=HTTPQL filter query; empty matches everything"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of requests to return (default 50)"`
}

type getRequestArgs struct {
	ID string `json:"id" jsonschema:"description=Captured request id"`
}

type getResponseArgs struct {
	RequestID string `json:"request_id" jsonschema:"description=Captured request id whose response to fetch"`
}

const listRequestsQuery = `
	query requestsByQuery($query: HTTPQL, $limit: Int) {
		requestsByQuery(query: $query, first: $limit) {
			nodes {
				id
				method
				host
				path
				query
				response {
					statusCode
					length
				}
			}
			count {
				value
			}
		}
	}`

const getRequestQuery = `
	query request($id: ID!) {
		request(id: $id) {
			id
			method
			host
			port
			isTls
			path
			query
			raw
		}
	}`

const getResponseQuery = `
	query response($id: ID!) {
		request(id: $id) {
			id
			response {
				id
				statusCode
				length
				raw
			}
		}
	}`

func (b *Backend) listRequests(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args listRequestsArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid list_requests input", err.Error()), nil
	}
	if args.Limit <= 0 {
		args.Limit = 50
	}

	vars := map[string]interface{}{"limit": args.Limit}
	if args.Query != "" {
		vars["query"] = args.Query
	}

	data, failed := b.runOperation(ctx, "requestsByQuery", listRequestsQuery, vars, "Failed to list requests")
	if failed != nil {
		return *failed, nil
	}

	count := len(nodesOf(data, "requestsByQuery"))
	summary := fmt.Sprintf("Found %d requests", count)
	if args.Query != "" {
		summary = fmt.Sprintf("Found %d requests matching %q", count, args.Query)
	}
	return Succeed(summary, data), nil
}

func (b *Backend) getRequest(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args getRequestArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid get_request input", err.Error()), nil
	}
	if args.ID == "" {
		return Fail("Missing request id", "id is required"), nil
	}

	data, failed := b.runOperation(ctx, "request", getRequestQuery,
		map[string]interface{}{"id": args.ID}, "Failed to fetch request")
	if failed != nil {
		return *failed, nil
	}

	if data["request"] == nil {
		return Fail(fmt.Sprintf("No request with id %s", args.ID), "request not found"), nil
	}
	return Succeed(fmt.Sprintf("Fetched request %s", args.ID), data), nil
}

func (b *Backend) getResponse(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args getResponseArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid get_response input", err.Error()), nil
	}
	if args.RequestID == "" {
		return Fail("Missing request id", "request_id is required"), nil
	}

	data, failed := b.runOperation(ctx, "response", getResponseQuery,
		map[string]interface{}{"id": args.RequestID}, "Failed to fetch response")
	if failed != nil {
		return *failed, nil
	}

	request, _ := data["request"].(map[string]interface{})
	if request == nil || request["response"] == nil {
		return Fail(fmt.Sprintf("No response recorded for request %s", args.RequestID), "response not found"), nil
	}
	return Succeed(fmt.Sprintf("Fetched response for request %s", args.RequestID), data), nil
}

// nodesOf digs the nodes list out of a connection-shaped field.
func nodesOf(data map[string]interface{}, field string) []interface{} {
	conn, _ := data[field].(map[string]interface{})
	if conn == nil {
		return nil
	}
	nodes, _ := conn["nodes"].([]interface{})
	return nodes
}
