// Finding tools: record and list security findings.

package tools

import (
	"context"
	"fmt"
)

type createFindingArgs struct {
	Title       string `json:"title" jsonschema:"description=Short finding title"`
	Description string `json:"description,omitempty" jsonschema:"description=Longer finding description"`
	RequestID   string `json:"request_id,omitempty" jsonschema:"description=Captured request id the finding refers to"`
	Reporter    string `json:"reporter,omitempty" jsonschema:"description=Who reported the finding (defaults to Assistant)"`
}

type listFindingsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum number of findings to return (default 50)"`
}

const createFindingMutation = `
	mutation createFinding($input: CreateFindingInput!) {
		createFinding(input: $input) {
			finding {
				id
				title
				reporter
			}
		}
	}`

const listFindingsQuery = `
	query findings($limit: Int) {
		findings(first: $limit) {
			nodes {
				id
				title
				description
				reporter
				request {
					id
					method
					host
					path
				}
			}
		}
	}`

func (b *Backend) createFinding(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args createFindingArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid create_finding input", err.Error()), nil
	}
	if args.Title == "" {
		return Fail("Missing finding title", "title is required"), nil
	}
	if args.Reporter == "" {
		args.Reporter = "Assistant"
	}

	findingInput := map[string]interface{}{
		"title":    args.Title,
		"reporter": args.Reporter,
	}
	if args.Description != "" {
		findingInput["description"] = args.Description
	}
	if args.RequestID != "" {
		findingInput["requestId"] = args.RequestID
	}

	data, failed := b.runOperation(ctx, "createFinding", createFindingMutation,
		map[string]interface{}{"input": findingInput}, "Failed to create finding")
	if failed != nil {
		return *failed, nil
	}

	return Succeed(fmt.Sprintf("Created finding %q", args.Title), data), nil
}

func (b *Backend) listFindings(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args listFindingsArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid list_findings input", err.Error()), nil
	}
	if args.Limit <= 0 {
		args.Limit = 50
	}

	data, failed := b.runOperation(ctx, "findings", listFindingsQuery,
		map[string]interface{}{"limit": args.Limit}, "Failed to list findings")
	if failed != nil {
		return *failed, nil
	}

	count := len(nodesOf(data, "findings"))
	return Succeed(fmt.Sprintf("Found %d findings", count), data), nil
}
