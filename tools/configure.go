// The reserved configuration tool.
//
// The bridge process has no database: credentials arrive through this
// tool, are stored in-process, and are validated with one discovery call
// before success is reported.

package tools

import (
	"context"
	"fmt"

	"github.com/avennor/trawl/graphql"
)

type configureArgs struct {
	AuthToken   string `json:"auth_token" jsonschema:"description=API bearer token for the proxy instance"`
	APIEndpoint string `json:"api_endpoint" jsonschema:"description=Proxy API endpoint URL (with or without the /graphql suffix)"`
}

const viewerQuery = `
	query viewer {
		viewer {
			id
			username
		}
	}`

func (b *Backend) configure(ctx context.Context, input map[string]interface{}) (Result, error) {
	if b.auth == nil {
		return Fail("Connection settings are managed by the host application and cannot be changed here",
			"configure tool not available in this front door"), nil
	}

	var args configureArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid configure input", err.Error()), nil
	}
	if args.AuthToken == "" {
		return Fail("Missing auth_token", "auth_token is required"), nil
	}
	if args.APIEndpoint == "" {
		return Fail("Missing api_endpoint", "api_endpoint is required"), nil
	}

	if err := b.auth.SetAuth(ctx, args.AuthToken, args.APIEndpoint); err != nil {
		return Fail("Failed to store credentials", err.Error()), nil
	}

	// Validate the new credentials before confirming success.
	data, failed := b.runOperation(ctx, "viewer", viewerQuery, nil, "Credential validation failed")
	if failed != nil {
		return *failed, nil
	}

	endpoint := graphql.NormalizeEndpoint(args.APIEndpoint)
	return Succeed(
		fmt.Sprintf("Connected to proxy API at %s", endpoint),
		map[string]interface{}{"endpoint": endpoint, "viewer": data["viewer"]},
	), nil
}
