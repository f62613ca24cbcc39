// Shared GraphQL plumbing for handlers.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avennor/trawl/graphql"
)

func graphqlRequest(opName, query string, vars map[string]interface{}) graphql.Request {
	return graphql.Request{
		Query:         query,
		OperationName: opName,
		Variables:     vars,
	}
}

// runOperation executes a GraphQL operation and normalizes an adapter
// failure into a tool failure result. failContext prefixes the failure
// summary ("Failed to create tamper rule", ...).
func (b *Backend) runOperation(ctx context.Context, opName, query string, vars map[string]interface{}, failContext string) (map[string]interface{}, *Result) {
	res := b.gql.Execute(ctx, graphqlRequest(opName, query, vars))
	if !res.Success {
		f := Fail(fmt.Sprintf("%s: %s", failContext, res.Error), res.Error)
		return nil, &f
	}

	var data map[string]interface{}
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &data); err != nil {
			f := Fail(fmt.Sprintf("%s: malformed response data", failContext), err.Error())
			return nil, &f
		}
	}
	return data, nil
}
