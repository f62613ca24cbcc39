// Persisted proxy credentials.
//
// The chat front door stores the proxy base URL and auth token in the
// api_keys table, making SqliteStore a graphql.CredentialSource.

package storage

import (
	"context"

	"github.com/avennor/trawl/graphql"
)

const (
	proxyBaseURLKey = "proxy_base_url"
	proxyTokenKey   = "proxy_auth_token"
)

// Credentials resolves the persisted proxy credentials.
func (s *SqliteStore) Credentials(ctx context.Context) (graphql.Credentials, error) {
	baseURL, err := s.Key(ctx, proxyBaseURLKey)
	if err != nil {
		return graphql.Credentials{}, err
	}
	token, err := s.Key(ctx, proxyTokenKey)
	if err != nil {
		return graphql.Credentials{}, err
	}

	return graphql.Credentials{BaseURL: baseURL, Token: token}, nil
}

// SetAuth replaces the persisted proxy credentials wholesale.
func (s *SqliteStore) SetAuth(ctx context.Context, token, endpoint string) error {
	if err := s.SetKey(ctx, proxyBaseURLKey, graphql.NormalizeEndpoint(endpoint)); err != nil {
		return err
	}
	return s.SetKey(ctx, proxyTokenKey, token)
}

var _ graphql.CredentialSource = (*SqliteStore)(nil)
