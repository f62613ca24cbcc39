// Auth and endpoint state consumed by every outbound GraphQL call.
//
// Two front doors, two storage points: the bridge process keeps credentials
// in a ConfigStore set through its reserved configuration tool, while the
// chat front door persists them (storage.SqliteStore implements
// CredentialSource). Both trim a trailing /graphql so the stored value is
// always the proxy's base URL.

package graphql

import (
	"context"
	"strings"
	"sync"
)

// DefaultEndpoint is the proxy API base URL used when nothing was configured.
const DefaultEndpoint = "http://127.0.0.1:8080"

// Credentials is the base URL + bearer token pair for the proxy API.
type Credentials struct {
	BaseURL string
	Token   string
}

// CredentialSource resolves the current credentials.
// Implementations may read process state or a database.
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// NormalizeEndpoint strips a trailing /graphql (and trailing slashes) from
// an endpoint so callers can paste either the API base or the full GraphQL URL.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	endpoint = strings.TrimSuffix(endpoint, "/graphql")
	return strings.TrimSuffix(endpoint, "/")
}

// ConfigStore is an in-process mutable CredentialSource for the bridge,
// which has no database. Later writes fully replace earlier ones.
type ConfigStore struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewConfigStore creates a store seeded with the given bootstrap values
// (typically from the environment; either may be empty).
func NewConfigStore(baseURL, token string) *ConfigStore {
	return &ConfigStore{
		creds: Credentials{
			BaseURL: NormalizeEndpoint(baseURL),
			Token:   token,
		},
	}
}

// SetAuth replaces the stored credentials wholesale.
// The context and error are part of the shared credential-writer contract;
// an in-process write cannot fail.
func (s *ConfigStore) SetAuth(_ context.Context, token, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = Credentials{
		BaseURL: NormalizeEndpoint(endpoint),
		Token:   token,
	}
	return nil
}

// Credentials returns the current credentials.
func (s *ConfigStore) Credentials(_ context.Context) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

var _ CredentialSource = (*ConfigStore)(nil)
