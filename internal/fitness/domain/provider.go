package domain

import (
	"context"
	"sort"

	"mindbody-backend/pkg/recordstore"
)

// Supported providers
const (
	ProviderStrava       = "strava"
	ProviderMyFitnessPal = "myfitnesspal"
	ProviderGPX          = "gpx"
	ProviderAppleHealth  = "apple_health"
)

// ProviderKind is the capability a provider exposes.
type ProviderKind string

const (
	KindOAuth      ProviderKind = "oauth"
	KindCredential ProviderKind = "credential"
	KindFile       ProviderKind = "file"
)

// TokenUpdateFunc persists a refreshed OAuth token blob.
type TokenUpdateFunc = func(blob map[string]any) error

// OAuthCapability is implemented by providers that authorize with a redirect and a code.
type OAuthCapability interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (map[string]any, error)
	FetchProfile(ctx context.Context, blob map[string]any, onRefresh TokenUpdateFunc) (recordstore.Record, error)
	FetchActivities(ctx context.Context, blob map[string]any, pageSize int, onRefresh TokenUpdateFunc) ([]recordstore.Record, error)
}

// CredentialCapability is implemented by providers that log in with a username and password.
type CredentialCapability interface {
	Connect(ctx context.Context, username, password string) (recordstore.Record, error)
}

// FileImport is what a file provider extracts from one upload.
type FileImport struct {
	Dataset     string
	SourceLabel string
	Records     []recordstore.Record
	// Columns follow the provider's own columns in the stored table.
	Columns     []string
}

// FileCapability is implemented by providers that import uploaded files. A file that
// fails to parse yields an error and no records.
type FileCapability interface {
	ParseFile(filename string, data []byte) (*FileImport, error)
}

// ProviderClient is a tagged variant over the supported providers: exactly one of
// OAuth, Credential or File is set, matching Kind.
type ProviderClient struct {
	Name string
	Kind ProviderKind

	OAuth      OAuthCapability
	Credential CredentialCapability
	File       FileCapability

	// IdentityField names the field the client emits to identify a record.
	IdentityField string
	// ProfileKey names the profile field used for upserts. OAuth only.
	ProfileKey string
	// Columns is the preferred column order for records from this client.
	Columns        []string
	ProfileColumns []string

	Available         bool
	UnavailableReason string
}

// Registry holds the closed set of configured provider clients.
type Registry struct {
	clients map[string]ProviderClient
}

func NewRegistry(clients ...ProviderClient) *Registry {
	r := &Registry{clients: make(map[string]ProviderClient, len(clients))}
	for _, c := range clients {
		r.clients[c.Name] = c
	}
	return r
}

func (r *Registry) Lookup(name string) (ProviderClient, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// All returns every client sorted by name.
func (r *Registry) All() []ProviderClient {
	out := make([]ProviderClient, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
