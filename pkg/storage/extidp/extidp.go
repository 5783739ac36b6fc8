// Package extidp adapts a read-only external identity provider to the
// storage backend port. Identity and group reads map onto the provider's
// user and role lookup endpoints, authenticated by a client-credentials
// token source that refreshes itself; every mutating port operation fails
// with storage.ErrReadOnly.
//
// Callers must treat this backend as authentication-capable but not
// provisioning-capable: password, API-key, and token issuance against it is
// unsupported.
package extidp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/platinummonkey/warden/pkg/directory"
	"github.com/platinummonkey/warden/pkg/storage"
)

// Backend is the read-only external-provider adapter.
type Backend struct {
	httpClient *http.Client
	userURL    string
	groupURL   string
	keys       storage.KeySpace
}

// New builds the adapter. When cfg.ExternalTokenURL is empty the token
// endpoint is discovered from the provider's issuer metadata.
func New(ctx context.Context, cfg storage.Config) (*Backend, error) {
	if cfg.ExternalUserURL == "" || cfg.ExternalGroupURL == "" {
		return nil, fmt.Errorf("external provider user and group URLs are required")
	}

	tokenURL := cfg.ExternalTokenURL
	if tokenURL == "" {
		if cfg.ExternalIssuerURL == "" {
			return nil, fmt.Errorf("either a token URL or an issuer URL is required")
		}
		provider, err := oidc.NewProvider(ctx, cfg.ExternalIssuerURL)
		if err != nil {
			return nil, fmt.Errorf("failed to discover external provider: %w", err)
		}
		tokenURL = provider.Endpoint().TokenURL
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ExternalClientID,
		ClientSecret: cfg.ExternalClientSecret,
		TokenURL:     tokenURL,
	}

	return &Backend{
		// The oauth2 transport refreshes the service token as it expires.
		httpClient: cc.Client(ctx),
		userURL:    strings.TrimSuffix(cfg.ExternalUserURL, "/"),
		groupURL:   strings.TrimSuffix(cfg.ExternalGroupURL, "/"),
		keys:       storage.NewKeySpace(cfg.KeyPrefix),
	}, nil
}

// providerUser is the reduced view of the provider's user representation
// this adapter consumes.
type providerUser struct {
	ID         string            `json:"id"`
	Enabled    *bool             `json:"enabled,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// providerRole is the reduced view of the provider's role representation.
type providerRole struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Members []string          `json:"members,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// Load implements storage.Backend.Load for identity and group keys. Keys
// outside those keyspaces have no provider-side representation and report
// not found, so credential and token lookups degrade gracefully.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	if id, ok := keyUnder(key, b.keys.UsersPrefix()); ok {
		return b.loadUser(ctx, id)
	}
	if id, ok := keyUnder(key, b.keys.GroupsPrefix()); ok {
		return b.loadGroup(ctx, id)
	}
	return nil, storage.ErrKeyNotFound
}

func (b *Backend) loadUser(ctx context.Context, id string) ([]byte, error) {
	var pu providerUser
	if err := b.fetch(ctx, b.userURL+"/"+id, &pu); err != nil {
		return nil, err
	}
	identity := directory.Identity{
		ID:      id,
		Enabled: pu.Enabled == nil || *pu.Enabled,
		Data:    pu.Attributes,
	}
	return json.Marshal(identity)
}

func (b *Backend) loadGroup(ctx context.Context, id string) ([]byte, error) {
	var pr providerRole
	if err := b.fetch(ctx, b.groupURL+"/"+id, &pr); err != nil {
		return nil, err
	}
	group := directory.Group{
		ID:      id,
		Name:    pr.Name,
		Members: pr.Members,
		Data:    pr.Data,
	}
	return json.Marshal(group)
}

func (b *Backend) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return storage.ErrKeyNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// Store implements storage.Backend.Store; the provider is read-only.
func (b *Backend) Store(ctx context.Context, key string, doc []byte) error {
	return storage.ErrReadOnly
}

// Create implements storage.Backend.Create; the provider is read-only.
func (b *Backend) Create(ctx context.Context, key string, doc []byte) error {
	return storage.ErrReadOnly
}

// Delete implements storage.Backend.Delete; the provider is read-only.
func (b *Backend) Delete(ctx context.Context, key string) error {
	return storage.ErrReadOnly
}

// ListKeysBelow implements storage.Backend.ListKeysBelow. The adapter does
// not enumerate the provider; prefixes report empty so sweeps and scans are
// no-ops against this backend.
func (b *Backend) ListKeysBelow(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

func keyUnder(key, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(key, prefix+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
