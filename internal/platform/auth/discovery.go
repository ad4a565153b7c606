package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// wellKnownPath is the OIDC discovery document path under the tenant
// authority, e.g. https://login.microsoftonline.com/{tenant}/v2.0/.well-known/openid-configuration.
const wellKnownPath = "/v2.0/.well-known/openid-configuration"

// Metadata is the subset of the OIDC discovery document the verifier needs.
type Metadata struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// DiscoverMetadata fetches the tenant's OIDC discovery document. A nil
// client falls back to http.DefaultClient.
func DiscoverMetadata(ctx context.Context, client *http.Client, authority string) (*Metadata, error) {
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(authority, "/") + wellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching discovery document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint %s returned status %d", url, resp.StatusCode)
	}

	md := Metadata{}
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, fmt.Errorf("decoding discovery document: %w", err)
	}
	if md.JWKSURI == "" {
		return nil, errors.New("discovery document has no jwks_uri")
	}
	return &md, nil
}

// FallbackJWKSURI returns the documented tenant keys endpoint, used when
// discovery is unavailable at startup.
func FallbackJWKSURI(authority string) string {
	return strings.TrimRight(authority, "/") + "/discovery/v2.0/keys"
}
