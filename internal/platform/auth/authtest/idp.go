// Package authtest provides a fake Entra tenant for tests: an RSA signing
// key, a bearer-token forge, and an HTTP stand-in serving the tenant's
// discovery document and JWKS endpoints.
//
// Example:
//
//	idp := authtest.New(t)
//	defer idp.Close()
//
//	token := idp.SignClaims(t, jwt.MapClaims{"scp": "Greeting.Read"})
//	req.Header.Set("Authorization", "Bearer "+token)
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"
)

const (
	// TenantID is the fake directory ID tokens are issued for.
	TenantID = "31537af4-6d77-4bb9-a681-d2394888ea26"

	// ClientID is the fake API registration tokens are issued to.
	ClientID = "6731de76-14a6-49ae-97bc-6eba6914391e"
)

// IDP is a fake identity provider bound to an httptest server.
type IDP struct {
	// KeyID names the active signing key; SignClaims stamps it into the
	// token header.
	KeyID string

	mu      sync.Mutex
	keys    []signingKey
	server  *httptest.Server
	fetches atomic.Int64
}

type signingKey struct {
	id  string
	key *rsa.PrivateKey
}

// New starts a fake tenant. Callers must Close it when done.
func New(t *testing.T) *IDP {
	t.Helper()

	idp := &IDP{KeyID: "key-1"}
	idp.keys = []signingKey{newSigningKey(t, "key-1")}

	mux := http.NewServeMux()
	mux.HandleFunc("/"+TenantID+"/v2.0/.well-known/openid-configuration", idp.serveDiscovery)
	mux.HandleFunc("/"+TenantID+"/discovery/v2.0/keys", idp.serveJWKS)
	idp.server = httptest.NewServer(mux)

	return idp
}

// Close shuts the fake tenant down.
func (idp *IDP) Close() {
	idp.server.Close()
}

// Authority returns the tenant authority URL, the analog of
// https://login.microsoftonline.com/{tenant}.
func (idp *IDP) Authority() string {
	return idp.server.URL + "/" + TenantID
}

// Issuer returns the v2.0 issuer for tokens from this tenant.
func (idp *IDP) Issuer() string {
	return idp.Authority() + "/v2.0"
}

// JWKSURI returns the tenant signing-keys endpoint.
func (idp *IDP) JWKSURI() string {
	return idp.Authority() + "/discovery/v2.0/keys"
}

// KeyFetches reports how many times the JWKS endpoint was hit, for
// asserting cache behavior.
func (idp *IDP) KeyFetches() int64 {
	return idp.fetches.Load()
}

// RotateKey publishes a fresh signing key and makes it the active one.
// Previously published keys stay in the JWKS, mirroring tenant rollover.
func (idp *IDP) RotateKey(t *testing.T) {
	t.Helper()
	idp.mu.Lock()
	defer idp.mu.Unlock()
	sk := newSigningKey(t, fmt.Sprintf("key-%d", len(idp.keys)+1))
	idp.keys = append(idp.keys, sk)
	idp.KeyID = sk.id
}

// SignClaims issues a bearer token signed by the active key. The provided
// claims override the defaults, which form a minimal valid v2.0 access
// token for this tenant.
func (idp *IDP) SignClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	now := time.Now()
	full := jwt.MapClaims{
		"iss": idp.Issuer(),
		"aud": ClientID,
		"tid": TenantID,
		"sub": "AAAAAAAAAAAAAAAAAAAAAMs3qJ9tS6u3vGk6e2PSnCo",
		"oid": "c1a2b631-90a3-4e41-a09f-6e34f2e86c0d",
		"ver": "2.0",
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	maps.Copy(full, claims)
	return idp.sign(t, full, idp.KeyID)
}

// SignClaimsKID issues a token like SignClaims but forces the kid header,
// for exercising unknown-key handling.
func (idp *IDP) SignClaimsKID(t *testing.T, claims jwt.MapClaims, kid string) string {
	t.Helper()
	now := time.Now()
	full := jwt.MapClaims{
		"iss": idp.Issuer(),
		"aud": ClientID,
		"tid": TenantID,
		"sub": "AAAAAAAAAAAAAAAAAAAAAMs3qJ9tS6u3vGk6e2PSnCo",
		"ver": "2.0",
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	maps.Copy(full, claims)
	return idp.sign(t, full, kid)
}

func (idp *IDP) sign(t *testing.T, claims jwt.MapClaims, kid string) string {
	t.Helper()
	idp.mu.Lock()
	key := idp.keys[len(idp.keys)-1].key
	idp.mu.Unlock()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func (idp *IDP) serveDiscovery(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]string{
		"issuer":                 idp.Issuer(),
		"authorization_endpoint": idp.Authority() + "/oauth2/v2.0/authorize",
		"token_endpoint":         idp.Authority() + "/oauth2/v2.0/token",
		"jwks_uri":               idp.JWKSURI(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (idp *IDP) serveJWKS(w http.ResponseWriter, _ *http.Request) {
	idp.fetches.Add(1)

	idp.mu.Lock()
	keys := slices.Clone(idp.keys)
	idp.mu.Unlock()

	set := jwk.NewSet()
	for _, sk := range keys {
		key, err := jwk.New(&sk.key.PublicKey)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = key.Set(jwk.KeyIDKey, sk.id)
		_ = key.Set(jwk.AlgorithmKey, "RS256")
		_ = key.Set(jwk.KeyUsageKey, "sig")
		set.Add(key)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}

func newSigningKey(t *testing.T, id string) signingKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	return signingKey{id: id, key: key}
}
