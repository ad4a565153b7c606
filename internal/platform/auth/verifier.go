package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"
)

// Error types for authentication failures.
var (
	// ErrNoToken indicates a missing Authorization header or an empty token.
	ErrNoToken = errors.New("missing bearer token")

	// ErrInvalidToken indicates a malformed token or a bad signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token is outside its validity window.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongIssuer indicates the iss claim does not match the tenant issuer.
	ErrWrongIssuer = errors.New("wrong issuer")

	// ErrWrongTenant indicates the tid claim does not match the configured tenant.
	ErrWrongTenant = errors.New("wrong tenant")

	// ErrWrongAudience indicates the aud claim does not name this API.
	ErrWrongAudience = errors.New("wrong audience")

	// ErrKeyFetch indicates a network error fetching signing keys.
	// This should result in HTTP 503 (service unavailable).
	ErrKeyFetch = errors.New("failed to fetch signing keys")
)

// Verifier validates bearer tokens and returns the caller's identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// allowedAlgs are the signature algorithms Entra signs access tokens with.
// Anything else, including none, is rejected before key lookup.
var allowedAlgs = []string{"RS256", "RS384", "RS512"}

// Options configures a TokenVerifier.
type Options struct {
	// Issuer is the expected iss claim,
	// e.g. https://login.microsoftonline.com/{tenant}/v2.0.
	Issuer string

	// TenantID is the expected tid claim. Empty skips the tenant check.
	TenantID string

	// Audiences lists the accepted aud values. Entra tokens carry either
	// the bare client ID or the api://{clientID} URI form.
	Audiences []string

	// JWKSURI is the tenant signing-keys endpoint.
	JWKSURI string

	// Leeway tolerates clock skew when checking exp, nbf and iat.
	Leeway time.Duration

	// RefreshInterval bounds how often the JWKS cache refreshes in the
	// background. Zero means the jwk package default.
	RefreshInterval time.Duration
}

// TokenVerifier implements Verifier for Entra v2.0 access tokens. Keys are
// fetched from the tenant JWKS endpoint and cached with background refresh.
type TokenVerifier struct {
	issuer    string
	tenantID  string
	audiences []string
	jwksURI   string
	parser    *jwt.Parser

	fetcher *jwk.AutoRefresh
}

// NewTokenVerifier creates a verifier that checks tokens offline against
// the tenant's published signing keys. The context bounds the lifetime of
// the background JWKS refresher.
func NewTokenVerifier(ctx context.Context, opts Options) (*TokenVerifier, error) {
	if opts.Issuer == "" {
		return nil, errors.New("auth: issuer is required")
	}
	if opts.JWKSURI == "" {
		return nil, errors.New("auth: JWKS URI is required")
	}
	if len(opts.Audiences) == 0 {
		return nil, errors.New("auth: at least one audience is required")
	}

	fetcher := jwk.NewAutoRefresh(ctx)
	if opts.RefreshInterval > 0 {
		fetcher.Configure(opts.JWKSURI, jwk.WithMinRefreshInterval(opts.RefreshInterval))
	} else {
		fetcher.Configure(opts.JWKSURI)
	}

	return &TokenVerifier{
		issuer:    opts.Issuer,
		tenantID:  opts.TenantID,
		audiences: slices.Clone(opts.Audiences),
		jwksURI:   opts.JWKSURI,
		parser: jwt.NewParser(
			jwt.WithValidMethods(allowedAlgs),
			jwt.WithLeeway(opts.Leeway),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
		fetcher: fetcher,
	}, nil
}

// Verify validates a raw bearer token: signature against the tenant keys,
// time window with leeway, then issuer, tenant and audience. Returns the
// authenticated principal.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("no kid in token header")
		}
		return v.lookupKey(ctx, kid)
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if iss, _ := claims.GetIssuer(); iss != v.issuer {
		return nil, ErrWrongIssuer
	}
	if v.tenantID != "" && stringClaim(claims, "tid") != v.tenantID {
		return nil, ErrWrongTenant
	}
	if !v.audienceAllowed(claims) {
		return nil, ErrWrongAudience
	}

	return newPrincipal(claims), nil
}

// lookupKey resolves a signing key by ID from the cached JWKS. An unknown
// ID forces one re-fetch to pick up rolled-over keys before failing.
func (v *TokenVerifier) lookupKey(ctx context.Context, kid string) (any, error) {
	set, err := v.fetcher.Fetch(ctx, v.jwksURI)
	if err != nil {
		return nil, fmt.Errorf("%w; fetching JWK set from %q: %v", ErrKeyFetch, v.jwksURI, err)
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		set, err = v.fetcher.Refresh(ctx, v.jwksURI)
		if err != nil {
			return nil, fmt.Errorf("%w; refreshing JWK set from %q: %v", ErrKeyFetch, v.jwksURI, err)
		}
		key, ok = set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("signing key %q not found in JWKS", kid)
		}
	}

	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("materializing signing key %q: %w", kid, err)
	}
	return raw, nil
}

func (v *TokenVerifier) audienceAllowed(claims jwt.MapClaims) bool {
	aud, err := claims.GetAudience()
	if err != nil {
		return false
	}
	for _, a := range aud {
		if slices.Contains(v.audiences, a) {
			return true
		}
	}
	return false
}

// classifyParseError maps golang-jwt parse failures onto the package's
// sentinel errors. Key-fetch failures keep their chain so the middleware
// can answer 503 instead of 401.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenExpired
	case errors.Is(err, ErrKeyFetch):
		return err
	default:
		return ErrInvalidToken
	}
}

// ExtractBearerToken extracts the token from an Authorization header. The
// scheme match is case-insensitive per RFC 9110.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.Fields(header)
	if len(parts) == 1 && strings.EqualFold(parts[0], "bearer") {
		return "", ErrNoToken
	}
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// Compile-time interface check
var _ Verifier = (*TokenVerifier)(nil)
