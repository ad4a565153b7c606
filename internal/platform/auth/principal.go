// Package auth validates Microsoft Entra ID (Azure AD) v2.0 access tokens
// and enforces operation-level security requirements for Huma APIs. Tokens
// are verified offline against the tenant's published signing keys; scopes
// and app roles from the validated claims become SCOPE_/APPROLE_ authorities.
package auth

import (
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authority prefixes applied when mapping token claims.
const (
	// ScopePrefix marks authorities derived from the scp claim (delegated
	// permissions).
	ScopePrefix = "SCOPE_"

	// AppRolePrefix marks authorities derived from the roles claim
	// (application roles).
	AppRolePrefix = "APPROLE_"
)

// Principal is the validated identity extracted from a bearer token.
type Principal struct {
	// Subject is the sub claim, a pairwise identifier stable per app.
	Subject string

	// ObjectID is the directory object ID (oid) of the user or service
	// principal.
	ObjectID string

	// TenantID is the issuing tenant (tid).
	TenantID string

	// Name is the human-readable display name, when the token carries one.
	Name string

	// PreferredUsername is usually a UPN or email address.
	PreferredUsername string

	// AppID identifies the client application the token was issued to
	// (azp, or appid on v1.0 tokens).
	AppID string

	// TokenVersion is the ver claim, "2.0" for v2 tokens.
	TokenVersion string

	// Scopes are the delegated permissions from the space-separated scp
	// claim. Empty for app-only tokens.
	Scopes []string

	// Roles are the application roles from the roles claim. Empty for
	// plain delegated tokens.
	Roles []string

	// Expiry and IssuedAt mirror the exp and iat claims.
	Expiry   time.Time
	IssuedAt time.Time

	// Claims holds the full validated claims map for callers that need
	// more than the promoted fields.
	Claims map[string]any
}

// Authorities returns the granted authorities: SCOPE_<scope> for every
// entry in scp and APPROLE_<role> for every entry in roles. Nothing else
// grants an authority.
func (p *Principal) Authorities() []string {
	out := make([]string, 0, len(p.Scopes)+len(p.Roles))
	for _, s := range p.Scopes {
		out = append(out, ScopePrefix+s)
	}
	for _, r := range p.Roles {
		out = append(out, AppRolePrefix+r)
	}
	return out
}

// HasAuthority reports whether the principal holds the given prefixed
// authority. Unprefixed names never match.
func (p *Principal) HasAuthority(authority string) bool {
	switch {
	case strings.HasPrefix(authority, ScopePrefix):
		return p.HasScope(strings.TrimPrefix(authority, ScopePrefix))
	case strings.HasPrefix(authority, AppRolePrefix):
		return p.HasRole(strings.TrimPrefix(authority, AppRolePrefix))
	}
	return false
}

// HasScope reports whether the scp claim contained the given scope.
func (p *Principal) HasScope(scope string) bool {
	return slices.Contains(p.Scopes, scope)
}

// HasRole reports whether the roles claim contained the given app role.
func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// DisplayName returns the friendliest identifier available: name, then
// preferred_username, then the client app ID, then the raw subject.
func (p *Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.PreferredUsername != "" {
		return p.PreferredUsername
	}
	if p.AppID != "" {
		return p.AppID
	}
	return p.Subject
}

// newPrincipal builds a Principal from validated claims.
func newPrincipal(claims jwt.MapClaims) *Principal {
	p := &Principal{
		Subject:           stringClaim(claims, "sub"),
		ObjectID:          stringClaim(claims, "oid"),
		TenantID:          stringClaim(claims, "tid"),
		Name:              stringClaim(claims, "name"),
		PreferredUsername: stringClaim(claims, "preferred_username"),
		AppID:             stringClaim(claims, "azp"),
		TokenVersion:      stringClaim(claims, "ver"),
		Scopes:            splitScopes(claims["scp"]),
		Roles:             stringSliceClaim(claims["roles"]),
		Claims:            map[string]any(claims),
	}
	if p.AppID == "" {
		// v1.0 access tokens carry appid instead of azp.
		p.AppID = stringClaim(claims, "appid")
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		p.Expiry = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		p.IssuedAt = iat.Time
	}
	return p
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// splitScopes normalizes the scp claim. Entra sends a space-separated
// string; some issuers use an array instead.
func splitScopes(v any) []string {
	switch sv := v.(type) {
	case string:
		return strings.Fields(sv)
	case []any:
		return stringSliceClaim(sv)
	}
	return nil
}

func stringSliceClaim(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, a := range arr {
		if s, ok := a.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
