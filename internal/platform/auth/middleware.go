package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/entra-playground/internal/platform/logging"
)

// principalContextKey is the context key for the authenticated principal.
type principalContextKey struct{}

// NewAuthMiddleware creates Huma middleware enforcing bearer-token security.
// Operations without security requirements pass through untouched. For
// protected operations the token is verified and the principal must satisfy
// at least one requirement: the authorities inside a requirement are all
// needed, alternative requirements are OR'd (OpenAPI semantics).
func NewAuthMiddleware(api huma.API, verifier Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requirements := ctx.Operation().Security
		if len(requirements) == 0 {
			next(ctx)
			return
		}

		token, err := ExtractBearerToken(ctx.Header("Authorization"))
		if err != nil {
			applog.LogWarn(ctx.Context(), "auth failed: missing or invalid header",
				zap.String("reason", "no_token"))
			ctx.SetHeader("WWW-Authenticate", "Bearer")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		principal, err := verifier.Verify(ctx.Context(), token)
		if err != nil {
			reason := categorizeAuthError(err)
			applog.LogWarn(ctx.Context(), "auth failed: token verification failed",
				zap.String("reason", reason))

			if errors.Is(err, ErrKeyFetch) {
				ctx.SetHeader("Retry-After", "30")
				_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable,
					"authentication service temporarily unavailable")
				return
			}
			ctx.SetHeader("WWW-Authenticate", `Bearer error="invalid_token"`)
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if !principalSatisfies(principal, requirements) {
			applog.LogWarn(ctx.Context(), "auth failed: insufficient authorities",
				zap.String("reason", "insufficient_scope"),
				zap.Strings("granted", principal.Authorities()))
			ctx.SetHeader("WWW-Authenticate", `Bearer error="insufficient_scope"`)
			_ = huma.WriteErr(api, ctx, http.StatusForbidden,
				"token lacks a required scope or role")
			return
		}

		ctx = huma.WithValue(ctx, principalContextKey{}, principal)
		next(ctx)
	}
}

// principalSatisfies reports whether the principal meets at least one of
// the operation's security requirements.
func principalSatisfies(p *Principal, requirements []map[string][]string) bool {
	for _, requirement := range requirements {
		if requirementMet(p, requirement) {
			return true
		}
	}
	return false
}

// requirementMet requires every listed authority of every scheme in the
// requirement. An empty authority list means authentication alone suffices.
func requirementMet(p *Principal, requirement map[string][]string) bool {
	for _, authorities := range requirement {
		for _, authority := range authorities {
			if !p.HasAuthority(authority) {
				return false
			}
		}
	}
	return true
}

// categorizeAuthError returns a safe category string for logging.
func categorizeAuthError(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrWrongIssuer):
		return "wrong_issuer"
	case errors.Is(err, ErrWrongTenant):
		return "wrong_tenant"
	case errors.Is(err, ErrWrongAudience):
		return "wrong_audience"
	case errors.Is(err, ErrKeyFetch):
		return "key_fetch_failed"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}

// PrincipalFromContext retrieves the authenticated principal from context.
// Returns nil if the request was not authenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey{}).(*Principal)
	return principal
}
