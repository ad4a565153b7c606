// Package token lets authenticated callers inspect their own access token.
package token

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/entra-playground/internal/platform/auth"
	applog "github.com/janisto/entra-playground/internal/platform/logging"
)

// GetOutput for GET /token
type GetOutput struct {
	Body IntrospectionData
}

// Register registers the token introspection endpoint. Any authenticated
// caller may inspect their own token; no particular scope is required.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "introspect-token",
		Method:      http.MethodGet,
		Path:        "/token",
		Summary:     "Introspect the presented token",
		Description: "Returns the validated claims of the caller's own bearer token as an RFC 7662 style report.",
		Tags:        []string{"Token"},
		Security: []map[string][]string{
			{"aadBearer": {}},
		},
	}, func(ctx context.Context, _ *struct{}) (*GetOutput, error) {
		p := auth.PrincipalFromContext(ctx)
		applog.LogAuditEvent(ctx, "introspect", auditUser(p), "token", p.Subject, "success", nil)
		return &GetOutput{Body: toHTTPIntrospection(p)}, nil
	})
}

func auditUser(p *auth.Principal) string {
	if p.ObjectID != "" {
		return p.ObjectID
	}
	return p.Subject
}

func toHTTPIntrospection(p *auth.Principal) IntrospectionData {
	d := IntrospectionData{
		Active:            true,
		Subject:           p.Subject,
		Scope:             strings.Join(p.Scopes, " "),
		Roles:             p.Roles,
		ObjectID:          p.ObjectID,
		TenantID:          p.TenantID,
		Name:              p.Name,
		PreferredUsername: p.PreferredUsername,
		AppID:             p.AppID,
		TokenVersion:      p.TokenVersion,
		Claims:            p.Claims,
	}
	if iss, ok := p.Claims["iss"].(string); ok {
		d.Issuer = iss
	}
	if !p.Expiry.IsZero() {
		d.ExpiresAt = p.Expiry.Unix()
	}
	if !p.IssuedAt.IsZero() {
		d.IssuedAt = p.IssuedAt.Unix()
	}
	return d
}
