// Package greeting exposes the scope-protected greeting endpoints.
package greeting

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/entra-playground/internal/platform/auth"
	applog "github.com/janisto/entra-playground/internal/platform/logging"
	greetingsvc "github.com/janisto/entra-playground/internal/service/greeting"
)

const frameworkModule = "github.com/danielgtaylor/huma/v2"

// Register registers greeting endpoints.
func Register(api huma.API, svc greetingsvc.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-greeting",
		Method:      http.MethodGet,
		Path:        "/greeting",
		Summary:     "Get a greeting",
		Description: "Issues a greeting addressed to the name query parameter, defaulting to the caller's display name.",
		Tags:        []string{"Greeting"},
		Security: []map[string][]string{
			{"aadBearer": {"SCOPE_Greeting.Read"}},
		},
	}, func(ctx context.Context, input *GetInput) (*GetOutput, error) {
		name := input.Name
		if name == "" {
			if p := auth.PrincipalFromContext(ctx); p != nil {
				name = p.DisplayName()
			}
		}
		if name == "" {
			name = "World"
		}

		g := svc.Greet(name)
		applog.LogInfo(ctx, "greeting issued", zap.Int64("id", g.ID), zap.String("name", name))
		return &GetOutput{Body: toHTTPGreeting(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-greeting",
		Method:        http.MethodPost,
		Path:          "/greeting",
		Summary:       "Create a personalized greeting",
		Tags:          []string{"Greeting"},
		DefaultStatus: http.StatusCreated,
		Security: []map[string][]string{
			{"aadBearer": {"SCOPE_Greeting.Write"}},
		},
	}, func(ctx context.Context, input *CreateInput) (*CreateOutput, error) {
		g := svc.Greet(input.Body.Name)
		applog.LogAuditEvent(ctx, "create", auditUser(auth.PrincipalFromContext(ctx)),
			"greeting", strconv.FormatInt(g.ID, 10), "success", nil)
		return &CreateOutput{Body: toHTTPGreeting(g)}, nil
	})
}

func auditUser(p *auth.Principal) string {
	if p == nil {
		return ""
	}
	if p.ObjectID != "" {
		return p.ObjectID
	}
	return p.Subject
}

func toHTTPGreeting(g greetingsvc.Greeting) Data {
	return Data{
		ID:        g.ID,
		Content:   g.Content,
		Framework: frameworkVersion(),
	}
}

// frameworkVersion resolves the huma module version from build info once.
// Binaries built outside module mode report "(devel)".
var frameworkVersion = sync.OnceValue(func() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == frameworkModule {
				return "huma " + dep.Version
			}
		}
	}
	return "huma (devel)"
})
