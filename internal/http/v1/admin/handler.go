// Package admin exposes role-protected operational endpoints.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/entra-playground/internal/platform/timeutil"
	greetingsvc "github.com/janisto/entra-playground/internal/service/greeting"
)

// GetOutput for GET /admin/stats
type GetOutput struct {
	Body StatsData
}

// Register registers admin endpoints. Access requires the Greeting.Admin
// application role; delegated scopes alone never qualify.
func Register(api huma.API, svc greetingsvc.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-admin-stats",
		Method:      http.MethodGet,
		Path:        "/admin/stats",
		Summary:     "Get service statistics",
		Description: "Operational counters for the greeting service.",
		Tags:        []string{"Admin"},
		Security: []map[string][]string{
			{"aadBearer": {"APPROLE_Greeting.Admin"}},
		},
	}, func(ctx context.Context, _ *struct{}) (*GetOutput, error) {
		stats := svc.Stats()
		return &GetOutput{Body: StatsData{
			GreetingsServed: stats.Served,
			StartedAt:       timeutil.Time{Time: stats.StartedAt},
			Uptime:          time.Since(stats.StartedAt).Round(time.Second).String(),
		}}, nil
	})
}
