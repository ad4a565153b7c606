package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/entra-playground/internal/platform/auth"
	applog "github.com/janisto/entra-playground/internal/platform/logging"
	appmiddleware "github.com/janisto/entra-playground/internal/platform/middleware"
	"github.com/janisto/entra-playground/internal/platform/respond"
	greetingsvc "github.com/janisto/entra-playground/internal/service/greeting"
)

func newTestRouter(svc greetingsvc.Service, verifier auth.Verifier) chi.Router {
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("AdminTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, verifier))
	Register(api, svc)
	return router
}

func getStats(t *testing.T, router chi.Router, authorize bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	if authorize {
		req.Header.Set("Authorization", "Bearer valid-token")
	}
	req.Header.Set(chimiddleware.RequestIDHeader, "admin-stats-test")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestGetStats(t *testing.T) {
	svc := greetingsvc.NewLocalService()
	svc.Greet("Alice")
	svc.Greet("Bob")
	router := newTestRouter(svc, &auth.MockVerifier{Principal: auth.TestPrincipal()})

	resp := getStats(t, router, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var d StatsData
	if err := json.Unmarshal(resp.Body.Bytes(), &d); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if d.GreetingsServed != 2 {
		t.Errorf("expected 2 greetings served, got %d", d.GreetingsServed)
	}
	if d.StartedAt.IsZero() {
		t.Error("expected startedAt to be set")
	}
	if d.Uptime == "" {
		t.Error("expected uptime to be set")
	}
}

func TestGetStatsFreshService(t *testing.T) {
	svc := greetingsvc.NewLocalService()
	router := newTestRouter(svc, &auth.MockVerifier{Principal: auth.TestPrincipal()})

	resp := getStats(t, router, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var d StatsData
	if err := json.Unmarshal(resp.Body.Bytes(), &d); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if d.GreetingsServed != 0 {
		t.Errorf("expected 0 greetings served, got %d", d.GreetingsServed)
	}
}

func TestGetStatsRequiresAdminRole(t *testing.T) {
	svc := greetingsvc.NewLocalService()
	// Full delegated scopes, but no app role.
	verifier := &auth.MockVerifier{Principal: &auth.Principal{
		Subject: "scoped-user",
		Scopes:  []string{"Greeting.Read", "Greeting.Write"},
	}}
	router := newTestRouter(svc, verifier)

	resp := getStats(t, router, true)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.Code, resp.Body.String())
	}
	wwwAuth := resp.Header().Get("WWW-Authenticate")
	if wwwAuth != `Bearer error="insufficient_scope"` {
		t.Errorf("expected insufficient_scope challenge, got %s", wwwAuth)
	}
}

func TestGetStatsScopeDoesNotGrantRole(t *testing.T) {
	svc := greetingsvc.NewLocalService()
	// A delegated scope that happens to share the role's name must not
	// satisfy an APPROLE_ requirement.
	verifier := &auth.MockVerifier{Principal: &auth.Principal{
		Subject: "impostor",
		Scopes:  []string{"Greeting.Admin"},
	}}
	router := newTestRouter(svc, verifier)

	resp := getStats(t, router, true)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGetStatsAppOnlyAdmin(t *testing.T) {
	svc := greetingsvc.NewLocalService()
	// App-only token: roles without any delegated scopes.
	verifier := &auth.MockVerifier{Principal: &auth.Principal{
		Subject: "daemon-app",
		AppID:   "6731de76-14a6-49ae-97bc-6eba6914391e",
		Roles:   []string{"Greeting.Admin"},
	}}
	router := newTestRouter(svc, verifier)

	resp := getStats(t, router, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGetStatsUnauthorized(t *testing.T) {
	svc := greetingsvc.NewLocalService()
	router := newTestRouter(svc, &auth.MockVerifier{Principal: auth.TestPrincipal()})

	resp := getStats(t, router, false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
