package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/janisto/entra-playground/internal/config"
	"github.com/janisto/entra-playground/internal/http/health"
	"github.com/janisto/entra-playground/internal/http/v1/routes"
	"github.com/janisto/entra-playground/internal/platform/auth"
	applog "github.com/janisto/entra-playground/internal/platform/logging"
	appmiddleware "github.com/janisto/entra-playground/internal/platform/middleware"
	"github.com/janisto/entra-playground/internal/platform/respond"
	greetingsvc "github.com/janisto/entra-playground/internal/service/greeting"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	// Load .env if present. Deployed environments configure the process
	// environment directly.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(ctx, "invalid configuration", err)
	}
	applog.LogInfo(ctx, "configuration loaded",
		zap.String("tenant", cfg.TenantID), zap.String("client", cfg.ClientID))

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		applog.LogFatal(ctx, "token verifier init failed", err)
	}

	router := newRouter(cfg, verifier)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		os.Exit(1)
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
}

// newVerifier builds the token verifier for the configured tenant. The
// JWKS endpoint and issuer come from OIDC discovery; when the discovery
// document is unreachable at boot, the documented tenant endpoints are
// used instead and keys are fetched lazily on the first request.
func newVerifier(ctx context.Context, cfg *config.Config) (auth.Verifier, error) {
	issuer := cfg.IssuerV2()
	jwksURI := auth.FallbackJWKSURI(cfg.Authority())

	discoverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	md, err := auth.DiscoverMetadata(discoverCtx, nil, cfg.Authority())
	if err != nil {
		applog.LogWarn(ctx, "OIDC discovery failed, using documented tenant endpoints", zap.Error(err))
	} else {
		issuer = md.Issuer
		jwksURI = md.JWKSURI
	}

	return auth.NewTokenVerifier(ctx, auth.Options{
		Issuer:          issuer,
		TenantID:        cfg.TenantID,
		Audiences:       cfg.Audiences(),
		JWKSURI:         jwksURI,
		Leeway:          cfg.ClockSkew,
		RefreshInterval: cfg.JWKSRefreshInterval,
	})
}

// newRouter assembles the full middleware stack and API surface.
func newRouter(cfg *config.Config, verifier auth.Verifier) chi.Router {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(cfg.DocsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Azure Front
		// Door, nginx). Without one, clients can spoof their IP address.
		chimiddleware.RealIP,
		// RequestSize limits request body size to prevent memory exhaustion from large payloads.
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	respond.Install()

	humaCfg := huma.DefaultConfig("Entra Playground API", Version)
	humaCfg.DocsPath = cfg.DocsPath
	humaCfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"aadBearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Microsoft Entra ID access token issued for this API",
		},
	}
	// Allow JSON fallback for wildcard Accept headers (e.g., */*) since Huma's
	// negotiation uses exact matching and doesn't interpret wildcards per
	// RFC 9110 section 12.5.1. Clients sending unsupported types like text/plain
	// will still receive JSON rather than 406, which is acceptable per RFC 9110
	// section 12.4.1 (servers MAY disregard Accept and return a default).
	api := humachi.New(router, humaCfg)

	// Add CBOR content type to OpenAPI requests and responses
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)

	health.Register(api)
	routes.Register(api, verifier, greetingsvc.NewLocalService())

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if err := respond.WriteRedirect(w, r.Context(), http.StatusTemporaryRedirect, cfg.DocsPath, "see API documentation"); err != nil {
			applog.LogError(r.Context(), "failed to render redirect", err)
		}
	})

	return router
}
