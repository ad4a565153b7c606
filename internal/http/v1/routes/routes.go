// Package routes wires the v1 features into the API router.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/entra-playground/internal/http/v1/admin"
	"github.com/janisto/entra-playground/internal/http/v1/greeting"
	"github.com/janisto/entra-playground/internal/http/v1/token"
	"github.com/janisto/entra-playground/internal/platform/auth"
	greetingsvc "github.com/janisto/entra-playground/internal/service/greeting"
)

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, verifier auth.Verifier, greetings greetingsvc.Service) {
	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, verifier))

	greeting.Register(api, greetings)
	token.Register(api)
	admin.Register(api, greetings)
}
