// Package health exposes the unauthenticated liveness endpoint.
package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// HealthData is the payload for the health endpoint.
type HealthData struct {
	Status string `json:"status" doc:"Service status" example:"healthy"`
}

// HealthOutput is the response wrapper for the health endpoint.
type HealthOutput struct {
	Body HealthData
}

// Register adds the health route to the API. The operation carries no
// security requirement, so probes never touch the token verifier.
func Register(api huma.API) {
	huma.Get(api, "/health", func(_ context.Context, _ *struct{}) (*HealthOutput, error) {
		return &HealthOutput{Body: HealthData{Status: "healthy"}}, nil
	})
}
