package auth

import (
	"context"
	"time"
)

// MockVerifier provides fake token verification for tests.
type MockVerifier struct {
	Principal *Principal
	Error     error
}

// Verify returns the configured principal or error.
func (m *MockVerifier) Verify(_ context.Context, _ string) (*Principal, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Principal, nil
}

// TestPrincipal returns a standard test principal holding the demo scopes
// and the admin app role.
func TestPrincipal() *Principal {
	now := time.Now()
	return &Principal{
		Subject:           "test-subject-123",
		ObjectID:          "c1a2b631-90a3-4e41-a09f-6e34f2e86c0d",
		TenantID:          "31537af4-6d77-4bb9-a681-d2394888ea26",
		Name:              "Test User",
		PreferredUsername: "test.user@example.com",
		TokenVersion:      "2.0",
		Scopes:            []string{"Greeting.Read", "Greeting.Write"},
		Roles:             []string{"Greeting.Admin"},
		Expiry:            now.Add(time.Hour),
		IssuedAt:          now,
	}
}

// Compile-time interface check
var _ Verifier = (*MockVerifier)(nil)
