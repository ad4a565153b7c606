// Package config provides configuration management for the resource server.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the complete server configuration in a flat structure.
type Config struct {
	// Server settings
	// Addr is the address to bind the HTTP server (e.g., ":8080").
	Addr string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// ReadHeaderTimeout is the maximum duration for reading request headers.
	ReadHeaderTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum duration to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration

	// DocsPath is where the interactive API documentation is served.
	DocsPath string

	// Microsoft Entra ID settings
	// Instance is the base URL of the identity platform
	// (e.g., "https://login.microsoftonline.com").
	Instance string

	// TenantID is the directory (tenant) ID tokens must be issued for.
	TenantID string

	// ClientID is the application (client) ID of this API's app registration.
	// Tokens are accepted with an audience of either the bare client ID or
	// the "api://{client-id}" application ID URI.
	ClientID string

	// ExtraAudiences lists additional accepted audience values beyond the
	// client ID forms (e.g., a custom application ID URI).
	ExtraAudiences []string

	// ClockSkew is the allowed clock skew for token time validation.
	ClockSkew time.Duration

	// JWKSRefreshInterval is the minimum interval between signing-key refetches.
	JWKSRefreshInterval time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// It sets default values for optional fields and validates the configuration.
func Load() (*Config, error) {
	readTimeout, err := parseDurationWithDefault("SERVER_READ_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}

	readHeaderTimeout, err := parseDurationWithDefault("SERVER_READ_HEADER_TIMEOUT", "10s")
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_HEADER_TIMEOUT: %w", err)
	}

	writeTimeout, err := parseDurationWithDefault("SERVER_WRITE_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := parseDurationWithDefault("SERVER_IDLE_TIMEOUT", "120s")
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_IDLE_TIMEOUT: %w", err)
	}

	clockSkew, err := parseDurationWithDefault("AZURE_CLOCK_SKEW", "1m")
	if err != nil {
		return nil, fmt.Errorf("invalid AZURE_CLOCK_SKEW: %w", err)
	}

	jwksRefresh, err := parseDurationWithDefault("AZURE_JWKS_REFRESH_INTERVAL", "15m")
	if err != nil {
		return nil, fmt.Errorf("invalid AZURE_JWKS_REFRESH_INTERVAL: %w", err)
	}

	cfg := &Config{
		// Server settings
		Addr:              getEnvWithDefault("SERVER_ADDR", ":8080"),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		DocsPath:          getEnvWithDefault("DOCS_PATH", "/api-docs"),

		// Entra ID settings
		Instance:            getEnvWithDefault("AZURE_AD_INSTANCE", "https://login.microsoftonline.com"),
		TenantID:            os.Getenv("AZURE_TENANT_ID"),
		ClientID:            os.Getenv("AZURE_CLIENT_ID"),
		ExtraAudiences:      parseCommaSeparated("AZURE_EXTRA_AUDIENCES"),
		ClockSkew:           clockSkew,
		JWKSRefreshInterval: jwksRefresh,
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Authority returns the tenant-specific authority URL, e.g.
// "https://login.microsoftonline.com/{tenant-id}".
func (c *Config) Authority() string {
	return strings.TrimRight(c.Instance, "/") + "/" + c.TenantID
}

// IssuerV2 returns the expected issuer for v2.0 tokens, e.g.
// "https://login.microsoftonline.com/{tenant-id}/v2.0".
func (c *Config) IssuerV2() string {
	return c.Authority() + "/v2.0"
}

// Audiences returns every audience value this server accepts: the client ID,
// its "api://" application ID URI form, and any configured extras.
func (c *Config) Audiences() []string {
	audiences := []string{c.ClientID, "api://" + c.ClientID}
	seen := map[string]struct{}{
		audiences[0]: {},
		audiences[1]: {},
	}
	for _, aud := range c.ExtraAudiences {
		if _, ok := seen[aud]; ok {
			continue
		}
		audiences = append(audiences, aud)
		seen[aud] = struct{}{}
	}
	return audiences
}

// getEnvWithDefault returns the environment variable value or the default if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseCommaSeparated parses a comma-separated environment variable into a string slice.
// Empty values are filtered out. Returns nil if the environment variable is not set.
func parseCommaSeparated(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// parseDurationWithDefault parses a duration from an environment variable.
// If the variable is not set, it uses the default value.
// Returns an error if the value is set but cannot be parsed.
func parseDurationWithDefault(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		duration, err := time.ParseDuration(defaultValue)
		if err != nil {
			return 0, fmt.Errorf("invalid default duration %q: %w", defaultValue, err)
		}
		return duration, nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("cannot parse duration %q: %w", value, err)
	}

	return duration, nil
}

// String returns a string representation of the configuration (for debugging).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Addr: %s, ReadTimeout: %v, WriteTimeout: %v, IdleTimeout: %v, DocsPath: %s, Instance: %s, TenantID: %s, ClientID: %s, ExtraAudiences: %v, ClockSkew: %v, JWKSRefreshInterval: %v}",
		c.Addr, c.ReadTimeout, c.WriteTimeout, c.IdleTimeout, c.DocsPath,
		c.Instance, c.TenantID, c.ClientID, c.ExtraAudiences,
		c.ClockSkew, c.JWKSRefreshInterval)
}
