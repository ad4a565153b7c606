package config

import (
	"fmt"
	"net/url"
	"strings"
)

// guidLength is the canonical length of an Azure tenant or client ID
// in its 8-4-4-4-12 form.
const guidLength = 36

// Validate checks that the configuration is valid and complete.
// It returns an error if required fields are missing or values are invalid.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(cfg); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := validateEntra(cfg); err != nil {
		return fmt.Errorf("invalid entra config: %w", err)
	}

	return nil
}

// validateServer validates the server-related fields.
func validateServer(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("SERVER_ADDR is required")
	}

	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT must be positive")
	}

	if cfg.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("SERVER_READ_HEADER_TIMEOUT must be positive")
	}

	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must be positive")
	}

	// 0 is allowed, meaning no timeout
	if cfg.IdleTimeout < 0 {
		return fmt.Errorf("SERVER_IDLE_TIMEOUT must be non-negative")
	}

	if cfg.DocsPath != "" && !strings.HasPrefix(cfg.DocsPath, "/") {
		return fmt.Errorf("DOCS_PATH must start with /")
	}

	return nil
}

// isLocalhost returns true if the host is localhost or a loopback address.
// It handles bare hostnames and host:port combinations.
func isLocalhost(host string) bool {
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "localhost:") || strings.HasPrefix(host, "127.0.0.1:") {
		return true
	}
	return false
}

// validateEntra validates the identity-platform fields.
func validateEntra(cfg *Config) error {
	if cfg.Instance == "" {
		return fmt.Errorf("AZURE_AD_INSTANCE is required")
	}

	parsedURL, err := url.Parse(cfg.Instance)
	if err != nil {
		return fmt.Errorf("invalid AZURE_AD_INSTANCE: %w", err)
	}

	if !parsedURL.IsAbs() {
		return fmt.Errorf("AZURE_AD_INSTANCE must be an absolute URL")
	}

	if parsedURL.Scheme != "https" && parsedURL.Scheme != "http" {
		return fmt.Errorf("AZURE_AD_INSTANCE must use http or https scheme")
	}

	// Plain HTTP is only acceptable against a local test stand-in.
	if parsedURL.Scheme == "http" && !isLocalhost(parsedURL.Host) {
		return fmt.Errorf("AZURE_AD_INSTANCE must use https scheme for non-localhost hosts")
	}

	if cfg.TenantID == "" {
		return fmt.Errorf("AZURE_TENANT_ID is required")
	}

	if len(cfg.TenantID) != guidLength {
		return fmt.Errorf("AZURE_TENANT_ID must be a directory (tenant) ID GUID")
	}

	if cfg.ClientID == "" {
		return fmt.Errorf("AZURE_CLIENT_ID is required")
	}

	if len(cfg.ClientID) != guidLength {
		return fmt.Errorf("AZURE_CLIENT_ID must be an application (client) ID GUID")
	}

	if cfg.ClockSkew < 0 {
		return fmt.Errorf("AZURE_CLOCK_SKEW must be non-negative")
	}

	if cfg.JWKSRefreshInterval <= 0 {
		return fmt.Errorf("AZURE_JWKS_REFRESH_INTERVAL must be positive")
	}

	return nil
}
