// Command token acquires an app-only access token from Microsoft Entra ID
// using the OAuth2 client credentials flow, for exercising the API from
// the command line:
//
//	curl -H "$(go run ./cmd/token -header)" http://localhost:8080/token
//
// Configuration comes from the same environment variables as the server
// (a .env file in the working directory is honored), plus the client
// secret of the app registration:
//
//	AZURE_TENANT_ID      directory (tenant) ID
//	AZURE_CLIENT_ID      application (client) ID
//	AZURE_CLIENT_SECRET  client secret for the app registration
//
// By default the token is requested for the api://<client-id>/.default
// scope, which resolves to the app roles granted to the application
// itself. Tokens issued this way carry roles but no scp claim.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/janisto/entra-playground/internal/config"
	applog "github.com/janisto/entra-playground/internal/platform/logging"
)

func main() {
	// Stdout carries the token alone so the command composes with curl
	// and shell substitution; all diagnostics go to stderr.
	applog.UseStderr()

	scope := flag.String("scope", "", "OAuth2 scope to request (defaults to api://<client-id>/.default)")
	header := flag.Bool("header", false, "print a ready-to-paste Authorization header instead of the bare token")
	flag.Parse()

	// Local convenience; deployed environments configure the process
	// environment directly.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(ctx, "invalid configuration", err)
	}
	secret := os.Getenv("AZURE_CLIENT_SECRET")
	if secret == "" {
		applog.LogFatal(ctx, "AZURE_CLIENT_SECRET is required", nil)
	}

	requested := *scope
	if requested == "" {
		requested = defaultScope(cfg.ClientID)
	}

	token, err := acquireToken(ctx, cfg, secret, requested)
	if err != nil {
		applog.LogFatal(ctx, "token acquisition failed", err, zap.String("scope", requested))
	}
	applog.LogInfo(ctx, "token acquired",
		zap.String("scope", requested),
		zap.Time("expiresOn", token.ExpiresOn),
	)

	fmt.Println(formatToken(token.Token, *header))
}

// defaultScope is the .default scope of the API's own app registration.
func defaultScope(clientID string) string {
	return "api://" + clientID + "/.default"
}

func formatToken(token string, header bool) string {
	if header {
		return "Authorization: Bearer " + token
	}
	return token
}

// acquireToken runs the client credentials flow against the configured
// cloud instance. Sovereign clouds work by pointing AZURE_AD_INSTANCE at
// the matching authority host.
func acquireToken(ctx context.Context, cfg *config.Config, secret, scope string) (azcore.AccessToken, error) {
	cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, secret, &azidentity.ClientSecretCredentialOptions{
		ClientOptions: azcore.ClientOptions{
			Cloud: cloud.Configuration{ActiveDirectoryAuthorityHost: cfg.Instance},
		},
	})
	if err != nil {
		return azcore.AccessToken{}, fmt.Errorf("build credential: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scope}})
}
