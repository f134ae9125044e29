package libm365

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
)

// Resource identifiers the CLI acquires tokens for. SharePoint tokens are
// scoped per tenant host, see SharePointResource.
const (
	ResourceGraph = "https://graph.microsoft.com"
	ResourceFlow  = "https://service.flow.microsoft.com"
)

// SharePointResource derives the token resource for a site URL, e.g.
// https://contoso.sharepoint.com/sites/hr -> https://contoso.sharepoint.com.
func SharePointResource(siteURL string) (string, error) {
	trimmed := strings.TrimPrefix(siteURL, "https://")
	if trimmed == siteURL || trimmed == "" {
		return "", fmt.Errorf("invalid site URL %q: expected https://<tenant>.sharepoint.com/...", siteURL)
	}
	host, _, _ := strings.Cut(trimmed, "/")
	return "https://" + host, nil
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	TenantID string
	ClientID string
}

// TokenCache persists the MSAL token cache on disk so logins survive across
// invocations. It satisfies MSAL's cache.ExportReplace.
type TokenCache struct {
	cachePath string
}

// NewTokenCache creates a file-backed token cache under ~/.m365
func NewTokenCache() (*TokenCache, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".m365")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return &TokenCache{
		cachePath: filepath.Join(configDir, "tokens.json"),
	}, nil
}

// Replace loads the persisted cache into MSAL's in-memory cache.
func (tc *TokenCache) Replace(ctx context.Context, u cache.Unmarshaler, hints cache.ReplaceHints) error {
	data, err := os.ReadFile(tc.cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read token cache: %w", err)
	}
	return u.Unmarshal(data)
}

// Export writes MSAL's in-memory cache back to disk.
func (tc *TokenCache) Export(ctx context.Context, m cache.Marshaler, hints cache.ExportHints) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	if err := os.WriteFile(tc.cachePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Clear removes the persisted cache file.
func (tc *TokenCache) Clear() error {
	if err := os.Remove(tc.cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token cache: %w", err)
	}
	return nil
}

// Authenticator handles device-code authentication and per-resource token
// acquisition through MSAL.
type Authenticator struct {
	client     public.Client
	tokenCache *TokenCache
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.TenantID == "" {
		return nil, fmt.Errorf("client ID and tenant ID are required")
	}

	tokenCache, err := NewTokenCache()
	if err != nil {
		return nil, err
	}

	authority := "https://login.microsoftonline.com/" + cfg.TenantID
	client, err := public.New(cfg.ClientID,
		public.WithAuthority(authority),
		public.WithCache(tokenCache),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MSAL client: %w", err)
	}

	return &Authenticator{
		client:     client,
		tokenCache: tokenCache,
	}, nil
}

func scopesFor(resource string) []string {
	return []string{strings.TrimRight(resource, "/") + "/.default"}
}

// LoginWithDeviceCode runs the device code flow for the given resource,
// printing the verification message and blocking until the user completes
// sign-in in a browser.
func (a *Authenticator) LoginWithDeviceCode(ctx context.Context, resource string) error {
	deviceCode, err := a.client.AcquireTokenByDeviceCode(ctx, scopesFor(resource))
	if err != nil {
		return fmt.Errorf("failed to start device code flow: %w", err)
	}

	fmt.Println(deviceCode.Result.Message)

	if _, err := deviceCode.AuthenticationResult(ctx); err != nil {
		return fmt.Errorf("device code authentication failed: %w", err)
	}

	return nil
}

// GetAccessToken acquires a token for the given resource, silently when
// possible (cached or refreshed via the stored account).
func (a *Authenticator) GetAccessToken(ctx context.Context, resource string) (string, error) {
	accounts, err := a.client.Accounts(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read token cache: %w", err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("not authenticated: please login first")
	}

	result, err := a.client.AcquireTokenSilent(ctx, scopesFor(resource),
		public.WithSilentAccount(accounts[0]))
	if err != nil {
		return "", fmt.Errorf("failed to get token for %s: %w", resource, err)
	}

	return result.AccessToken, nil
}

// IsAuthenticated checks whether a signed-in account exists.
func (a *Authenticator) IsAuthenticated(ctx context.Context) bool {
	accounts, err := a.client.Accounts(ctx)
	return err == nil && len(accounts) > 0
}

// Logout removes all signed-in accounts and the persisted cache.
func (a *Authenticator) Logout(ctx context.Context) error {
	accounts, err := a.client.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to read token cache: %w", err)
	}
	for _, account := range accounts {
		if err := a.client.RemoveAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to remove account %s: %w", account.PreferredUsername, err)
		}
	}
	return a.tokenCache.Clear()
}
