package github

import (
	"context"
	"log/slog"
	"os"

	"gitpr.dev/gitpr/pkg/config"
	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// Client defines the interface for GitHub operations.
// Implementations include APIClient (GitHub REST API) and CLIClient (gh CLI).
type Client interface {
	// IsAuthenticated checks if the client is authenticated with GitHub.
	IsAuthenticated() bool

	// AuthenticatedUser returns the login of the authenticated user.
	AuthenticatedUser(ctx context.Context) (string, error)

	// CreatePR creates a new pull request in the current repository.
	CreatePR(ctx context.Context, opts CreatePROptions) (*PullRequest, error)

	// ListMyPRs lists open pull requests authored by user across all
	// repositories the credentials can see.
	ListMyPRs(ctx context.Context, user string) ([]PullRequest, error)

	// EditPRBody replaces the body of a pull request.
	// repo is "owner/name".
	EditPRBody(ctx context.Context, repo string, number int, body string) error

	// ListCollaborators returns the usernames with access to the current
	// repository, for reviewer selection.
	ListCollaborators(ctx context.Context) ([]string, error)

	// GetPRForBranch returns the open PR whose head is the given branch of
	// the current repository, or an error when none exists.
	GetPRForBranch(ctx context.Context, branch string) (*PullRequest, error)

	// GetCurrentRepo returns the owner and repo name for the current repository.
	GetCurrentRepo(ctx context.Context) (owner, repo string, err error)

	// GetDefaultBranch returns the repository's default branch name.
	GetDefaultBranch(ctx context.Context) (string, error)
}

// Compile-time checks that implementations satisfy the Client interface.
var (
	_ Client = (*APIClient)(nil)
	_ Client = (*CLIClient)(nil)
	_ Client = (*Recorder)(nil)
)

// NewClient creates a GitHub client based on the provided configuration.
//
// Token resolution order:
//  1. GITHUB_TOKEN environment variable
//  2. Token from config file (github.token)
//  3. Cached OAuth token (keychain or file)
//  4. OAuth device flow (if client_id configured)
//  5. Fall back to gh CLI
func NewClient(cfg *config.GitHubConfig, verbose bool) (Client, error) {
	if cfg == nil {
		return nil, prerrors.NewGitHubError("NewClient", "github config is required")
	}

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = cfg.Token
	}

	switch AuthMethod(cfg.AuthMethod) {
	case AuthToken:
		if token == "" {
			return nil, prerrors.NewGitHubError("NewClient",
				"token auth requires the GITHUB_TOKEN env var or github.token in config")
		}
		return NewAPIClient(token, verbose)

	case AuthOAuth:
		return newOAuthClient(cfg, verbose)

	case AuthGHCLI, "":
		// Default: prefer API client if we have a token, fall back to CLI
		if token != "" {
			return NewAPIClient(token, verbose)
		}
		return NewCLIClient(verbose)

	default:
		return nil, prerrors.NewGitHubError("NewClient", "unknown auth method: "+cfg.AuthMethod)
	}
}

// newOAuthClient creates a client using OAuth device flow with token caching.
func newOAuthClient(cfg *config.GitHubConfig, verbose bool) (Client, error) {
	cache := NewTokenCache()

	cachedToken, err := cache.Get()
	if err != nil && verbose {
		slog.Debug("failed to read cached token", "error", err)
	}

	if cachedToken != nil && cachedToken.Valid() {
		if verbose {
			slog.Debug("using cached OAuth token")
		}
		return NewAPIClient(cachedToken.AccessToken, verbose)
	}

	if cfg.ClientID == "" {
		return nil, prerrors.NewGitHubError("NewClient",
			"oauth auth requires github.client_id in config; alternatively use the gh_cli auth method")
	}

	token, err := DeviceAuth(context.Background(), OAuthConfig{ClientID: cfg.ClientID}, os.Stderr)
	if err != nil {
		return nil, err
	}

	if err := cache.Set(token); err != nil && verbose {
		slog.Debug("failed to cache OAuth token", "error", err)
	}

	return NewAPIClient(token.AccessToken, verbose)
}
