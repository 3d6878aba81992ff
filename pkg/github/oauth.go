package github

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cli/oauth"
	"golang.org/x/oauth2"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

const (
	// DefaultGitHubHost is the default GitHub API host.
	DefaultGitHubHost = "https://github.com"

	// DefaultScopes are the OAuth scopes required for PR operations.
	DefaultScopes = "repo"
)

// OAuthConfig holds OAuth configuration for device flow authentication.
type OAuthConfig struct {
	ClientID string   // OAuth app client ID (required for device flow)
	Scopes   []string // OAuth scopes to request
	HostURL  string   // GitHub host URL (default: github.com)
}

// DeviceAuth performs OAuth device flow authentication.
// It displays a code for the user to enter at GitHub's verification URL,
// then polls until authorization completes.
func DeviceAuth(ctx context.Context, cfg OAuthConfig, stdout io.Writer) (*oauth2.Token, error) {
	if cfg.ClientID == "" {
		return nil, prerrors.NewGitHubError("DeviceAuth", "client_id is required for OAuth device flow")
	}

	hostURL := cfg.HostURL
	if hostURL == "" {
		hostURL = DefaultGitHubHost
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{DefaultScopes}
	}

	host, err := oauth.NewGitHubHost(hostURL)
	if err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("DeviceAuth", "invalid GitHub host URL", err)
	}

	flow := &oauth.Flow{
		Host:     host,
		ClientID: cfg.ClientID,
		Scopes:   scopes,
		Stdout:   stdout,
		Stdin:    os.Stdin,
		DisplayCode: func(code, verificationURL string) error {
			fmt.Fprintf(stdout, "\n! First, copy your one-time code: %s\n", code)
			fmt.Fprintf(stdout, "- Press Enter to open %s in your browser...\n", verificationURL)
			return nil
		},
	}

	// cli/oauth handles polling automatically.
	token, err := flow.DeviceFlow()
	if err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("DeviceAuth", "device flow failed", err)
	}

	return &oauth2.Token{
		AccessToken: token.Token,
		TokenType:   token.Type,
	}, nil
}
