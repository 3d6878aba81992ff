// Package github provides the GitHub collaborator for git-pr.
//
// This package implements the Client interface for interacting with GitHub,
// supporting operations like creating PRs, listing the user's open PRs across
// repositories, and rewriting PR bodies. The primary implementation uses the
// REST API; a gh CLI implementation is the fallback when no token is available.
package github

import "fmt"

// AuthMethod represents the authentication method for GitHub.
type AuthMethod string

const (
	// AuthToken uses a personal access token for authentication.
	AuthToken AuthMethod = "token"
	// AuthOAuth uses OAuth device flow for authentication.
	AuthOAuth AuthMethod = "oauth"
	// AuthGHCLI uses the gh CLI's stored credentials.
	AuthGHCLI AuthMethod = "gh_cli"
)

// PullRequest represents pull request information.
type PullRequest struct {
	Repo   string `json:"repo"` // "owner/name"
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"` // "open", "closed", "merged"
	URL    string `json:"url"`
}

// IsOpen reports whether the PR is open.
func (pr *PullRequest) IsOpen() bool {
	return pr.State == "open"
}

// Path returns the canonical resource path, e.g. "owner/repo/pull/42".
func (pr *PullRequest) Path() string {
	return fmt.Sprintf("%s/pull/%d", pr.Repo, pr.Number)
}

// CreatePROptions holds options for creating a pull request.
type CreatePROptions struct {
	Title      string   // PR title (required)
	Body       string   // PR body/description
	HeadBranch string   // Source branch (defaults to current branch)
	BaseBranch string   // Target branch (defaults to repo default branch)
	Reviewers  []string // Requested reviewers
}

// ghPRResponse represents the JSON response from gh pr view/list.
// Used internally for JSON parsing before converting to PullRequest.
type ghPRResponse struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	State       string `json:"state"`
	URL         string `json:"url"`
	HeadRefName string `json:"headRefName"`
	Repository  struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
}

// toPullRequest converts a ghPRResponse to a PullRequest.
func (r *ghPRResponse) toPullRequest() PullRequest {
	pr := PullRequest{
		Repo:   r.Repository.NameWithOwner,
		Number: r.Number,
		Title:  r.Title,
		Body:   r.Body,
		State:  normalizeState(r.State),
		URL:    r.URL,
	}
	return pr
}

// normalizeState maps gh CLI state spellings (OPEN, CLOSED, MERGED) onto the
// lowercase forms the REST API uses.
func normalizeState(state string) string {
	switch state {
	case "OPEN":
		return "open"
	case "CLOSED":
		return "closed"
	case "MERGED":
		return "merged"
	default:
		return state
	}
}
