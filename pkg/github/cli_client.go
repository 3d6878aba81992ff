package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// CLIClient implements the Client interface using the gh CLI.
// It is the fallback when no API token is available: most users have gh
// installed and already authenticated.
type CLIClient struct {
	verbose bool
	token   string // Optional token for GITHUB_TOKEN env override
	logger  *slog.Logger
}

// CLIClientOption is a functional option for configuring CLIClient.
type CLIClientOption func(*CLIClient)

// WithToken sets a token to be used via GITHUB_TOKEN environment variable.
func WithToken(token string) CLIClientOption {
	return func(c *CLIClient) {
		c.token = token
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) CLIClientOption {
	return func(c *CLIClient) {
		c.logger = logger
	}
}

// NewCLIClient creates a new gh CLI-based GitHub client.
func NewCLIClient(verbose bool, opts ...CLIClientOption) (*CLIClient, error) {
	c := &CLIClient{
		verbose: verbose,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if _, err := exec.LookPath("gh"); err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("NewCLIClient", "gh CLI not found in PATH", err)
	}

	return c, nil
}

// IsAuthenticated checks if gh CLI is authenticated with GitHub.
func (c *CLIClient) IsAuthenticated() bool {
	cmd := exec.Command("gh", "auth", "status")
	if c.token != "" {
		cmd.Env = append(os.Environ(), "GITHUB_TOKEN="+c.token)
	}
	return cmd.Run() == nil
}

// AuthenticatedUser returns the login of the authenticated user.
func (c *CLIClient) AuthenticatedUser(ctx context.Context) (string, error) {
	output, err := c.runGH(ctx, "api", "user", "--jq", ".login")
	if err != nil {
		return "", prerrors.NewGitHubErrorWithCause("AuthenticatedUser", "failed to get authenticated user", err)
	}
	return strings.TrimSpace(output), nil
}

// CreatePR creates a new pull request using gh pr create.
func (c *CLIClient) CreatePR(ctx context.Context, opts CreatePROptions) (*PullRequest, error) {
	if opts.Title == "" {
		return nil, prerrors.NewGitHubError("CreatePR", "title is required")
	}

	// gh requires both --title and --body when running non-interactively,
	// so --body is always passed even when empty.
	args := []string{"pr", "create", "--title", opts.Title, "--body", opts.Body}
	if opts.HeadBranch != "" {
		args = append(args, "--head", opts.HeadBranch)
	}
	if opts.BaseBranch != "" {
		args = append(args, "--base", opts.BaseBranch)
	}
	for _, reviewer := range opts.Reviewers {
		args = append(args, "--reviewer", reviewer)
	}

	c.logDebug("creating PR", "args", args)

	output, err := c.runGH(ctx, args...)
	if err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("CreatePR", "failed to create PR", err)
	}

	// gh pr create outputs the PR URL on success.
	prURL := strings.TrimSpace(output)
	c.logDebug("PR created", "url", prURL)

	repo, number, parseErr := parsePullRequestURL(prURL)
	if parseErr != nil {
		c.logDebug("could not parse PR URL, returning minimal info", "url", prURL, "error", parseErr)
		return &PullRequest{URL: prURL, Title: opts.Title, Body: opts.Body, State: "open"}, nil
	}

	return &PullRequest{
		Repo:   repo,
		Number: number,
		Title:  opts.Title,
		Body:   opts.Body,
		State:  "open",
		URL:    prURL,
	}, nil
}

// ListMyPRs lists open pull requests authored by user across all
// repositories using gh search.
func (c *CLIClient) ListMyPRs(ctx context.Context, user string) ([]PullRequest, error) {
	if user == "" {
		var err error
		user, err = c.AuthenticatedUser(ctx)
		if err != nil {
			return nil, err
		}
	}

	args := []string{
		"search", "prs",
		"--author", user,
		"--state", "open",
		"--limit", "100",
		"--json", "number,title,body,state,url,repository",
	}

	c.logDebug("searching PRs", "author", user)

	output, err := c.runGH(ctx, args...)
	if err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("ListMyPRs", "failed to search PRs", err)
	}

	var responses []ghPRResponse
	if err := json.Unmarshal([]byte(output), &responses); err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("ListMyPRs", "failed to parse search response", err)
	}

	prs := make([]PullRequest, 0, len(responses))
	for _, resp := range responses {
		prs = append(prs, resp.toPullRequest())
	}

	return prs, nil
}

// EditPRBody replaces the body of a pull request. repo is "owner/name".
func (c *CLIClient) EditPRBody(ctx context.Context, repo string, number int, body string) error {
	if _, _, err := splitRepo(repo); err != nil {
		return err
	}

	args := []string{
		"pr", "edit", strconv.Itoa(number),
		"--repo", repo,
		"--body", body,
	}

	c.logDebug("editing PR body", "repo", repo, "number", number)

	if _, err := c.runGH(ctx, args...); err != nil {
		return prerrors.NewGitHubErrorWithCause("EditPRBody",
			fmt.Sprintf("failed to edit PR %s#%d", repo, number), err)
	}

	return nil
}

// ListCollaborators returns the usernames with access to the current repository.
func (c *CLIClient) ListCollaborators(ctx context.Context) ([]string, error) {
	owner, repo, err := c.GetCurrentRepo(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("repos/%s/%s/collaborators", owner, repo)
	args := []string{"api", endpoint, "--paginate", "--jq", ".[].login"}

	c.logDebug("listing collaborators", "endpoint", endpoint)

	output, err := c.runGH(ctx, args...)
	if err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("ListCollaborators", "failed to list collaborators", err)
	}

	var logins []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			logins = append(logins, line)
		}
	}

	return logins, nil
}

// GetPRForBranch returns the open PR whose head is the given branch of the
// current repository.
func (c *CLIClient) GetPRForBranch(ctx context.Context, branch string) (*PullRequest, error) {
	if branch == "" {
		return nil, prerrors.NewGitHubError("GetPRForBranch", "branch name is required")
	}

	args := []string{
		"pr", "view", branch,
		"--json", "number,title,body,state,url,headRefName",
	}

	c.logDebug("finding PR for branch", "branch", branch)

	output, err := c.runGH(ctx, args...)
	if err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("GetPRForBranch", "no open PR found for branch "+branch, err)
	}

	var resp ghPRResponse
	if err := json.Unmarshal([]byte(output), &resp); err != nil {
		return nil, prerrors.NewGitHubErrorWithCause("GetPRForBranch", "failed to parse PR response", err)
	}

	pr := resp.toPullRequest()
	if pr.Repo == "" {
		// gh pr view omits the repository field; fill it in from repo view.
		owner, repo, repoErr := c.GetCurrentRepo(ctx)
		if repoErr == nil {
			pr.Repo = owner + "/" + repo
		}
	}

	return &pr, nil
}

// GetCurrentRepo returns the owner and repo name for the current repository.
func (c *CLIClient) GetCurrentRepo(ctx context.Context) (owner, repo string, err error) {
	args := []string{"repo", "view", "--json", "owner,name"}

	c.logDebug("getting current repo")

	output, err := c.runGH(ctx, args...)
	if err != nil {
		return "", "", prerrors.NewGitHubErrorWithCause("GetCurrentRepo", "failed to get repo info", err)
	}

	var resp ghRepoResponse
	if err := json.Unmarshal([]byte(output), &resp); err != nil {
		return "", "", prerrors.NewGitHubErrorWithCause("GetCurrentRepo", "failed to parse repo response", err)
	}

	return resp.Owner.Login, resp.Name, nil
}

// GetDefaultBranch returns the repository's default branch name.
func (c *CLIClient) GetDefaultBranch(ctx context.Context) (string, error) {
	args := []string{"repo", "view", "--json", "defaultBranchRef"}

	c.logDebug("getting default branch")

	output, err := c.runGH(ctx, args...)
	if err != nil {
		return "", prerrors.NewGitHubErrorWithCause("GetDefaultBranch", "failed to get default branch", err)
	}

	var resp ghRepoResponse
	if err := json.Unmarshal([]byte(output), &resp); err != nil {
		return "", prerrors.NewGitHubErrorWithCause("GetDefaultBranch", "failed to parse repo response", err)
	}

	return resp.DefaultBranchRef.Name, nil
}

// runGH executes a gh command and returns its output.
func (c *CLIClient) runGH(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)

	if c.token != "" {
		cmd.Env = append(os.Environ(), "GITHUB_TOKEN="+c.token)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		ghErr := prerrors.NewGitHubError("gh", errMsg)
		if isRetryableGHError(errMsg) {
			ghErr.Retryable = true
		}
		return "", ghErr
	}

	return stdout.String(), nil
}

// logDebug logs a debug message if verbose mode is enabled.
func (c *CLIClient) logDebug(msg string, args ...any) {
	if c.verbose {
		c.logger.Debug(msg, args...)
	}
}

// ghRepoResponse represents the JSON response from gh repo view.
type ghRepoResponse struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	DefaultBranchRef struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`
}

// isRetryableGHError checks if a gh CLI error message indicates a retryable error.
func isRetryableGHError(errMsg string) bool {
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"network",
		"502",
		"503",
		"504",
	}

	lowerErr := strings.ToLower(errMsg)
	for _, pattern := range retryablePatterns {
		if strings.Contains(lowerErr, pattern) {
			return true
		}
	}
	return false
}
