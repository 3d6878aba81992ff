package github

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// APIClient implements Client using the GitHub REST API.
type APIClient struct {
	client  *gh.Client
	verbose bool
	logger  *slog.Logger
}

// APIClientOption is a functional option for configuring APIClient.
type APIClientOption func(*APIClient)

// WithAPILogger sets a custom logger for the API client.
func WithAPILogger(logger *slog.Logger) APIClientOption {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// NewAPIClient creates a GitHub API client with the given token.
func NewAPIClient(token string, verbose bool, opts ...APIClientOption) (*APIClient, error) {
	if token == "" {
		return nil, prerrors.NewGitHubError("NewAPIClient", "token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	client := &APIClient{
		client:  gh.NewClient(tc),
		verbose: verbose,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// IsAuthenticated checks if the client is authenticated with GitHub.
func (c *APIClient) IsAuthenticated() bool {
	ctx := context.Background()
	_, _, err := c.client.Users.Get(ctx, "")
	return err == nil
}

// AuthenticatedUser returns the login of the authenticated user.
func (c *APIClient) AuthenticatedUser(ctx context.Context) (string, error) {
	user, resp, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", toGitHubError("AuthenticatedUser", resp, err)
	}
	return user.GetLogin(), nil
}

// CreatePR creates a new pull request in the current repository.
func (c *APIClient) CreatePR(ctx context.Context, opts CreatePROptions) (*PullRequest, error) {
	if opts.Title == "" {
		return nil, prerrors.NewGitHubError("CreatePR", "title is required")
	}

	owner, repo, err := c.GetCurrentRepo(ctx)
	if err != nil {
		return nil, err
	}

	base := opts.BaseBranch
	if base == "" {
		base, err = c.GetDefaultBranch(ctx)
		if err != nil {
			return nil, err
		}
	}

	head := opts.HeadBranch
	if head == "" {
		head, err = getCurrentBranch()
		if err != nil {
			return nil, prerrors.NewGitHubErrorWithCause("CreatePR", "failed to get current branch", err)
		}
	}

	c.logDebug("creating PR", "owner", owner, "repo", repo, "head", head, "base", base)

	newPR := &gh.NewPullRequest{
		Title: gh.Ptr(opts.Title),
		Head:  gh.Ptr(head),
		Base:  gh.Ptr(base),
		Body:  gh.Ptr(opts.Body),
	}

	pr, resp, err := c.client.PullRequests.Create(ctx, owner, repo, newPR)
	if err != nil {
		return nil, toGitHubError("CreatePR", resp, err)
	}

	if len(opts.Reviewers) > 0 {
		_, _, reviewErr := c.client.PullRequests.RequestReviewers(ctx, owner, repo, pr.GetNumber(), gh.ReviewersRequest{
			Reviewers: opts.Reviewers,
		})
		if reviewErr != nil {
			// The PR exists at this point; a failed reviewer request is not fatal.
			c.logDebug("failed to request reviewers", "error", reviewErr)
		}
	}

	return pullRequestFromGitHub(owner+"/"+repo, pr), nil
}

// ListMyPRs lists open pull requests authored by user across all repositories
// the token can see, using the search API.
func (c *APIClient) ListMyPRs(ctx context.Context, user string) ([]PullRequest, error) {
	if user == "" {
		var err error
		user, err = c.AuthenticatedUser(ctx)
		if err != nil {
			return nil, err
		}
	}

	query := fmt.Sprintf("is:pr is:open author:%s", user)
	c.logDebug("searching PRs", "query", query)

	var result []PullRequest
	opts := &gh.SearchOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		found, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, toGitHubError("ListMyPRs", resp, err)
		}

		for _, issue := range found.Issues {
			if !issue.IsPullRequest() {
				continue
			}
			repo, number, parseErr := parsePullRequestURL(issue.GetHTMLURL())
			if parseErr != nil {
				c.logDebug("skipping unparseable search result", "url", issue.GetHTMLURL())
				continue
			}
			result = append(result, PullRequest{
				Repo:   repo,
				Number: number,
				Title:  issue.GetTitle(),
				Body:   issue.GetBody(),
				State:  normalizeState(issue.GetState()),
				URL:    issue.GetHTMLURL(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return result, nil
}

// EditPRBody replaces the body of a pull request. repo is "owner/name".
func (c *APIClient) EditPRBody(ctx context.Context, repo string, number int, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	c.logDebug("editing PR body", "repo", repo, "number", number)

	_, resp, err := c.client.PullRequests.Edit(ctx, owner, name, number, &gh.PullRequest{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return toGitHubError("EditPRBody", resp, err)
	}
	return nil
}

// ListCollaborators returns the usernames with access to the current repository.
func (c *APIClient) ListCollaborators(ctx context.Context) ([]string, error) {
	owner, repo, err := c.GetCurrentRepo(ctx)
	if err != nil {
		return nil, err
	}

	c.logDebug("listing collaborators", "owner", owner, "repo", repo)

	var logins []string
	opts := &gh.ListCollaboratorsOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		users, resp, err := c.client.Repositories.ListCollaborators(ctx, owner, repo, opts)
		if err != nil {
			return nil, toGitHubError("ListCollaborators", resp, err)
		}
		for _, u := range users {
			logins = append(logins, u.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return logins, nil
}

// GetPRForBranch returns the open PR whose head is the given branch of the
// current repository.
func (c *APIClient) GetPRForBranch(ctx context.Context, branch string) (*PullRequest, error) {
	if branch == "" {
		return nil, prerrors.NewGitHubError("GetPRForBranch", "branch name is required")
	}

	owner, repo, err := c.GetCurrentRepo(ctx)
	if err != nil {
		return nil, err
	}

	c.logDebug("finding PR for branch", "branch", branch)

	opts := &gh.PullRequestListOptions{
		State: "open",
		Head:  owner + ":" + branch,
	}
	prs, resp, err := c.client.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, toGitHubError("GetPRForBranch", resp, err)
	}
	if len(prs) == 0 {
		return nil, prerrors.NewGitHubError("GetPRForBranch", "no open PR found for branch "+branch)
	}

	return pullRequestFromGitHub(owner+"/"+repo, prs[0]), nil
}

// GetCurrentRepo returns the owner and repo name for the current repository,
// parsed from the origin remote URL.
func (c *APIClient) GetCurrentRepo(ctx context.Context) (owner, repo string, err error) {
	owner, repo, err = parseGitRemote()
	if err != nil {
		return "", "", prerrors.NewGitHubErrorWithCause("GetCurrentRepo", "failed to parse git remote", err)
	}
	return owner, repo, nil
}

// GetDefaultBranch returns the repository's default branch name.
func (c *APIClient) GetDefaultBranch(ctx context.Context) (string, error) {
	owner, repo, err := c.GetCurrentRepo(ctx)
	if err != nil {
		return "", err
	}

	c.logDebug("getting default branch")

	repository, resp, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", toGitHubError("GetDefaultBranch", resp, err)
	}

	return repository.GetDefaultBranch(), nil
}

func (c *APIClient) logDebug(msg string, args ...any) {
	if c.verbose {
		c.logger.Debug(msg, args...)
	}
}

// Helper functions

func pullRequestFromGitHub(repo string, pr *gh.PullRequest) *PullRequest {
	return &PullRequest{
		Repo:   repo,
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		State:  normalizeState(pr.GetState()),
		URL:    pr.GetHTMLURL(),
	}
}

func toGitHubError(operation string, resp *gh.Response, err error) error {
	if resp != nil && resp.StatusCode > 0 {
		return prerrors.NewGitHubErrorWithStatus(operation, resp.StatusCode, err.Error())
	}
	return prerrors.NewGitHubErrorWithCause(operation, "API request failed", err)
}

// splitRepo splits "owner/name" into its parts.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", prerrors.NewGitHubError("splitRepo", "invalid repository "+repo+", expected owner/name")
	}
	return parts[0], parts[1], nil
}

// parsePullRequestURL extracts "owner/name" and the PR number from an
// https://github.com/owner/name/pull/N URL.
func parsePullRequestURL(url string) (repo string, number int, err error) {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	parts := strings.Split(url, "/")
	// host/owner/name/pull/N
	if len(parts) < 5 || parts[3] != "pull" {
		return "", 0, prerrors.NewGitHubError("parsePullRequestURL", "unexpected PR URL format")
	}

	if _, err := fmt.Sscanf(parts[4], "%d", &number); err != nil {
		return "", 0, prerrors.NewGitHubError("parsePullRequestURL", "invalid PR number in URL")
	}

	return parts[1] + "/" + parts[2], number, nil
}

func parseGitRemote() (owner, repo string, err error) {
	cmd := exec.Command("git", "remote", "get-url", "origin")
	output, err := cmd.Output()
	if err != nil {
		return "", "", err
	}

	url := strings.TrimSpace(string(output))
	return parseGitHubURL(url)
}

func parseGitHubURL(url string) (owner, repo string, err error) {
	// SSH format: git@github.com:owner/repo.git
	if strings.HasPrefix(url, "git@") {
		parts := strings.Split(url, ":")
		if len(parts) != 2 {
			return "", "", prerrors.NewGitHubError("parseGitHubURL", "invalid SSH URL format")
		}
		path := strings.TrimSuffix(parts[1], ".git")
		segments := strings.Split(path, "/")
		if len(segments) != 2 {
			return "", "", prerrors.NewGitHubError("parseGitHubURL", "invalid repository path")
		}
		return segments[0], segments[1], nil
	}

	// HTTPS format: https://github.com/owner/repo.git
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimSuffix(url, ".git")

	parts := strings.Split(url, "/")
	if len(parts) < 3 {
		return "", "", prerrors.NewGitHubError("parseGitHubURL", "invalid HTTPS URL format")
	}

	return parts[1], parts[2], nil
}

func getCurrentBranch() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
