// Package git wraps the git CLI for the repository inspection this tool
// needs: branch discovery, commit listing, and base branch ranking.
package git

import (
	"bytes"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// ProtectedBranches are branches this tool refuses to open a PR from.
var ProtectedBranches = []string{"master", "main", "development", "stage", "production"}

// Commit is one commit on a branch.
type Commit struct {
	SHA     string
	Message string
}

// CommandRunner abstracts git invocation for testing.
type CommandRunner interface {
	Output(dir string, name string, args ...string) (string, error)
}

// RealCommandRunner executes commands with os/exec.
type RealCommandRunner struct{}

// Output runs the command in dir and returns trimmed stdout.
func (r *RealCommandRunner) Output(dir string, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), msg)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}

// Repo inspects the git repository in dir (empty = current directory).
type Repo struct {
	dir    string
	runner CommandRunner
}

// NewRepo creates a Repo for the current working directory.
func NewRepo() *Repo {
	return &Repo{runner: &RealCommandRunner{}}
}

// NewRepoWithRunner creates a Repo with a custom CommandRunner (for testing).
func NewRepoWithRunner(dir string, runner CommandRunner) *Repo {
	return &Repo{dir: dir, runner: runner}
}

// CurrentBranch returns the checked-out branch name.
// A detached HEAD is an error: there is no branch to open a PR from.
func (r *Repo) CurrentBranch() (string, error) {
	out, err := r.runner.Output(r.dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", prerrors.NewGitErrorWithCause("CurrentBranch", "not a git repository or no commits yet", err)
	}

	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", prerrors.NewGitError("CurrentBranch", "HEAD is detached, check out a branch first")
	}
	return branch, nil
}

// IsProtected reports whether branch is one PRs must not be opened from.
func IsProtected(branch string) bool {
	for _, p := range ProtectedBranches {
		if branch == p {
			return true
		}
	}
	return false
}

// ListCommits returns the commits reachable from branch, newest first,
// capped at limit (0 = no cap).
func (r *Repo) ListCommits(branch string, limit int) ([]Commit, error) {
	args := []string{"log", "--format=%H|%s"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	args = append(args, branch)

	out, err := r.runner.Output(r.dir, "git", args...)
	if err != nil {
		return nil, prerrors.NewGitErrorWithCause("ListCommits", "failed to list commits on "+branch, err)
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			continue
		}
		commits = append(commits, Commit{SHA: parts[0], Message: parts[1]})
	}

	if len(commits) == 0 {
		return nil, prerrors.NewGitError("ListCommits", "no commits found on "+branch)
	}

	return commits, nil
}

// CommitMessages returns just the messages of ListCommits, newest first.
func (r *Repo) CommitMessages(branch string, limit int) ([]string, error) {
	commits, err := r.ListCommits(branch, limit)
	if err != nil {
		return nil, err
	}
	messages := make([]string, len(commits))
	for i, c := range commits {
		messages[i] = c.Message
	}
	return messages, nil
}

// ListBranches returns the local branch names.
func (r *Repo) ListBranches() ([]string, error) {
	out, err := r.runner.Output(r.dir, "git", "branch", "--format=%(refname:short)")
	if err != nil {
		return nil, prerrors.NewGitErrorWithCause("ListBranches", "failed to list branches", err)
	}

	var branches []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// AheadCount returns how many commits branch has that candidate does not.
func (r *Repo) AheadCount(branch, candidate string) (int, error) {
	out, err := r.runner.Output(r.dir, "git", "rev-list", "--count", candidate+".."+branch)
	if err != nil {
		return 0, prerrors.NewGitErrorWithCause("AheadCount",
			fmt.Sprintf("failed to count commits of %s not on %s", branch, candidate), err)
	}

	count, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, prerrors.NewGitErrorWithCause("AheadCount", "unexpected rev-list output", err)
	}
	return count, nil
}

// baseCandidate pairs a branch with its distance from the working branch.
type baseCandidate struct {
	branch string
	ahead  int
}

// MergeBaseCandidates ranks the long-lived branches branch could target,
// best first. A branch the working branch is fewer commits ahead of is a
// closer base. Candidates that do not exist locally are skipped.
func (r *Repo) MergeBaseCandidates(branch string) ([]string, error) {
	branches, err := r.ListBranches()
	if err != nil {
		return nil, err
	}

	local := make(map[string]bool, len(branches))
	for _, b := range branches {
		local[b] = true
	}

	var candidates []baseCandidate
	for _, p := range ProtectedBranches {
		if !local[p] || p == branch {
			continue
		}
		ahead, err := r.AheadCount(branch, p)
		if err != nil {
			continue
		}
		candidates = append(candidates, baseCandidate{branch: p, ahead: ahead})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ahead < candidates[j].ahead
	})

	ranked := make([]string, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.branch
	}
	return ranked, nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (r *Repo) IsClean() (bool, error) {
	out, err := r.runner.Output(r.dir, "git", "status", "--porcelain")
	if err != nil {
		return false, prerrors.NewGitErrorWithCause("IsClean", "failed to check working tree status", err)
	}
	return strings.TrimSpace(out) == "", nil
}
