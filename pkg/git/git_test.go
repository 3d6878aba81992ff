package git

import (
	"errors"
	"strings"
	"testing"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// MockCommandRunner returns canned output keyed by the joined git args.
type MockCommandRunner struct {
	OutputFunc func(dir string, name string, args ...string) (string, error)
	Calls      []string
}

func (m *MockCommandRunner) Output(dir string, name string, args ...string) (string, error) {
	m.Calls = append(m.Calls, name+" "+strings.Join(args, " "))
	if m.OutputFunc != nil {
		return m.OutputFunc(dir, name, args...)
	}
	return "", nil
}

func TestCurrentBranch(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			return "feature/TRACK-42-retries\n", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	branch, err := repo.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch() error = %v", err)
	}
	if branch != "feature/TRACK-42-retries" {
		t.Errorf("CurrentBranch() = %q", branch)
	}
}

func TestCurrentBranchDetached(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			return "HEAD", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	_, err := repo.CurrentBranch()
	if err == nil {
		t.Fatal("detached HEAD should error")
	}
	if !prerrors.IsGitError(err) {
		t.Errorf("error should be a GitError, got %T", err)
	}
}

func TestCurrentBranchNotARepo(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			return "", errors.New("fatal: not a git repository")
		},
	}
	repo := NewRepoWithRunner("", mock)

	if _, err := repo.CurrentBranch(); err == nil {
		t.Fatal("non-repo should error")
	}
}

func TestListCommits(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			return "abc123|[TRACK-42] add retries\ndef456|wip | with pipe", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	commits, err := repo.ListCommits("feature", 0)
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("len(commits) = %d, want 2", len(commits))
	}
	if commits[0].SHA != "abc123" || commits[0].Message != "[TRACK-42] add retries" {
		t.Errorf("commits[0] = %+v", commits[0])
	}
	// A pipe inside the subject stays in the message.
	if commits[1].Message != "wip | with pipe" {
		t.Errorf("commits[1].Message = %q", commits[1].Message)
	}
}

func TestListCommitsEmpty(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			return "", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	if _, err := repo.ListCommits("feature", 0); err == nil {
		t.Fatal("empty log should error")
	}
}

func TestListCommitsLimit(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			return "abc|one", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	if _, err := repo.ListCommits("feature", 5); err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}
	if len(mock.Calls) != 1 || !strings.Contains(mock.Calls[0], "-n 5") {
		t.Errorf("expected -n 5 in git args, got %v", mock.Calls)
	}
}

func TestCommitMessages(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			return "a|newest\nb|older", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	messages, err := repo.CommitMessages("feature", 0)
	if err != nil {
		t.Fatalf("CommitMessages() error = %v", err)
	}
	if len(messages) != 2 || messages[0] != "newest" {
		t.Errorf("messages = %v", messages)
	}
}

func TestListBranches(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			return "main\nfeature/TRACK-42\ndevelopment\n", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	branches, err := repo.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches() error = %v", err)
	}
	if len(branches) != 3 {
		t.Errorf("branches = %v", branches)
	}
}

func TestMergeBaseCandidatesRanking(t *testing.T) {
	aheadCounts := map[string]string{
		"main..feature":        "12",
		"development..feature": "3",
	}

	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			switch args[0] {
			case "branch":
				return "main\ndevelopment\nfeature", nil
			case "rev-list":
				return aheadCounts[args[2]], nil
			}
			return "", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	ranked, err := repo.MergeBaseCandidates("feature")
	if err != nil {
		t.Fatalf("MergeBaseCandidates() error = %v", err)
	}
	// development is closer (3 ahead) than main (12 ahead).
	if len(ranked) != 2 || ranked[0] != "development" || ranked[1] != "main" {
		t.Errorf("ranked = %v, want [development main]", ranked)
	}
}

func TestMergeBaseCandidatesSkipsMissingAndSelf(t *testing.T) {
	mock := &MockCommandRunner{
		OutputFunc: func(dir, name string, args ...string) (string, error) {
			switch args[0] {
			case "branch":
				return "main", nil
			case "rev-list":
				return "4", nil
			}
			return "", nil
		},
	}
	repo := NewRepoWithRunner("", mock)

	ranked, err := repo.MergeBaseCandidates("main")
	if err != nil {
		t.Fatalf("MergeBaseCandidates() error = %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("ranked = %v, want empty", ranked)
	}
}

func TestIsClean(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   bool
	}{
		{"clean", "", true},
		{"dirty", " M pkg/git/git.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockCommandRunner{
				OutputFunc: func(dir, name string, args ...string) (string, error) {
					return tt.status, nil
				},
			}
			repo := NewRepoWithRunner("", mock)

			clean, err := repo.IsClean()
			if err != nil {
				t.Fatalf("IsClean() error = %v", err)
			}
			if clean != tt.want {
				t.Errorf("IsClean() = %v, want %v", clean, tt.want)
			}
		})
	}
}

func TestIsProtected(t *testing.T) {
	for _, branch := range ProtectedBranches {
		if !IsProtected(branch) {
			t.Errorf("IsProtected(%q) = false, want true", branch)
		}
	}
	if IsProtected("feature/TRACK-42") {
		t.Error("feature branch should not be protected")
	}
}
