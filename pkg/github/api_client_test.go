package github

import (
	"testing"
)

func TestNewAPIClientRequiresToken(t *testing.T) {
	_, err := NewAPIClient("", false)
	if err == nil {
		t.Fatal("NewAPIClient with empty token should error")
	}
}

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"ssh", "git@github.com:octo/widgets.git", "octo", "widgets", false},
		{"ssh no suffix", "git@github.com:octo/widgets", "octo", "widgets", false},
		{"https", "https://github.com/octo/widgets.git", "octo", "widgets", false},
		{"https no suffix", "https://github.com/octo/widgets", "octo", "widgets", false},
		{"http", "http://github.com/octo/widgets", "octo", "widgets", false},
		{"invalid ssh", "git@github.com", "", "", true},
		{"invalid https", "https://github.com", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := parseGitHubURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseGitHubURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("parseGitHubURL(%q) = %q, %q; want %q, %q",
					tt.url, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestParsePullRequestURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantRepo   string
		wantNumber int
		wantErr    bool
	}{
		{"https", "https://github.com/octo/widgets/pull/42", "octo/widgets", 42, false},
		{"http", "http://github.com/octo/widgets/pull/7", "octo/widgets", 7, false},
		{"issue url", "https://github.com/octo/widgets/issues/42", "", 0, true},
		{"not a pr url", "https://github.com/octo/widgets", "", 0, true},
		{"bad number", "https://github.com/octo/widgets/pull/abc", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, number, err := parsePullRequestURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePullRequestURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if repo != tt.wantRepo || number != tt.wantNumber {
				t.Errorf("parsePullRequestURL(%q) = %q, %d; want %q, %d",
					tt.url, repo, number, tt.wantRepo, tt.wantNumber)
			}
		})
	}
}

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		name    string
		repo    string
		wantErr bool
	}{
		{"valid", "octo/widgets", false},
		{"missing name", "octo/", true},
		{"missing owner", "/widgets", true},
		{"no slash", "widgets", true},
		{"too many parts", "a/b/c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, name, err := splitRepo(tt.repo)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitRepo(%q) error = %v, wantErr %v", tt.repo, err, tt.wantErr)
			}
			if !tt.wantErr && owner+"/"+name != tt.repo {
				t.Errorf("splitRepo(%q) = %q, %q", tt.repo, owner, name)
			}
		})
	}
}

func TestIsRetryableGHError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"API rate limit exceeded", true},
		{"HTTP 502: bad gateway", true},
		{"connection refused", true},
		{"timeout waiting for response", true},
		{"pull request already exists", false},
		{"not found", false},
	}

	for _, tt := range tests {
		if got := isRetryableGHError(tt.msg); got != tt.want {
			t.Errorf("isRetryableGHError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
