package config

import (
	"os"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// defaultConfigYAML is the scaffolding written by 'git-pr --init'. It spells out
// every supported key so users can edit rather than consult documentation.
const defaultConfigYAML = `# git-pr configuration

jira:
  # Ticket browse URL prefix, e.g. https://company.atlassian.net/browse/
  # Leave empty to omit the tracking line from PR bodies.
  # Fallback: JIRA_URL environment variable.
  url: ""
  # Detect the tag from commit messages; the detected tag is offered at a
  # confirmation prompt (Enter keeps it, typing replaces it).
  auto_detect: true

github:
  # PR author used when resolving related PRs.
  # Fallback: GITHUB_USER environment variable, then the authenticated user.
  user: ""
  # Reviewers offered when the repository exposes no collaborator list.
  default_reviewers: []
  # Authentication: "token", "oauth" or "gh_cli" (default picks automatically).
  auth_method: ""
  # token: ""      # GITHUB_TOKEN environment variable takes precedence
  # client_id: ""  # OAuth app client ID for device-flow login

tags:
  # Regex for detecting tags in commit messages.
  pattern: '\[?[A-Z][A-Z0-9]*-[0-9]+\]?'

related:
  # How a PR is matched against the tag: "substring" (title or body contains
  # the tag) or "tag" (a tag extracted from the title must equal it).
  match_strategy: substring

template:
  markers:
    related_pr_start: "<!-- RELATED_PR -->"
    related_pr_end: "<!-- /RELATED_PR -->"
  fields:
    - name: description
      prompt: "What is this PR doing:"
      kind: multi-line-editor
      required: true
    - name: implementation
      prompt: "Considerations and implementation:"
      kind: multi-line-editor
      required: false
  body: |
    ## What is this PR doing

    {{description}}

    ## Considerations and implementation

    {{implementation}}

    ## Related PRs

    <!-- RELATED_PR -->
    <!-- /RELATED_PR -->
`

// WriteDefault writes the default config file into dir, creating the directory
// if needed. It refuses to overwrite an existing file unless force is set.
// Returns the path of the written file.
func WriteDefault(dir string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", prerrors.NewConfigErrorWithCause("", "failed to create config directory", err)
	}

	path := FilePath(dir)
	if _, err := os.Stat(path); err == nil && !force {
		return "", prerrors.NewConfigError("", "config file already exists at "+path+" (use --force to overwrite)")
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return "", prerrors.NewConfigErrorWithCause("", "failed to write config file", err)
	}

	return path, nil
}
