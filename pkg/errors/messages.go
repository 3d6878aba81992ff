package errors

import (
	"fmt"
	"strings"
)

// FormatUserError returns a user-friendly error message with actionable guidance.
// It examines the error chain and provides context-appropriate help text.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	if IsCancelled(err) {
		return "Cancelled."
	}

	// Check for ConfigError
	var configErr *ConfigError
	if As(err, &configErr) {
		return formatConfigError(configErr)
	}

	// Check for GitError
	var gitErr *GitError
	if As(err, &gitErr) {
		return formatGitError(gitErr)
	}

	// Check for GitHubError
	var ghErr *GitHubError
	if As(err, &ghErr) {
		return formatGitHubError(ghErr)
	}

	// Check for TemplateError
	var tmplErr *TemplateError
	if As(err, &tmplErr) {
		return formatTemplateError(tmplErr)
	}

	// Default: return the error message as-is
	return err.Error()
}

// formatConfigError formats a ConfigError with actionable guidance.
func formatConfigError(err *ConfigError) string {
	var b strings.Builder

	if err.Field != "" {
		fmt.Fprintf(&b, "Configuration error in '%s': %s\n", err.Field, err.Message)
	} else {
		fmt.Fprintf(&b, "Configuration error: %s\n", err.Message)
	}

	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Check your config file: ~/.config/git-pr/config.yaml\n")
	b.WriteString("  • Run 'git-pr --init' to write a fresh default config\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatGitError formats a GitError with actionable guidance.
func formatGitError(err *GitError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Git error during %s: %s\n", err.Operation, err.Message)
	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Run git-pr from inside a git repository, on a feature branch\n")
	b.WriteString("  • Make sure the branch has at least one commit not on the base branch\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatGitHubError formats a GitHubError with actionable guidance based on status code.
func formatGitHubError(err *GitHubError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GitHub error during %s: %s\n", err.Operation, err.Message)

	switch err.StatusCode {
	case 401:
		b.WriteString("\nAuthentication failed. To fix this:\n")
		b.WriteString("  • Set the GITHUB_TOKEN environment variable\n")
		b.WriteString("  • Or run 'gh auth login' to authenticate the gh CLI\n")
	case 403:
		b.WriteString("\nPermission denied or rate limited. To fix this:\n")
		b.WriteString("  • Check that your token has the 'repo' scope\n")
		b.WriteString("  • If rate limited, wait a few minutes and retry\n")
	case 404:
		b.WriteString("\nResource not found. To fix this:\n")
		b.WriteString("  • Check that the repository exists and you have access\n")
	case 422:
		b.WriteString("\nGitHub rejected the request. Common causes:\n")
		b.WriteString("  • A PR for this branch already exists\n")
		b.WriteString("  • The head branch has not been pushed to the remote\n")
	}

	if err.Retryable {
		b.WriteString("\nThis error is transient; re-running 'git-pr --update-only' is safe.\n")
	}

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatTemplateError formats a TemplateError with actionable guidance.
func formatTemplateError(err *TemplateError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Template error: %s\n", err.Message)
	if err.Marker != "" {
		fmt.Fprintf(&b, "\nThe template body must contain the marker %q exactly once.\n", err.Marker)
		b.WriteString("Check template.body and template.markers in your config file.\n")
	}

	return b.String()
}
