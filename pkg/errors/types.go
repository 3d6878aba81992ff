// Package errors provides typed errors for the git-pr project.
//
// This package defines domain-specific error types that provide structured
// error information for different subsystems (config, git, GitHub, template,
// prompting). All error types implement the standard error interface and
// support errors.Is() and errors.As() from the standard library and
// cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrCancelled is returned when the user aborts an interactive prompt.
// Cancellation is a clean exit, not a failure.
var ErrCancelled = errors.New("operation cancelled")

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Field   string // Which config field has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with an underlying cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// GitError represents local git repository errors.
type GitError struct {
	Operation string // e.g., "ListCommits", "CurrentBranch"
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *GitError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("git %s failed: %s", e.Operation, e.Message)
	}
	return "git error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *GitError) Unwrap() error {
	return e.Cause
}

// NewGitError creates a new GitError.
func NewGitError(operation, message string) *GitError {
	return &GitError{Operation: operation, Message: message}
}

// NewGitErrorWithCause creates a new GitError with an underlying cause.
func NewGitErrorWithCause(operation, message string, cause error) *GitError {
	return &GitError{Operation: operation, Message: message, Cause: cause}
}

// GitHubError represents GitHub API/CLI errors.
type GitHubError struct {
	Operation  string // e.g., "CreatePR", "EditPRBody"
	StatusCode int    // HTTP status code if applicable
	Message    string
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *GitHubError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("github %s failed (HTTP %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *GitHubError) Unwrap() error {
	return e.Cause
}

// NewGitHubError creates a new GitHubError.
func NewGitHubError(operation, message string) *GitHubError {
	return &GitHubError{Operation: operation, Message: message}
}

// NewGitHubErrorWithStatus creates a new GitHubError with HTTP status code.
func NewGitHubErrorWithStatus(operation string, statusCode int, message string) *GitHubError {
	retryable := isRetryableHTTPStatus(statusCode)
	return &GitHubError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  retryable,
	}
}

// NewGitHubErrorWithCause creates a new GitHubError with an underlying cause.
func NewGitHubErrorWithCause(operation, message string, cause error) *GitHubError {
	return &GitHubError{
		Operation: operation,
		Message:   message,
		Retryable: IsRetryable(cause),
		Cause:     cause,
	}
}

// TemplateError represents PR body template errors.
type TemplateError struct {
	Marker  string // The marker that was expected but not found, if any
	Message string
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	if e.Marker != "" {
		return fmt.Sprintf("template error: %s (marker %q)", e.Message, e.Marker)
	}
	return "template error: " + e.Message
}

// NewMissingMarkerError creates a TemplateError for a marker absent from a body.
func NewMissingMarkerError(marker string) *TemplateError {
	return &TemplateError{Marker: marker, Message: "marker not found in body"}
}

// NewTemplateError creates a new TemplateError.
func NewTemplateError(message string) *TemplateError {
	return &TemplateError{Message: message}
}

// IsMissingMarker checks whether an error chain contains a missing-marker
// TemplateError. During the bulk related-PR update this downgrades the
// affected PR to a warning instead of aborting the run.
func IsMissingMarker(err error) bool {
	var tmplErr *TemplateError
	return errors.As(err, &tmplErr) && tmplErr.Marker != ""
}

// PromptError represents interactive prompting failures other than cancellation.
type PromptError struct {
	Field   string // The field being prompted for, if any
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PromptError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("prompt for %s failed: %s", e.Field, e.Message)
	}
	return "prompt error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *PromptError) Unwrap() error {
	return e.Cause
}

// NewPromptError creates a new PromptError.
func NewPromptError(field, message string) *PromptError {
	return &PromptError{Field: field, Message: message}
}

// IsRetryable checks if an error or any error in its chain is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ghErr *GitHubError
	if errors.As(err, &ghErr) {
		return ghErr.Retryable
	}

	return false
}

// IsCancelled checks if an error chain represents user cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsConfigError checks if an error or any error in its chain is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGitError checks if an error or any error in its chain is a GitError.
func IsGitError(err error) bool {
	var gitErr *GitError
	return errors.As(err, &gitErr)
}

// IsGitHubError checks if an error or any error in its chain is a GitHubError.
func IsGitHubError(err error) bool {
	var ghErr *GitHubError
	return errors.As(err, &ghErr)
}

// isRetryableHTTPStatus returns true for HTTP status codes that are typically retryable.
func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

// Re-export commonly used functions from cockroachdb/errors for convenience.
// This allows consumers to use prerrors.Wrap() instead of importing two packages.
var (
	// New creates a new error with the given message.
	New = errors.New

	// Newf creates a new error with formatted message.
	Newf = errors.Newf

	// Wrap wraps an error with additional context.
	Wrap = errors.Wrap

	// Wrapf wraps an error with formatted additional context.
	Wrapf = errors.Wrapf

	// Is reports whether any error in err's chain matches target.
	Is = errors.Is

	// As finds the first error in err's chain that matches target.
	As = errors.As

	// Cause returns the root cause of an error.
	Cause = errors.Cause
)
