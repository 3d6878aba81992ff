package errors

import (
	"strings"
	"testing"
)

func TestGitHubErrorRetryableStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       bool
	}{
		{"rate limited", 429, true},
		{"server error", 500, true},
		{"bad gateway", 502, true},
		{"unauthorized", 401, false},
		{"not found", 404, false},
		{"unprocessable", 422, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGitHubErrorWithStatus("CreatePR", tt.statusCode, "boom")
			if got := IsRetryable(err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryableThroughWrapping(t *testing.T) {
	base := NewGitHubErrorWithStatus("EditPRBody", 503, "unavailable")
	wrapped := Wrap(base, "updating related PRs")

	if !IsRetryable(wrapped) {
		t.Error("IsRetryable() should see through wrapped errors")
	}
	if IsRetryable(New("plain error")) {
		t.Error("plain errors must not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}

func TestIsMissingMarker(t *testing.T) {
	if !IsMissingMarker(NewMissingMarkerError("<!-- RELATED_PR -->")) {
		t.Error("expected missing-marker error to be detected")
	}
	if IsMissingMarker(NewTemplateError("something else")) {
		t.Error("generic template error should not count as missing marker")
	}
	if IsMissingMarker(nil) {
		t.Error("nil is not a missing marker error")
	}

	wrapped := Wrap(NewMissingMarkerError("<!-- /RELATED_PR -->"), "pr 12")
	if !IsMissingMarker(wrapped) {
		t.Error("IsMissingMarker() should see through wrapped errors")
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(ErrCancelled) {
		t.Error("ErrCancelled must report cancelled")
	}
	if !IsCancelled(Wrap(ErrCancelled, "while prompting")) {
		t.Error("wrapped cancellation must report cancelled")
	}
	if IsCancelled(NewGitHubError("CreatePR", "boom")) {
		t.Error("unrelated error must not report cancelled")
	}
}

func TestErrorUnwrapChains(t *testing.T) {
	cause := New("io failure")
	err := NewConfigErrorWithCause("template.body", "unreadable", cause)

	if !Is(err, cause) {
		t.Error("ConfigError should unwrap to its cause")
	}

	var cfgErr *ConfigError
	if !As(Wrap(err, "loading"), &cfgErr) {
		t.Fatal("As() should find ConfigError in the chain")
	}
	if cfgErr.Field != "template.body" {
		t.Errorf("Field = %q, want template.body", cfgErr.Field)
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
	if got := FormatUserError(ErrCancelled); got != "Cancelled." {
		t.Errorf("FormatUserError(ErrCancelled) = %q", got)
	}

	msg := FormatUserError(NewGitHubErrorWithStatus("CreatePR", 401, "bad credentials"))
	if !strings.Contains(msg, "Authentication failed") {
		t.Errorf("401 formatting should suggest authentication fixes, got %q", msg)
	}

	msg = FormatUserError(NewMissingMarkerError("<!-- RELATED_PR -->"))
	if !strings.Contains(msg, "template.markers") {
		t.Errorf("missing marker formatting should point at config, got %q", msg)
	}
}
