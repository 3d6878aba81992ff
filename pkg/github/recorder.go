package github

import (
	"context"
	"sync"
)

// RecordedEdit captures an EditPRBody call made in dry-run mode.
type RecordedEdit struct {
	Repo   string
	Number int
	Body   string
}

// Recorder wraps a Client, forwarding reads to the inner client while
// recording writes instead of performing them. It backs dry-run mode.
type Recorder struct {
	inner Client

	mu      sync.Mutex
	created []CreatePROptions
	edits   []RecordedEdit
}

// NewRecorder wraps inner so that CreatePR and EditPRBody are recorded
// rather than executed.
func NewRecorder(inner Client) *Recorder {
	return &Recorder{inner: inner}
}

// CreatedPRs returns the recorded CreatePR calls.
func (r *Recorder) CreatedPRs() []CreatePROptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CreatePROptions(nil), r.created...)
}

// Edits returns the recorded EditPRBody calls.
func (r *Recorder) Edits() []RecordedEdit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEdit(nil), r.edits...)
}

func (r *Recorder) IsAuthenticated() bool {
	return r.inner.IsAuthenticated()
}

func (r *Recorder) AuthenticatedUser(ctx context.Context) (string, error) {
	return r.inner.AuthenticatedUser(ctx)
}

// CreatePR records the request and returns a placeholder PR numbered 0.
func (r *Recorder) CreatePR(ctx context.Context, opts CreatePROptions) (*PullRequest, error) {
	r.mu.Lock()
	r.created = append(r.created, opts)
	r.mu.Unlock()

	repo := "unknown/unknown"
	if owner, name, err := r.inner.GetCurrentRepo(ctx); err == nil {
		repo = owner + "/" + name
	}

	return &PullRequest{
		Repo:  repo,
		Title: opts.Title,
		Body:  opts.Body,
		State: "open",
		URL:   "(dry run)",
	}, nil
}

func (r *Recorder) ListMyPRs(ctx context.Context, user string) ([]PullRequest, error) {
	return r.inner.ListMyPRs(ctx, user)
}

// EditPRBody records the edit without touching the remote PR.
func (r *Recorder) EditPRBody(ctx context.Context, repo string, number int, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, RecordedEdit{Repo: repo, Number: number, Body: body})
	return nil
}

func (r *Recorder) ListCollaborators(ctx context.Context) ([]string, error) {
	return r.inner.ListCollaborators(ctx)
}

func (r *Recorder) GetPRForBranch(ctx context.Context, branch string) (*PullRequest, error) {
	return r.inner.GetPRForBranch(ctx, branch)
}

func (r *Recorder) GetCurrentRepo(ctx context.Context) (owner, repo string, err error) {
	return r.inner.GetCurrentRepo(ctx)
}

func (r *Recorder) GetDefaultBranch(ctx context.Context) (string, error) {
	return r.inner.GetDefaultBranch(ctx)
}
