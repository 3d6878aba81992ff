package github

import (
	"context"
	"testing"
)

// stubClient is a minimal Client for recorder tests.
type stubClient struct {
	Client

	prs []PullRequest
}

func (s *stubClient) ListMyPRs(ctx context.Context, user string) ([]PullRequest, error) {
	return s.prs, nil
}

func (s *stubClient) GetCurrentRepo(ctx context.Context) (string, string, error) {
	return "octo", "widgets", nil
}

func TestRecorderCreatePR(t *testing.T) {
	rec := NewRecorder(&stubClient{})

	pr, err := rec.CreatePR(context.Background(), CreatePROptions{
		Title: "Add retries",
		Body:  "body",
	})
	if err != nil {
		t.Fatalf("CreatePR() error = %v", err)
	}
	if pr.Repo != "octo/widgets" {
		t.Errorf("Repo = %q, want octo/widgets", pr.Repo)
	}
	if pr.Title != "Add retries" {
		t.Errorf("Title = %q, want Add retries", pr.Title)
	}

	created := rec.CreatedPRs()
	if len(created) != 1 || created[0].Title != "Add retries" {
		t.Errorf("CreatedPRs() = %+v, want one entry titled Add retries", created)
	}
}

func TestRecorderEditPRBody(t *testing.T) {
	rec := NewRecorder(&stubClient{})

	if err := rec.EditPRBody(context.Background(), "octo/widgets", 7, "new body"); err != nil {
		t.Fatalf("EditPRBody() error = %v", err)
	}
	if err := rec.EditPRBody(context.Background(), "octo/gadgets", 9, "other"); err != nil {
		t.Fatalf("EditPRBody() error = %v", err)
	}

	edits := rec.Edits()
	if len(edits) != 2 {
		t.Fatalf("len(Edits()) = %d, want 2", len(edits))
	}
	if edits[0].Repo != "octo/widgets" || edits[0].Number != 7 || edits[0].Body != "new body" {
		t.Errorf("first edit = %+v", edits[0])
	}
}

func TestRecorderForwardsReads(t *testing.T) {
	inner := &stubClient{prs: []PullRequest{
		{Repo: "octo/widgets", Number: 1, State: "open"},
	}}
	rec := NewRecorder(inner)

	prs, err := rec.ListMyPRs(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("ListMyPRs() error = %v", err)
	}
	if len(prs) != 1 || prs[0].Number != 1 {
		t.Errorf("ListMyPRs() = %+v", prs)
	}
}
