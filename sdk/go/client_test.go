package hirelinesdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hireline/internal/engine"
	"hireline/internal/repo"
	"hireline/internal/server"
	"hireline/internal/storage"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	e := engine.New(repo.NewMemory(), storage.Local{Dir: t.TempDir()}, nil)
	handler, err := server.New(server.Config{Engine: e})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL + "/api")
}

func TestClientPipeline(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	job, err := c.CreateJob(ctx, JobInput{Title: "QA", Department: "Eng", HiringManager: "Lee", Location: "Paris"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	cand, err := c.CreateCandidate(ctx, CandidateInput{Name: "Bo", Email: "bo@example.com", JobID: job.ID})
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	for _, stage := range []string{"Screening", "Interview", "Offer", "Hired"} {
		s := stage
		if _, err := c.UpdateCandidate(ctx, cand.ID, CandidatePatch{Stage: &s}); err != nil {
			t.Fatalf("move to %s: %v", stage, err)
		}
	}
	msgs, err := c.CandidateMessages(ctx, cand.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	// Interview -> Offer has no rule.
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[2].Body != "Welcome aboard! We're excited to have you join us." {
		t.Fatalf("unexpected last body %q", msgs[2].Body)
	}

	hired, err := c.ListCandidates(ctx, "Hired", job.ID)
	if err != nil || len(hired) != 1 {
		t.Fatalf("list hired: %v %d", err, len(hired))
	}

	if err := c.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	_, err = c.GetJob(ctx, job.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Fatalf("expected not_found, got %v", err)
	}
	// Candidates survive job deletion.
	if _, err := c.GetCandidate(ctx, cand.ID); err != nil {
		t.Fatalf("candidate after job delete: %v", err)
	}
}

func TestClientJobBoards(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	board, err := c.CreateJobBoard(ctx, "globex", "", nil)
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	if board.LogoURL != nil {
		t.Fatalf("expected no logo url")
	}
	if _, err := c.CreateJobPost(ctx, "globex", "Writer", 50000); err != nil {
		t.Fatalf("create post: %v", err)
	}
	posts, err := c.ListJobPosts(ctx, "globex")
	if err != nil || len(posts) != 1 || posts[0].JobBoardID != board.ID {
		t.Fatalf("list posts: %v %+v", err, posts)
	}
	got, err := c.GetJobBoard(ctx, "globex")
	if err != nil || got.ID != board.ID {
		t.Fatalf("get board: %v", err)
	}
	page, err := c.EventsPage(ctx, "job_board", board.ID, 10, "")
	if err != nil || len(page.Items) != 1 {
		t.Fatalf("events: %v %+v", err, page)
	}
}
