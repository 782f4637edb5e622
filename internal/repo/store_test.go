package repo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"hireline/internal/db"
	"hireline/internal/domain"
	"hireline/internal/migrate"
	"hireline/internal/repo"
)

type backend struct {
	name string
	open func(t *testing.T) repo.Store
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) repo.Store { return repo.NewMemory() }},
		{"sqlite", func(t *testing.T) repo.Store {
			conn, err := db.Open(db.Config{Workspace: t.TempDir()})
			if err != nil {
				t.Fatalf("open db: %v", err)
			}
			if err := migrate.Migrate(conn, db.SQLite); err != nil {
				t.Fatalf("migrate: %v", err)
			}
			st := repo.SQL{DB: conn, Dialect: db.SQLite}
			t.Cleanup(func() { st.Close() })
			return st
		}},
		{"redis", func(t *testing.T) repo.Store {
			mr := miniredis.RunT(t)
			st := repo.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
			t.Cleanup(func() { st.Close() })
			return st
		}},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, ctx context.Context, st repo.Store)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			fn(t, context.Background(), b.open(t))
		})
	}
}

var now = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newJob(title, dept string, status domain.JobStatus) domain.Job {
	return domain.Job{Title: title, Department: dept, HiringManager: "Sam", Location: "Remote", Status: status, OpenDate: now}
}

func TestJobLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, st repo.Store) {
		a, err := st.CreateJob(ctx, newJob("A", "Eng", domain.JobOpen))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		b, _ := st.CreateJob(ctx, newJob("B", "Sales", domain.JobClosed))
		c, _ := st.CreateJob(ctx, newJob("C", "Eng", domain.JobClosed))
		if a.ID != 1 || b.ID != 2 || c.ID != 3 {
			t.Fatalf("expected ids 1,2,3 got %d,%d,%d", a.ID, b.ID, c.ID)
		}

		got, err := st.GetJob(ctx, b.ID)
		if err != nil || got.Title != "B" || !got.OpenDate.Equal(now) || got.CloseDate != nil {
			t.Fatalf("get: %v %+v", err, got)
		}

		eng, _ := st.ListJobs(ctx, repo.JobFilter{Department: "Eng"})
		if len(eng) != 2 || eng[0].ID != a.ID || eng[1].ID != c.ID {
			t.Fatalf("department filter: %+v", eng)
		}
		closedEng, _ := st.ListJobs(ctx, repo.JobFilter{Department: "Eng", Status: domain.JobClosed})
		if len(closedEng) != 1 || closedEng[0].ID != c.ID {
			t.Fatalf("combined filter: %+v", closedEng)
		}
		none, err := st.ListJobs(ctx, repo.JobFilter{Department: "Legal"})
		if err != nil || none == nil || len(none) != 0 {
			t.Fatalf("expected empty non-nil list, got %v %v", none, err)
		}

		closed := now.Add(48 * time.Hour)
		b.Status = domain.JobOnHold
		b.CloseDate = &closed
		if _, err := st.ReplaceJob(ctx, b); err != nil {
			t.Fatalf("replace: %v", err)
		}
		got, _ = st.GetJob(ctx, b.ID)
		if got.Status != domain.JobOnHold || got.CloseDate == nil || !got.CloseDate.Equal(closed) {
			t.Fatalf("replace not stored: %+v", got)
		}

		if err := st.DeleteJob(ctx, c.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := st.GetJob(ctx, c.ID); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("expected not found after delete, got %v", err)
		}
		if err := st.DeleteJob(ctx, c.ID); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("expected not found on second delete, got %v", err)
		}
		missing := newJob("X", "Eng", domain.JobOpen)
		missing.ID = 99
		if _, err := st.ReplaceJob(ctx, missing); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("expected not found on replace, got %v", err)
		}

		d, _ := st.CreateJob(ctx, newJob("D", "Eng", domain.JobOpen))
		if d.ID != 4 {
			t.Fatalf("deleted ids must not be reused, got %d", d.ID)
		}
	})
}

func TestCandidatesAndMessages(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, st repo.Store) {
		c1, err := st.CreateCandidate(ctx, domain.Candidate{
			Name: "Ada", Email: "ada@example.com", JobID: 1, Stage: domain.StageApplied,
			Source: strPtr("referral"), AppliedDate: now, UpdatedDate: now,
		})
		if err != nil {
			t.Fatalf("create candidate: %v", err)
		}
		c2, _ := st.CreateCandidate(ctx, domain.Candidate{
			Name: "Bo", Email: "bo@example.com", JobID: 2, Stage: domain.StageInterview, AppliedDate: now, UpdatedDate: now,
		})

		got, err := st.GetCandidate(ctx, c1.ID)
		if err != nil || got.Source == nil || *got.Source != "referral" || got.Notes != nil {
			t.Fatalf("optional fields: %v %+v", err, got)
		}
		byJob, _ := st.ListCandidates(ctx, repo.CandidateFilter{JobID: 2})
		if len(byJob) != 1 || byJob[0].ID != c2.ID {
			t.Fatalf("job filter: %+v", byJob)
		}
		byStage, _ := st.ListCandidates(ctx, repo.CandidateFilter{Stage: domain.StageApplied})
		if len(byStage) != 1 || byStage[0].ID != c1.ID {
			t.Fatalf("stage filter: %+v", byStage)
		}

		got.Stage = domain.StageScreening
		got.Notes = strPtr("good call")
		got.UpdatedDate = now.Add(time.Hour)
		if _, err := st.ReplaceCandidate(ctx, got); err != nil {
			t.Fatalf("replace candidate: %v", err)
		}
		again, _ := st.GetCandidate(ctx, c1.ID)
		if again.Stage != domain.StageScreening || again.Notes == nil || !again.UpdatedDate.Equal(now.Add(time.Hour)) {
			t.Fatalf("replace not stored: %+v", again)
		}
		if _, err := st.GetCandidate(ctx, 77); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}

		stage := domain.StageScreening
		m, err := st.CreateMessage(ctx, domain.Message{
			CandidateID: c1.ID, ToName: "Ada", ToEmail: "ada@example.com",
			Subject: "s", Body: "b", Trigger: domain.TriggerStageChange,
			RelatedStage: &stage, Timestamp: now, Status: domain.MessageSent,
		})
		if err != nil || m.ID != 1 {
			t.Fatalf("create message: %v %+v", err, m)
		}
		st.CreateMessage(ctx, domain.Message{CandidateID: c2.ID, Subject: "x", Body: "y", Trigger: domain.TriggerManual, Timestamp: now, Status: domain.MessageDraft})
		gotMsg, err := st.GetMessage(ctx, m.ID)
		if err != nil || gotMsg.RelatedStage == nil || *gotMsg.RelatedStage != stage || !gotMsg.Timestamp.Equal(now) {
			t.Fatalf("get message: %v %+v", err, gotMsg)
		}
		forC1, _ := st.ListMessages(ctx, repo.MessageFilter{CandidateID: c1.ID})
		if len(forC1) != 1 {
			t.Fatalf("message filter: %+v", forC1)
		}
		all, _ := st.ListMessages(ctx, repo.MessageFilter{})
		if len(all) != 2 || all[1].RelatedStage != nil {
			t.Fatalf("list all messages: %+v", all)
		}
	})
}

func TestJobBoardsPostsEvents(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, st repo.Store) {
		b, err := st.CreateJobBoard(ctx, domain.JobBoard{Slug: "acme", LogoURL: strPtr("/uploads/company_logo/x.png")})
		if err != nil {
			t.Fatalf("create board: %v", err)
		}
		if _, err := st.CreateJobBoard(ctx, domain.JobBoard{Slug: "acme"}); !errors.Is(err, repo.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		other, err := st.CreateJobBoard(ctx, domain.JobBoard{Slug: "globex"})
		if err != nil {
			t.Fatalf("create second board: %v", err)
		}
		bySlug, err := st.GetJobBoardBySlug(ctx, "acme")
		if err != nil || bySlug.ID != b.ID || bySlug.LogoURL == nil {
			t.Fatalf("by slug: %v %+v", err, bySlug)
		}
		if _, err := st.GetJobBoardBySlug(ctx, "nope"); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		boards, _ := st.ListJobBoards(ctx)
		if len(boards) != 2 || boards[1].ID != other.ID {
			t.Fatalf("list boards: %+v", boards)
		}

		if _, err := st.CreateJobPost(ctx, domain.JobPost{Title: "Dev", Salary: 100, JobBoardID: b.ID}); err != nil {
			t.Fatalf("create post: %v", err)
		}
		st.CreateJobPost(ctx, domain.JobPost{Title: "Ops", Salary: 90.5, JobBoardID: other.ID})
		if _, err := st.CreateJobPost(ctx, domain.JobPost{Title: "Ghost", JobBoardID: 42}); err == nil {
			t.Fatalf("expected error for missing board")
		}
		posts, _ := st.ListJobPosts(ctx, repo.JobPostFilter{JobBoardID: other.ID})
		if len(posts) != 1 || posts[0].Salary != 90.5 {
			t.Fatalf("list posts: %+v", posts)
		}

		for i, typ := range []string{"job.created", "candidate.created", "job.deleted"} {
			kind := "job"
			if typ == "candidate.created" {
				kind = "candidate"
			}
			if _, err := st.AppendEvent(ctx, domain.Event{TS: now, Type: typ, EntityKind: kind, EntityID: int64(i + 1), Payload: `{"n":1}`}); err != nil {
				t.Fatalf("append event: %v", err)
			}
		}
		jobEvents, _ := st.ListEvents(ctx, repo.EventFilter{EntityKind: "job"})
		if len(jobEvents) != 2 || jobEvents[0].Type != "job.created" || jobEvents[1].Type != "job.deleted" {
			t.Fatalf("event filter: %+v", jobEvents)
		}
		one, _ := st.ListEvents(ctx, repo.EventFilter{Type: "candidate.created", EntityID: 2})
		if len(one) != 1 || one[0].Payload != `{"n":1}` {
			t.Fatalf("event type filter: %+v", one)
		}
		if err := st.Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := repo.NewMemory()
	c, _ := st.CreateCandidate(ctx, domain.Candidate{Name: "Ada", Email: "a@b.co", Stage: domain.StageApplied, Notes: strPtr("orig")})
	*c.Notes = "changed"
	got, _ := st.GetCandidate(ctx, c.ID)
	if *got.Notes != "orig" {
		t.Fatalf("stored candidate mutated through returned pointer")
	}
}

func TestStageFilterKeepsInsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, st repo.Store) {
		seed := []struct {
			name  string
			job   int64
			stage domain.Stage
		}{
			{"a", 1, domain.StageInterview},
			{"b", 2, domain.StageApplied},
			{"c", 2, domain.StageInterview},
			{"d", 1, domain.StageOffer},
			{"e", 3, domain.StageInterview},
		}
		for _, s := range seed {
			c := domain.Candidate{Name: s.name, Email: s.name + "@example.com", JobID: s.job, Stage: s.stage, AppliedDate: now, UpdatedDate: now}
			if s.job == 2 {
				c.Source = strPtr("board")
			}
			if _, err := st.CreateCandidate(ctx, c); err != nil {
				t.Fatalf("create %s: %v", s.name, err)
			}
		}
		got, err := st.ListCandidates(ctx, repo.CandidateFilter{Stage: domain.StageInterview})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var names []string
		for _, c := range got {
			names = append(names, c.Name)
		}
		if len(names) != 3 || names[0] != "a" || names[1] != "c" || names[2] != "e" {
			t.Fatalf("expected a,c,e got %v", names)
		}
	})
}

func TestConcurrentCreatesGetUniqueIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, st repo.Store) {
		const n = 50
		ids := make(chan int64, n)
		errs := make(chan error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				j, err := st.CreateJob(ctx, newJob("J", "Eng", domain.JobOpen))
				if err != nil {
					errs <- err
					return
				}
				ids <- j.ID
			}()
		}
		wg.Wait()
		close(ids)
		close(errs)
		for err := range errs {
			t.Fatalf("create: %v", err)
		}
		seen := map[int64]bool{}
		for id := range ids {
			if seen[id] {
				t.Fatalf("id %d handed out twice", id)
			}
			seen[id] = true
		}
		jobs, _ := st.ListJobs(ctx, repo.JobFilter{})
		if len(seen) != n || len(jobs) != n {
			t.Fatalf("expected %d jobs, got %d ids and %d stored", n, len(seen), len(jobs))
		}
	})
}
