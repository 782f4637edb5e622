package repo

import (
	"context"
	"errors"

	"hireline/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store is the keyed entity store. Every backend assigns ids from a per-entity
// counter that never hands out the same id twice, and lists in id order.
type Store interface {
	CreateJob(ctx context.Context, j domain.Job) (domain.Job, error)
	GetJob(ctx context.Context, id int64) (domain.Job, error)
	ListJobs(ctx context.Context, f JobFilter) ([]domain.Job, error)
	ReplaceJob(ctx context.Context, j domain.Job) (domain.Job, error)
	DeleteJob(ctx context.Context, id int64) error

	CreateCandidate(ctx context.Context, c domain.Candidate) (domain.Candidate, error)
	GetCandidate(ctx context.Context, id int64) (domain.Candidate, error)
	ListCandidates(ctx context.Context, f CandidateFilter) ([]domain.Candidate, error)
	ReplaceCandidate(ctx context.Context, c domain.Candidate) (domain.Candidate, error)

	CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error)
	GetMessage(ctx context.Context, id int64) (domain.Message, error)
	ListMessages(ctx context.Context, f MessageFilter) ([]domain.Message, error)

	CreateJobBoard(ctx context.Context, b domain.JobBoard) (domain.JobBoard, error)
	GetJobBoard(ctx context.Context, id int64) (domain.JobBoard, error)
	GetJobBoardBySlug(ctx context.Context, slug string) (domain.JobBoard, error)
	ListJobBoards(ctx context.Context) ([]domain.JobBoard, error)
	CreateJobPost(ctx context.Context, p domain.JobPost) (domain.JobPost, error)
	ListJobPosts(ctx context.Context, f JobPostFilter) ([]domain.JobPost, error)

	AppendEvent(ctx context.Context, e domain.Event) (domain.Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]domain.Event, error)

	Ping(ctx context.Context) error
	Close() error
}

// Zero-valued filter fields match everything.

type JobFilter struct {
	Status     domain.JobStatus
	Department string
}

func (f JobFilter) match(j domain.Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.Department != "" && j.Department != f.Department {
		return false
	}
	return true
}

type CandidateFilter struct {
	Stage domain.Stage
	JobID int64
}

func (f CandidateFilter) match(c domain.Candidate) bool {
	if f.Stage != "" && c.Stage != f.Stage {
		return false
	}
	if f.JobID != 0 && c.JobID != f.JobID {
		return false
	}
	return true
}

type MessageFilter struct {
	CandidateID int64
}

func (f MessageFilter) match(m domain.Message) bool {
	return f.CandidateID == 0 || m.CandidateID == f.CandidateID
}

type JobPostFilter struct {
	JobBoardID int64
}

func (f JobPostFilter) match(p domain.JobPost) bool {
	return f.JobBoardID == 0 || p.JobBoardID == f.JobBoardID
}

type EventFilter struct {
	Type       string
	EntityKind string
	EntityID   int64
}

func (f EventFilter) match(e domain.Event) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.EntityKind != "" && e.EntityKind != f.EntityKind {
		return false
	}
	if f.EntityID != 0 && e.EntityID != f.EntityID {
		return false
	}
	return true
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
