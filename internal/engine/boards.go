package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hireline/internal/domain"
	"hireline/internal/events"
	"hireline/internal/repo"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{2,19}$`)

// NormalizeSlug lowercases and trims a board slug and checks its shape.
func NormalizeSlug(slug string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(s) {
		return "", ValidationError{Field: "slug", Reason: fmt.Sprintf("%q must be 3-20 characters of a-z, 0-9 or '-'", slug)}
	}
	return s, nil
}

// Logo is an uploaded board logo.
type Logo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateJobBoard stores a board, uploading its logo first when one is given.
func (e Engine) CreateJobBoard(ctx context.Context, slug string, logo *Logo) (domain.JobBoard, error) {
	s, err := NormalizeSlug(slug)
	if err != nil {
		return domain.JobBoard{}, err
	}
	if _, err := e.Store.GetJobBoardBySlug(ctx, s); err == nil {
		return domain.JobBoard{}, fmt.Errorf("job board slug %q already exists: %w", s, repo.ErrConflict)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.JobBoard{}, err
	}
	board := domain.JobBoard{Slug: s}
	if logo != nil && len(logo.Data) > 0 {
		if e.Uploader == nil {
			return domain.JobBoard{}, fmt.Errorf("logo upload: no uploader configured")
		}
		u, err := e.Uploader.Upload(ctx, LogoBucket, logo.Filename, logo.Data, logo.ContentType)
		if err != nil {
			return domain.JobBoard{}, fmt.Errorf("logo upload: %w", err)
		}
		board.LogoURL = &u
	}
	board, err = e.Store.CreateJobBoard(ctx, board)
	if err != nil {
		return domain.JobBoard{}, err
	}
	e.record(ctx, events.JobBoardCreated, "job_board", board.ID, events.EventPayload{"slug": board.Slug})
	return board, nil
}

func (e Engine) ListJobBoards(ctx context.Context) ([]domain.JobBoard, error) {
	return e.Store.ListJobBoards(ctx)
}

// ResolveJobBoard accepts a numeric id or a slug.
func (e Engine) ResolveJobBoard(ctx context.Context, ref string) (domain.JobBoard, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		b, err := e.Store.GetJobBoard(ctx, id)
		if err == nil || !errors.Is(err, repo.ErrNotFound) {
			return b, err
		}
	}
	return e.Store.GetJobBoardBySlug(ctx, strings.ToLower(strings.TrimSpace(ref)))
}

type JobPostInput struct {
	Title  string
	Salary float64
}

func (e Engine) CreateJobPost(ctx context.Context, boardRef string, in JobPostInput) (domain.JobPost, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.JobPost{}, ValidationError{Field: "title", Reason: "is required"}
	}
	if in.Salary < 0 {
		return domain.JobPost{}, ValidationError{Field: "salary", Reason: "must not be negative"}
	}
	board, err := e.ResolveJobBoard(ctx, boardRef)
	if err != nil {
		return domain.JobPost{}, err
	}
	p, err := e.Store.CreateJobPost(ctx, domain.JobPost{Title: in.Title, Salary: in.Salary, JobBoardID: board.ID})
	if err != nil {
		return domain.JobPost{}, err
	}
	e.record(ctx, events.JobPostCreated, "job_post", p.ID, events.EventPayload{"job_board_id": board.ID})
	return p, nil
}

func (e Engine) ListJobPosts(ctx context.Context, boardRef string) ([]domain.JobPost, error) {
	board, err := e.ResolveJobBoard(ctx, boardRef)
	if err != nil {
		return nil, err
	}
	return e.Store.ListJobPosts(ctx, repo.JobPostFilter{JobBoardID: board.ID})
}
