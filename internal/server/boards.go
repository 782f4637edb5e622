package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/repo"
)

const maxLogoBytes = 5 << 20

type boardBody struct {
	Body domain.JobBoard `json:"body"`
}

type boardPath struct {
	Board string `path:"board" doc:"Job board id or slug"`
}

func readLogo(form *multipart.Form) (*engine.Logo, error) {
	files := form.File["logo"]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	if fh.Size > maxLogoBytes {
		return nil, engine.ValidationError{Field: "logo", Reason: fmt.Sprintf("larger than %d bytes", maxLogoBytes)}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	return &engine.Logo{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func registerJobBoards(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-job-boards",
		Method:      http.MethodGet,
		Path:        "/job-boards",
		Summary:     "List job boards",
		Tags:        []string{"job-boards"},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.JobBoard `json:"body"`
	}, error) {
		items, err := h.e.ListJobBoards(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []domain.JobBoard `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-job-board",
		Method:        http.MethodPost,
		Path:          "/job-boards",
		Summary:       "Create job board",
		Description:   "Multipart form with a `slug` field and an optional `logo` file.",
		Tags:          []string{"job-boards"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxLogoBytes + 1<<20,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		RawBody multipart.Form
	}) (*boardBody, error) {
		form := &input.RawBody
		var slug string
		if vals := form.Value["slug"]; len(vals) > 0 {
			slug = vals[0]
		}
		logo, err := readLogo(form)
		if err != nil {
			return nil, h.handleError(err)
		}
		b, err := h.e.CreateJobBoard(ctx, slug, logo)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &boardBody{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-job-board",
		Method:      http.MethodGet,
		Path:        "/job-boards/{board}",
		Summary:     "Get job board by id or slug",
		Tags:        []string{"job-boards"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *boardPath) (*boardBody, error) {
		b, err := h.e.ResolveJobBoard(ctx, input.Board)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &boardBody{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-job-posts",
		Method:      http.MethodGet,
		Path:        "/job-boards/{board}/posts",
		Summary:     "List posts on a job board",
		Tags:        []string{"job-boards"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *boardPath) (*struct {
		Body []domain.JobPost `json:"body"`
	}, error) {
		items, err := h.e.ListJobPosts(ctx, input.Board)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []domain.JobPost `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-job-post",
		Method:        http.MethodPost,
		Path:          "/job-boards/{board}/posts",
		Summary:       "Create job post",
		Tags:          []string{"job-boards"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Board string               `path:"board"`
		Body  CreateJobPostRequest `json:"body"`
	}) (*struct {
		Body domain.JobPost `json:"body"`
	}, error) {
		p, err := h.e.CreateJobPost(ctx, input.Board, engine.JobPostInput{Title: input.Body.Title, Salary: input.Body.Salary})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body domain.JobPost `json:"body"`
		}{Body: p}, nil
	})
}

func registerEvents(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List audit events",
		Tags:        []string{"events"},
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   int64  `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor" doc:"Return events with an id greater than this"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		after, err := parseCursor(input.Cursor)
		if err != nil {
			return nil, err
		}
		limit := normalizeLimit(input.Limit)
		items, err := h.e.ListEvents(ctx, repo.EventFilter{Type: input.Type, EntityKind: input.EntityKind, EntityID: input.EntityID})
		if err != nil {
			return nil, h.handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		for _, evt := range items {
			if evt.ID <= after {
				continue
			}
			if len(resp.Items) == limit {
				resp.NextCursor = fmt.Sprintf("%d", resp.Items[limit-1].ID)
				break
			}
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}
