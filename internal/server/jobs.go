package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"hireline/internal/domain"
	"hireline/internal/repo"
)

type jobBody struct {
	Body domain.Job `json:"body"`
}

func registerJobs(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-job",
		Method:        http.MethodPost,
		Path:          "/jobs",
		Summary:       "Create job",
		Tags:          []string{"jobs"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body JobRequest `json:"body"`
	}) (*jobBody, error) {
		j, err := h.e.CreateJob(ctx, input.Body.input())
		if err != nil {
			return nil, h.handleError(err)
		}
		return &jobBody{Body: j}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "List jobs",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status     string `query:"status" doc:"Open, Closed or On Hold"`
		Department string `query:"department"`
	}) (*struct {
		Body []domain.Job `json:"body"`
	}, error) {
		status := domain.JobStatus(input.Status)
		if status != "" && !status.Valid() {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid status filter", map[string]any{"status": input.Status})
		}
		items, err := h.e.ListJobs(ctx, repo.JobFilter{Status: status, Department: input.Department})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []domain.Job `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-job",
		Method:      http.MethodGet,
		Path:        "/jobs/{id}",
		Summary:     "Get job",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*jobBody, error) {
		j, err := h.e.GetJob(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &jobBody{Body: j}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "replace-job",
		Method:      http.MethodPut,
		Path:        "/jobs/{id}",
		Summary:     "Replace job",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64      `path:"id"`
		Body JobRequest `json:"body"`
	}) (*jobBody, error) {
		j, err := h.e.ReplaceJob(ctx, input.ID, input.Body.input())
		if err != nil {
			return nil, h.handleError(err)
		}
		return &jobBody{Body: j}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-job",
		Method:        http.MethodDelete,
		Path:          "/jobs/{id}",
		Summary:       "Delete job",
		Tags:          []string{"jobs"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct{}, error) {
		if err := h.e.DeleteJob(ctx, input.ID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})
}
