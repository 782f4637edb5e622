package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/repo"
)

type candidateBody struct {
	Body domain.Candidate `json:"body"`
}

type messagesBody struct {
	Body []domain.Message `json:"body"`
}

func registerCandidates(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-candidate",
		Method:        http.MethodPost,
		Path:          "/candidates",
		Summary:       "Create candidate",
		Tags:          []string{"candidates"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateCandidateRequest `json:"body"`
	}) (*candidateBody, error) {
		c, err := h.e.CreateCandidate(ctx, engine.CandidateInput{
			Name:   input.Body.Name,
			Email:  input.Body.Email,
			JobID:  input.Body.JobID,
			Stage:  domain.Stage(input.Body.Stage),
			Source: input.Body.Source,
			Notes:  input.Body.Notes,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &candidateBody{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-candidates",
		Method:      http.MethodGet,
		Path:        "/candidates",
		Summary:     "List candidates",
		Tags:        []string{"candidates"},
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Stage string `query:"stage"`
		JobID int64  `query:"job_id"`
	}) (*struct {
		Body []domain.Candidate `json:"body"`
	}, error) {
		stage := domain.Stage(input.Stage)
		if stage != "" && !stage.Valid() {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid stage filter", map[string]any{"stage": input.Stage})
		}
		items, err := h.e.ListCandidates(ctx, repo.CandidateFilter{Stage: stage, JobID: input.JobID})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []domain.Candidate `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-candidate",
		Method:      http.MethodGet,
		Path:        "/candidates/{id}",
		Summary:     "Get candidate",
		Tags:        []string{"candidates"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*candidateBody, error) {
		c, err := h.e.GetCandidate(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &candidateBody{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-candidate",
		Method:      http.MethodPatch,
		Path:        "/candidates/{id}",
		Summary:     "Update candidate",
		Description: "Partial update. A stage change may record an outbound message.",
		Tags:        []string{"candidates"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64                  `path:"id"`
		Body UpdateCandidateRequest `json:"body"`
	}) (*candidateBody, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		c, err := h.e.UpdateCandidate(ctx, input.Body.update(input.ID))
		if err != nil {
			return nil, h.handleError(err)
		}
		return &candidateBody{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-candidate-messages",
		Method:      http.MethodGet,
		Path:        "/candidates/{id}/messages",
		Summary:     "List messages sent to a candidate",
		Tags:        []string{"candidates", "messages"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*messagesBody, error) {
		items, err := h.e.ListCandidateMessages(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &messagesBody{Body: nonNil(items)}, nil
	})
}

func registerMessages(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-messages",
		Method:      http.MethodGet,
		Path:        "/messages",
		Summary:     "List messages",
		Tags:        []string{"messages"},
	}, func(ctx context.Context, input *struct {
		CandidateID int64 `query:"candidate_id"`
	}) (*messagesBody, error) {
		items, err := h.e.ListMessages(ctx, repo.MessageFilter{CandidateID: input.CandidateID})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &messagesBody{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-message",
		Method:      http.MethodGet,
		Path:        "/messages/{id}",
		Summary:     "Get message",
		Tags:        []string{"messages"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body domain.Message `json:"body"`
	}, error) {
		m, err := h.e.GetMessage(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body domain.Message `json:"body"`
		}{Body: m}, nil
	})
}
