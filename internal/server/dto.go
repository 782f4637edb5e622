package server

import (
	"encoding/json"
	"time"

	"hireline/internal/domain"
	"hireline/internal/engine"
)

// Request payloads

type JobRequest struct {
	Title         string `json:"title"`
	Department    string `json:"department"`
	HiringManager string `json:"hiring_manager"`
	Location      string `json:"location"`
	Status        string `json:"status,omitempty" enum:"Open,Closed,On Hold"`
}

func (r JobRequest) input() engine.JobInput {
	return engine.JobInput{
		Title:         r.Title,
		Department:    r.Department,
		HiringManager: r.HiringManager,
		Location:      r.Location,
		Status:        domain.JobStatus(r.Status),
	}
}

type CreateCandidateRequest struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	JobID  int64   `json:"job_id"`
	Stage  string  `json:"stage,omitempty" enum:"Applied,Screening,Interview,Offer,Hired,Rejected"`
	Source *string `json:"source,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type UpdateCandidateRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	JobID  *int64  `json:"job_id,omitempty"`
	Stage  *string `json:"stage,omitempty" enum:"Applied,Screening,Interview,Offer,Hired,Rejected"`
	Source *string `json:"source,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

func (r UpdateCandidateRequest) update(id int64) engine.CandidateUpdate {
	upd := engine.CandidateUpdate{
		ID:     id,
		Name:   r.Name,
		Email:  r.Email,
		JobID:  r.JobID,
		Source: r.Source,
		Notes:  r.Notes,
	}
	if r.Stage != nil {
		s := domain.Stage(*r.Stage)
		upd.Stage = &s
	}
	return upd
}

type CreateJobPostRequest struct {
	Title  string  `json:"title"`
	Salary float64 `json:"salary" minimum:"0"`
}

// Responses

type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	DBStatus string `json:"db_status" enum:"OK,NOT_OKAY"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   int64          `json:"entity_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS.UTC().Format(time.RFC3339Nano),
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
