package domain

import "time"

// Stage is a candidate's position in the hiring pipeline.
type Stage string

const (
	StageApplied   Stage = "Applied"
	StageScreening Stage = "Screening"
	StageInterview Stage = "Interview"
	StageOffer     Stage = "Offer"
	StageHired     Stage = "Hired"
	StageRejected  Stage = "Rejected"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageApplied, StageScreening, StageInterview, StageOffer, StageHired, StageRejected}

func (s Stage) Valid() bool {
	for _, v := range Stages {
		if v == s {
			return true
		}
	}
	return false
}

type JobStatus string

const (
	JobOpen   JobStatus = "Open"
	JobClosed JobStatus = "Closed"
	JobOnHold JobStatus = "On Hold"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobOpen, JobClosed, JobOnHold:
		return true
	}
	return false
}

type MessageTrigger string

const (
	TriggerManual      MessageTrigger = "Manual"
	TriggerStageChange MessageTrigger = "Stage Change"
	TriggerScheduled   MessageTrigger = "Scheduled"
)

type MessageStatus string

const (
	MessageSent      MessageStatus = "Sent"
	MessageScheduled MessageStatus = "Scheduled"
	MessageDraft     MessageStatus = "Draft"
)

type Job struct {
	ID            int64      `json:"job_id"`
	Title         string     `json:"title"`
	Department    string     `json:"department"`
	HiringManager string     `json:"hiring_manager"`
	Location      string     `json:"location"`
	Status        JobStatus  `json:"status" enum:"Open,Closed,On Hold"`
	OpenDate      time.Time  `json:"open_date"`
	CloseDate     *time.Time `json:"close_date,omitempty"`
}

type Candidate struct {
	ID          int64     `json:"candidate_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	JobID       int64     `json:"job_id"`
	Stage       Stage     `json:"stage" enum:"Applied,Screening,Interview,Offer,Hired,Rejected"`
	Source      *string   `json:"source,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	AppliedDate time.Time `json:"applied_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

type Message struct {
	ID           int64          `json:"message_id"`
	CandidateID  int64          `json:"candidate_id"`
	ToName       string         `json:"to_name"`
	ToEmail      string         `json:"to_email"`
	Subject      string         `json:"subject"`
	Body         string         `json:"body"`
	Trigger      MessageTrigger `json:"trigger" enum:"Manual,Stage Change,Scheduled"`
	RelatedStage *Stage         `json:"related_stage,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Status       MessageStatus  `json:"status" enum:"Sent,Scheduled,Draft"`
}

type JobBoard struct {
	ID      int64   `json:"id"`
	Slug    string  `json:"slug"`
	LogoURL *string `json:"logo_url,omitempty"`
}

type JobPost struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Salary     float64 `json:"salary"`
	JobBoardID int64   `json:"job_board_id"`
}

// Event is an append-only audit record of a state change.
type Event struct {
	ID         int64     `json:"id"`
	TS         time.Time `json:"ts"`
	Type       string    `json:"type"`
	EntityKind string    `json:"entity_kind"`
	EntityID   int64     `json:"entity_id"`
	Payload    string    `json:"payload_json"`
}
