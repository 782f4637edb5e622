package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"time"

	"hireline/internal/domain"
	"hireline/internal/engine/notify"
	"hireline/internal/events"
	"hireline/internal/repo"
	"hireline/internal/storage"
)

// LogoBucket is the upload bucket job board logos go to.
const LogoBucket = "company_logo"

// ValidationError reports input the engine refuses to store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Engine struct {
	Store    repo.Store
	Notifier notify.Notifier
	Events   events.Writer
	Uploader storage.Uploader
	Logger   *log.Logger
	Now      func() time.Time
}

func New(st repo.Store, up storage.Uploader, logger *log.Logger) Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return Engine{
		Store:    st,
		Notifier: notify.New(st),
		Events:   events.Writer{Store: st},
		Uploader: up,
		Logger:   logger,
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// record appends an audit event. Audit failures never undo the change they describe.
func (e Engine) record(ctx context.Context, evtType, kind string, id int64, payload events.EventPayload) {
	w := e.Events
	if w.Store == nil {
		return
	}
	if w.Now == nil {
		w.Now = e.now
	}
	if _, err := w.Append(ctx, evtType, kind, id, payload); err != nil {
		e.logf("event %s %s/%d: %v", evtType, kind, id, err)
	}
}

// JobInput carries the writable job fields for create and replace.
type JobInput struct {
	Title         string
	Department    string
	HiringManager string
	Location      string
	Status        domain.JobStatus
}

func (in *JobInput) validate() error {
	for _, f := range []struct{ name, v string }{
		{"title", in.Title},
		{"department", in.Department},
		{"hiring_manager", in.HiringManager},
		{"location", in.Location},
	} {
		if strings.TrimSpace(f.v) == "" {
			return ValidationError{Field: f.name, Reason: "is required"}
		}
	}
	if in.Status == "" {
		in.Status = domain.JobOpen
	}
	if !in.Status.Valid() {
		return ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", in.Status)}
	}
	return nil
}

func (e Engine) CreateJob(ctx context.Context, in JobInput) (domain.Job, error) {
	if err := in.validate(); err != nil {
		return domain.Job{}, err
	}
	j, err := e.Store.CreateJob(ctx, domain.Job{
		Title:         in.Title,
		Department:    in.Department,
		HiringManager: in.HiringManager,
		Location:      in.Location,
		Status:        in.Status,
		OpenDate:      e.now(),
	})
	if err != nil {
		return domain.Job{}, err
	}
	e.record(ctx, events.JobCreated, "job", j.ID, events.EventPayload{"status": j.Status})
	return j, nil
}

func (e Engine) GetJob(ctx context.Context, id int64) (domain.Job, error) {
	return e.Store.GetJob(ctx, id)
}

func (e Engine) ListJobs(ctx context.Context, f repo.JobFilter) ([]domain.Job, error) {
	return e.Store.ListJobs(ctx, f)
}

// ReplaceJob overwrites every writable field; open and close dates are kept.
func (e Engine) ReplaceJob(ctx context.Context, id int64, in JobInput) (domain.Job, error) {
	if err := in.validate(); err != nil {
		return domain.Job{}, err
	}
	current, err := e.Store.GetJob(ctx, id)
	if err != nil {
		return domain.Job{}, err
	}
	current.Title = in.Title
	current.Department = in.Department
	current.HiringManager = in.HiringManager
	current.Location = in.Location
	current.Status = in.Status
	j, err := e.Store.ReplaceJob(ctx, current)
	if err != nil {
		return domain.Job{}, err
	}
	e.record(ctx, events.JobReplaced, "job", j.ID, events.EventPayload{"status": j.Status})
	return j, nil
}

// DeleteJob removes the job only. Candidates pointing at it are left as they are.
func (e Engine) DeleteJob(ctx context.Context, id int64) error {
	if err := e.Store.DeleteJob(ctx, id); err != nil {
		return err
	}
	e.record(ctx, events.JobDeleted, "job", id, nil)
	return nil
}

type CandidateInput struct {
	Name   string
	Email  string
	JobID  int64
	Stage  domain.Stage
	Source *string
	Notes  *string
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ValidationError{Field: "email", Reason: fmt.Sprintf("%q is not a valid email address", email)}
	}
	return nil
}

func validateStage(s domain.Stage) error {
	if !s.Valid() {
		return ValidationError{Field: "stage", Reason: fmt.Sprintf("unknown stage %q", s)}
	}
	return nil
}

// CreateCandidate stores a new candidate for an existing job. Creation never
// notifies: there is no previous stage to transition from.
func (e Engine) CreateCandidate(ctx context.Context, in CandidateInput) (domain.Candidate, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Candidate{}, ValidationError{Field: "name", Reason: "is required"}
	}
	if err := validateEmail(in.Email); err != nil {
		return domain.Candidate{}, err
	}
	if in.Stage == "" {
		in.Stage = domain.StageApplied
	}
	if err := validateStage(in.Stage); err != nil {
		return domain.Candidate{}, err
	}
	if _, err := e.Store.GetJob(ctx, in.JobID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Candidate{}, ValidationError{Field: "job_id", Reason: fmt.Sprintf("job %d does not exist", in.JobID)}
		}
		return domain.Candidate{}, err
	}
	now := e.now()
	c, err := e.Store.CreateCandidate(ctx, domain.Candidate{
		Name:        in.Name,
		Email:       in.Email,
		JobID:       in.JobID,
		Stage:       in.Stage,
		Source:      in.Source,
		Notes:       in.Notes,
		AppliedDate: now,
		UpdatedDate: now,
	})
	if err != nil {
		return domain.Candidate{}, err
	}
	e.record(ctx, events.CandidateCreated, "candidate", c.ID, events.EventPayload{"job_id": c.JobID, "stage": c.Stage})
	return c, nil
}

func (e Engine) GetCandidate(ctx context.Context, id int64) (domain.Candidate, error) {
	return e.Store.GetCandidate(ctx, id)
}

func (e Engine) ListCandidates(ctx context.Context, f repo.CandidateFilter) ([]domain.Candidate, error) {
	return e.Store.ListCandidates(ctx, f)
}

// CandidateUpdate is a partial patch; nil fields keep their stored value.
type CandidateUpdate struct {
	ID     int64
	Name   *string
	Email  *string
	JobID  *int64
	Stage  *domain.Stage
	Source *string
	Notes  *string
}

// UpdateCandidate applies the patch, refreshes updated_date, and when the
// stage actually changed runs the stage notifier once. The notifier runs after
// the candidate write; if it fails the candidate stays updated and the failure
// is only logged.
func (e Engine) UpdateCandidate(ctx context.Context, upd CandidateUpdate) (domain.Candidate, error) {
	current, err := e.Store.GetCandidate(ctx, upd.ID)
	if err != nil {
		return domain.Candidate{}, err
	}
	next := current
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return domain.Candidate{}, ValidationError{Field: "name", Reason: "must not be empty"}
		}
		next.Name = *upd.Name
	}
	if upd.Email != nil {
		if err := validateEmail(*upd.Email); err != nil {
			return domain.Candidate{}, err
		}
		next.Email = *upd.Email
	}
	if upd.JobID != nil {
		next.JobID = *upd.JobID
	}
	if upd.Stage != nil {
		if err := validateStage(*upd.Stage); err != nil {
			return domain.Candidate{}, err
		}
		next.Stage = *upd.Stage
	}
	if upd.Source != nil {
		next.Source = upd.Source
	}
	if upd.Notes != nil {
		next.Notes = upd.Notes
	}
	next.UpdatedDate = e.now()

	saved, err := e.Store.ReplaceCandidate(ctx, next)
	if err != nil {
		return domain.Candidate{}, err
	}
	e.record(ctx, events.CandidateUpdated, "candidate", saved.ID, nil)

	if saved.Stage != current.Stage {
		e.stageChanged(ctx, saved, current.Stage)
	}
	return saved, nil
}

func (e Engine) stageChanged(ctx context.Context, c domain.Candidate, from domain.Stage) {
	e.record(ctx, events.CandidateStageChange, "candidate", c.ID, events.EventPayload{"from": from, "to": c.Stage})
	// Messages share the engine clock so their timestamp matches updated_date.
	n := e.Notifier
	n.Now = e.now
	msg, err := n.Notify(ctx, c, from, c.Stage)
	if err != nil {
		e.logf("candidate %d: stage %s -> %s: %v", c.ID, from, c.Stage, err)
		return
	}
	if msg == nil {
		return
	}
	e.record(ctx, events.MessageSent, "message", msg.ID, events.EventPayload{"candidate_id": c.ID, "related_stage": c.Stage})
}

func (e Engine) GetMessage(ctx context.Context, id int64) (domain.Message, error) {
	return e.Store.GetMessage(ctx, id)
}

func (e Engine) ListMessages(ctx context.Context, f repo.MessageFilter) ([]domain.Message, error) {
	return e.Store.ListMessages(ctx, f)
}

// ListCandidateMessages lists messages for an existing candidate.
func (e Engine) ListCandidateMessages(ctx context.Context, candidateID int64) ([]domain.Message, error) {
	if _, err := e.Store.GetCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	return e.Store.ListMessages(ctx, repo.MessageFilter{CandidateID: candidateID})
}

func (e Engine) ListEvents(ctx context.Context, f repo.EventFilter) ([]domain.Event, error) {
	return e.Store.ListEvents(ctx, f)
}
