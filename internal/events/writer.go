package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hireline/internal/domain"
)

const (
	JobCreated           = "job.created"
	JobReplaced          = "job.replaced"
	JobDeleted           = "job.deleted"
	CandidateCreated     = "candidate.created"
	CandidateUpdated     = "candidate.updated"
	CandidateStageChange = "candidate.stage_changed"
	MessageSent          = "message.sent"
	JobBoardCreated      = "job_board.created"
	JobPostCreated       = "job_post.created"
)

// Appender is the slice of the store the writer needs.
type Appender interface {
	AppendEvent(ctx context.Context, e domain.Event) (domain.Event, error)
}

type Writer struct {
	Store Appender
	Now   func() time.Time
}

type EventPayload map[string]any

func (w Writer) Append(ctx context.Context, evtType, entityKind string, entityID int64, payload EventPayload) (domain.Event, error) {
	if w.Now == nil {
		w.Now = time.Now
	}
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("marshal event payload: %w", err)
	}
	return w.Store.AppendEvent(ctx, domain.Event{
		TS:         w.Now().UTC(),
		Type:       evtType,
		EntityKind: entityKind,
		EntityID:   entityID,
		Payload:    string(data),
	})
}
