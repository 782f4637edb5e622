package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hireline/internal/domain"
)

type sink struct{ got []domain.Event }

func (s *sink) AppendEvent(_ context.Context, e domain.Event) (domain.Event, error) {
	e.ID = int64(len(s.got) + 1)
	s.got = append(s.got, e)
	return e, nil
}

func TestAppend(t *testing.T) {
	s := &sink{}
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.FixedZone("X", 3600))
	w := Writer{Store: s, Now: func() time.Time { return ts }}

	e, err := w.Append(context.Background(), CandidateStageChange, "candidate", 9, EventPayload{"from": "Applied", "to": "Screening"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if e.ID != 1 || e.EntityID != 9 || e.EntityKind != "candidate" || e.Type != "candidate.stage_changed" {
		t.Fatalf("unexpected event %+v", e)
	}
	if e.TS.Location() != time.UTC || !e.TS.Equal(ts) {
		t.Fatalf("timestamp not normalized to UTC: %v", e.TS)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil || payload["to"] != "Screening" {
		t.Fatalf("payload %q: %v", e.Payload, err)
	}

	e, _ = w.Append(context.Background(), JobDeleted, "job", 1, nil)
	if e.Payload != "{}" {
		t.Fatalf("nil payload should encode as {}, got %q", e.Payload)
	}
}
