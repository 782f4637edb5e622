package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"hireline/internal/domain"
)

type recorder struct {
	msgs []domain.Message
	err  error
}

func (r *recorder) CreateMessage(_ context.Context, m domain.Message) (domain.Message, error) {
	if r.err != nil {
		return domain.Message{}, r.err
	}
	m.ID = int64(len(r.msgs) + 1)
	r.msgs = append(r.msgs, m)
	return m, nil
}

var fixed = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func TestNotifyAllPairs(t *testing.T) {
	want := map[[2]domain.Stage]string{
		{domain.StageApplied, domain.StageScreening}: "Thanks for applying! Our team will review your profile.",
		{domain.StageScreening, domain.StageInterview}: "Congrats! We'd like to schedule an interview.",
		{domain.StageOffer, domain.StageHired}:         "Welcome aboard! We're excited to have you join us.",
	}
	cand := domain.Candidate{ID: 7, Name: "Ada", Email: "ada@example.com"}
	for _, from := range domain.Stages {
		for _, to := range domain.Stages {
			rec := &recorder{}
			n := New(rec)
			n.Now = func() time.Time { return fixed }
			msg, err := n.Notify(context.Background(), cand, from, to)
			if err != nil {
				t.Fatalf("%s->%s: %v", from, to, err)
			}
			body, ok := want[[2]domain.Stage{from, to}]
			if !ok {
				if msg != nil || len(rec.msgs) != 0 {
					t.Fatalf("%s->%s: expected no message", from, to)
				}
				continue
			}
			if msg == nil || len(rec.msgs) != 1 {
				t.Fatalf("%s->%s: expected one message", from, to)
			}
			if msg.Body != body {
				t.Fatalf("%s->%s: body %q", from, to, msg.Body)
			}
			if msg.Subject != "Update on your application ("+string(to)+")" {
				t.Fatalf("%s->%s: subject %q", from, to, msg.Subject)
			}
			if msg.CandidateID != 7 || msg.ToName != "Ada" || msg.ToEmail != "ada@example.com" {
				t.Fatalf("%s->%s: recipient %+v", from, to, msg)
			}
			if msg.Trigger != domain.TriggerStageChange || msg.Status != domain.MessageSent || !msg.Timestamp.Equal(fixed) {
				t.Fatalf("%s->%s: metadata %+v", from, to, msg)
			}
			if msg.RelatedStage == nil || *msg.RelatedStage != to {
				t.Fatalf("%s->%s: related stage %v", from, to, msg.RelatedStage)
			}
		}
	}
}

func TestNotifyIsDirectional(t *testing.T) {
	n := New(&recorder{})
	if _, ok := n.Lookup(domain.StageScreening, domain.StageApplied); ok {
		t.Fatalf("reverse transition must not match")
	}
	if _, ok := n.Lookup(domain.StageApplied, domain.StageInterview); ok {
		t.Fatalf("skipped stage must not match")
	}
}

func TestNotifyStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	n := New(&recorder{err: boom})
	_, err := n.Notify(context.Background(), domain.Candidate{ID: 1}, domain.StageOffer, domain.StageHired)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestCustomRules(t *testing.T) {
	rec := &recorder{}
	n := Notifier{
		Rules:    []Rule{{From: domain.StageInterview, To: domain.StageRejected, Body: "Thank you for your time."}},
		Messages: rec,
	}
	msg, err := n.Notify(context.Background(), domain.Candidate{ID: 3}, domain.StageInterview, domain.StageRejected)
	if err != nil || msg == nil || msg.Body != "Thank you for your time." {
		t.Fatalf("custom rule: %v %+v", err, msg)
	}
	if msg, _ := n.Notify(context.Background(), domain.Candidate{ID: 3}, domain.StageApplied, domain.StageScreening); msg != nil {
		t.Fatalf("default rules must not apply when Rules is replaced")
	}
}
