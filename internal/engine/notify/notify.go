// Package notify turns candidate stage transitions into outbound messages.
package notify

import (
	"context"
	"fmt"
	"time"

	"hireline/internal/domain"
)

// Rule maps one ordered stage transition to a message body.
type Rule struct {
	From domain.Stage
	To   domain.Stage
	Body string
}

// DefaultRules is the closed transition table. Pairs not listed here send nothing.
var DefaultRules = []Rule{
	{From: domain.StageApplied, To: domain.StageScreening, Body: "Thanks for applying! Our team will review your profile."},
	{From: domain.StageScreening, To: domain.StageInterview, Body: "Congrats! We'd like to schedule an interview."},
	{From: domain.StageOffer, To: domain.StageHired, Body: "Welcome aboard! We're excited to have you join us."},
}

// MessageWriter persists a message and assigns its id.
type MessageWriter interface {
	CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error)
}

type Notifier struct {
	Rules    []Rule
	Messages MessageWriter
	Now      func() time.Time
}

func New(w MessageWriter) Notifier {
	return Notifier{Rules: DefaultRules, Messages: w, Now: time.Now}
}

func (n Notifier) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// Lookup finds the rule for the exact ordered pair (from, to).
func (n Notifier) Lookup(from, to domain.Stage) (Rule, bool) {
	for _, r := range n.Rules {
		if r.From == from && r.To == to {
			return r, true
		}
	}
	return Rule{}, false
}

func Subject(stage domain.Stage) string {
	return fmt.Sprintf("Update on your application (%s)", stage)
}

// Notify stores and returns the message for the transition, or returns nil
// when no rule matches. An unmatched transition is not an error.
func (n Notifier) Notify(ctx context.Context, c domain.Candidate, from, to domain.Stage) (*domain.Message, error) {
	rule, ok := n.Lookup(from, to)
	if !ok {
		return nil, nil
	}
	if n.Messages == nil {
		return nil, fmt.Errorf("notify: no message writer configured")
	}
	related := to
	msg, err := n.Messages.CreateMessage(ctx, domain.Message{
		CandidateID:  c.ID,
		ToName:       c.Name,
		ToEmail:      c.Email,
		Subject:      Subject(to),
		Body:         rule.Body,
		Trigger:      domain.TriggerStageChange,
		RelatedStage: &related,
		Timestamp:    n.now().UTC(),
		Status:       domain.MessageSent,
	})
	if err != nil {
		return nil, fmt.Errorf("store stage change message for candidate %d: %w", c.ID, err)
	}
	return &msg, nil
}
