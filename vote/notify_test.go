// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"testing"

	"github.com/veato/poll-server/events"
)

// recorder captures published events in order.
type recorder struct {
	events []events.Event
}

func (r *recorder) Publish(evt events.Event) {
	r.events = append(r.events, evt)
}

func TestLifecycleEvents(t *testing.T) {
	s, _ := newTestSession(t)
	rec := &recorder{}
	s.notify = rec

	pollID := startTestPoll(t, s, []string{"u1", "u2"})
	if _, err := s.RejectCandidate(pollID, "Burger"); err != nil {
		t.Fatalf("RejectCandidate() error = %v", err)
	}
	if _, err := s.SubmitPhase1Vote(pollID, "u1", []string{"Pizza"}, ""); err != nil {
		t.Fatalf("u1 vote error = %v", err)
	}
	if _, err := s.SubmitPhase1Vote(pollID, "u2", []string{"Pizza"}, ""); err != nil {
		t.Fatalf("u2 vote error = %v", err)
	}
	if _, err := s.SubmitPhase2Vote(pollID, "u1", "Pizza"); err != nil {
		t.Fatalf("u1 runoff vote error = %v", err)
	}
	if _, err := s.SubmitPhase2Vote(pollID, "u2", "Pizza"); err != nil {
		t.Fatalf("u2 runoff vote error = %v", err)
	}

	wantTypes := []string{
		events.TypePollStarted,
		events.TypeCandidateRejected,
		events.TypePhaseAdvanced,
		events.TypePollClosed,
	}
	if len(rec.events) != len(wantTypes) {
		t.Fatalf("Expected %d events, got %d: %+v", len(wantTypes), len(rec.events), rec.events)
	}
	for i, want := range wantTypes {
		if rec.events[i].Type != want {
			t.Errorf("Event %d type = %s, want %s", i, rec.events[i].Type, want)
		}
	}
	closed := rec.events[len(rec.events)-1]
	if closed.Winner != "Pizza" {
		t.Errorf("Closed event winner = %q, want Pizza", closed.Winner)
	}
}
