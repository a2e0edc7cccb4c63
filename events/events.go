// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import "time"

// Event types emitted over the poll lifecycle. Clients use these to refresh
// their poll view instead of tight-polling.
const (
	TypePollStarted       = "poll_started"
	TypeCandidateRejected = "candidate_rejected"
	TypePhaseAdvanced     = "phase_advanced"
	TypePollClosed        = "poll_closed"
)

// Event is one poll lifecycle notification.
type Event struct {
	Type      string    `json:"type"`
	PollID    string    `json:"poll_id"`
	TeamID    string    `json:"team_id"`
	Phase     string    `json:"phase,omitempty"`
	Candidate string    `json:"candidate,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier publishes poll lifecycle events. Publishing is best-effort: the
// voting core never fails a mutation over a notification problem.
type Notifier interface {
	Publish(evt Event)
}

// Nop is a Notifier that discards everything. Used in tests and when no
// broker is configured.
type Nop struct{}

func (Nop) Publish(Event) {}
