// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll phase constants. Phases only move forward: phase1 -> phase2 -> closed.
const (
	PhasePhase1 = "phase1"
	PhasePhase2 = "phase2"
	PhaseClosed = "closed"
)

// Request types

type CandidateInput struct {
	Name    string `json:"name"`
	Ranking int    `json:"ranking"`
}

type StartPollRequest struct {
	TeamID          string           `json:"team_id"`
	Title           string           `json:"title"`
	DurationMinutes int              `json:"duration_minutes"`
	MemberIDs       []string         `json:"member_ids"`
	OccasionNote    string           `json:"occasion_note"`
	Candidates      []CandidateInput `json:"candidates"`
}

type Phase1VoteRequest struct {
	Approved []string `json:"approved"`
	Rejected string   `json:"rejected,omitempty"`
}

type RejectCandidateRequest struct {
	Candidate string `json:"candidate"`
}

type Phase2VoteRequest struct {
	Selected string `json:"selected"`
}

// Domain types

// Poll is the persistent poll record. Candidates live in their own table and
// are loaded separately.
type Poll struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	TeamID          string    `json:"team_id"`
	TeamName        string    `json:"team_name"`
	OccasionNote    string    `json:"occasion_note"`
	Phase           string    `json:"phase"`
	IsOpen          bool      `json:"is_open"`
	Frozen          bool      `json:"-"`
	DurationSeconds int       `json:"duration_seconds"`
	PhaseStartedAt  time.Time `json:"phase_started_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// Candidate is one menu option in a poll. Candidates are keyed by name and
// never deleted: rejection flips IsRejected and the row stays for audit.
type Candidate struct {
	PollID              string `json:"-"`
	Name                string `json:"name"`
	Ranking             int    `json:"ranking"`
	VoteCount           int    `json:"vote_count"`
	Phase1ApprovalCount int    `json:"phase1_approval_count"`
	IsRejected          bool   `json:"is_rejected"`
	InPhase2            bool   `json:"-"`
}

// Ballot is one user's phase-tagged selection. In phase1 Approved holds the
// approved candidate names and Rejected at most one vetoed name; in phase2
// Selected holds exactly one name.
type Ballot struct {
	PollID      string    `json:"poll_id"`
	UserID      string    `json:"user_id"`
	Phase       string    `json:"phase"`
	Approved    []string  `json:"approved,omitempty"`
	Rejected    string    `json:"rejected,omitempty"`
	Selected    string    `json:"selected,omitempty"`
	Invalidated bool      `json:"invalidated"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Read model

type CandidateView struct {
	Name                string `json:"name"`
	Ranking             int    `json:"ranking"`
	VoteCount           int    `json:"vote_count"`
	Phase1ApprovalCount int    `json:"phase1_approval_count"`
	IsRejected          bool   `json:"is_rejected"`
}

type ResultEntry struct {
	Position  int    `json:"position"`
	Name      string `json:"name"`
	VoteCount int    `json:"vote_count"`
	Ranking   int    `json:"ranking"`
}

// PollView is the caller-visible snapshot returned by every read and after
// every mutation. NeedsReview and InvalidatedCandidates are personalized to
// the requesting user.
type PollView struct {
	PollID                 string          `json:"poll_id"`
	Title                  string          `json:"title"`
	TeamID                 string          `json:"team_id"`
	TeamName               string          `json:"team_name"`
	OccasionNote           string          `json:"occasion_note"`
	Phase                  string          `json:"phase"`
	IsOpen                 bool            `json:"is_open"`
	StartedTime            time.Time       `json:"started_time"`
	RemainingSeconds       int             `json:"remaining_seconds"`
	LockedInUserCount      int             `json:"locked_in_user_count"`
	MemberCount            int             `json:"member_count"`
	HasCurrentUserLockedIn bool            `json:"has_current_user_locked_in"`
	NeedsReview            bool            `json:"needs_review"`
	InvalidatedCandidates  []string        `json:"invalidated_candidates"`
	Candidates             []CandidateView `json:"candidates"`
	Results                []ResultEntry   `json:"results"`
	Winner                 string          `json:"winner,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
