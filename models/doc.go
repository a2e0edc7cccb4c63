// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - StartPollRequest: team_id, title, duration_minutes, member_ids,
    occasion_note, candidates
  - Phase1VoteRequest: approved (names), rejected (at most one name)
  - RejectCandidateRequest: candidate
  - Phase2VoteRequest: selected

# Domain Types

Internal data structures:

  - Poll: poll metadata, phase, and timing
  - Candidate: one menu option with its counters
  - Ballot: one user's phase-tagged selection

# Read Model

PollView is the snapshot returned by every read and after every mutation.
HasCurrentUserLockedIn, NeedsReview, and InvalidatedCandidates are
personalized to the requesting user; the rest is shared. Results and Winner
are only populated once the poll is closed.

# Constants

Phase values:

	PhasePhase1 = "phase1"
	PhasePhase2 = "phase2"
	PhaseClosed = "closed"
*/
package models
