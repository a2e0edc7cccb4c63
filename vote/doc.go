// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package vote implements the two-phase group voting core.

# Protocol

A poll moves through exactly three phases, forward only:

	phase1 ──> phase2 ──> closed

In phase1 each member submits one ballot approving any number of candidates
and optionally vetoing one. A veto takes effect immediately: the candidate is
rejected for good and every stored ballot referencing it is invalidated,
sending its owner back to resubmit. In phase2 each member selects exactly one
survivor; resubmitting replaces the prior selection. When the poll closes the
ranking is frozen and the top entry is the winner. Ties break by the
candidate's initial ranking, then by name.

A phase ends when every member has locked in, or when the phase deadline
passes. The total poll duration is split evenly between the phases, and
expiry is evaluated lazily on the next touch of the poll; there is no
background sweep.

# Components

  - CandidateLedger: candidate rows and their counters
  - BallotStore: per-user current selections with replace-or-revoke semantics
  - StateMachine: phase transitions, veto cascade, winner determination
  - Aggregator: transition triggers and the caller-visible read model
  - Session: the single public entry point; per-poll locking, transactions,
    lifecycle notifications

External callers use only Session:

	session := vote.NewSession(db, teamDirectory, notifier)
	view, err := session.SubmitPhase1Vote(pollID, userID, approved, rejected)

Every mutation runs as one transaction under the poll's exclusive lock and
returns the refreshed view. Reads take a shared lock.

# Error Taxonomy

Client errors are sentinel values checked with errors.Is: ErrWrongPhase,
ErrInvalidCandidate, ErrConflictingSelection, ErrAlreadyRejected,
ErrNotFound. ErrInternal marks a fatal consistency failure; the poll is
frozen from further mutation (reads keep working) and an operator has to
intervene.
*/
package vote
