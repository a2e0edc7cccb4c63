// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Veato poll API.

# Handler Types

Each handler is a struct holding the voting session facade:

  - PollHandler: poll creation and retrieval
  - VotingHandler: phase1 ballots, vetoes, phase2 ballots, revocation

Handlers are created via constructor functions:

	pollHandler := handlers.NewPollHandler(session)
	votingHandler := handlers.NewVotingHandler(session)

# Caller Identity

Voting endpoints read the caller's user ID from the X-User-Id header;
authentication happens upstream. GET endpoints treat a missing header as an
anonymous view. The veto endpoint needs no identity: a veto is anonymous by
design of the protocol.

# Error Mapping

WriteVoteError maps the vote package's error taxonomy onto HTTP statuses:

	ErrNotFound                              -> 404
	ErrWrongPhase, ErrAlreadyRejected        -> 409
	ErrInvalidCandidate, ErrConflicting...   -> 400
	ErrInternal (frozen poll)                -> 500

Validation of the request shape itself (missing fields, bad JSON) happens in
the handler and returns 400 before the voting core is touched.
*/
package handlers
