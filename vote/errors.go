// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import "errors"

// Client errors. These are returned to the caller synchronously and are
// recoverable by resubmitting a corrected request.
var (
	// ErrWrongPhase means the operation is not legal in the poll's current phase.
	ErrWrongPhase = errors.New("operation not allowed in current phase")

	// ErrInvalidCandidate means a referenced candidate is unknown or no longer eligible.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrConflictingSelection means the same candidate was both approved and rejected.
	ErrConflictingSelection = errors.New("candidate cannot be approved and rejected")

	// ErrAlreadyRejected means the candidate was already vetoed.
	ErrAlreadyRejected = errors.New("candidate already rejected")

	// ErrNotFound means the poll, team, or user is unknown.
	ErrNotFound = errors.New("not found")
)

// ErrInternal marks a fatal internal-consistency failure. The poll is frozen
// from further mutation and the error is never retried or masked as a client
// error.
var ErrInternal = errors.New("internal consistency failure")

// errInvariant signals a counter invariant breach inside the ledger (a
// decrement that would go below zero). The session façade converts it to
// ErrInternal after freezing the poll.
var errInvariant = errors.New("counter invariant violated")

// IsClientError reports whether err belongs to the recoverable client-error
// taxonomy, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrWrongPhase) ||
		errors.Is(err, ErrInvalidCandidate) ||
		errors.Is(err, ErrConflictingSelection) ||
		errors.Is(err, ErrAlreadyRejected) ||
		errors.Is(err, ErrNotFound)
}
