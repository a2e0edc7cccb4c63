// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"database/sql"
	"fmt"

	"github.com/veato/poll-server/models"
)

// CandidateLedger holds the ordered candidate set of a poll and its
// aggregated counters. All methods run inside the caller's transaction;
// serialization across callers is the session façade's job.
//
// Counters only move up on cast and down on revoke, never below zero. A
// decrement that would go negative means the ballot store and ledger have
// desynced, which is a bug, not a client error.
type CandidateLedger struct{}

// ListEligible returns the poll's candidates that can still receive votes in
// the given phase, in initial-ranking order. Rejected candidates are always
// excluded; in phase2 only the survivor set qualifies.
func (l *CandidateLedger) ListEligible(tx *sql.Tx, pollID, phase string) ([]models.Candidate, error) {
	query := `
		SELECT poll_id, name, ranking, vote_count, phase1_approval_count, is_rejected, in_phase2
		FROM candidate
		WHERE poll_id = $1 AND is_rejected = FALSE
		ORDER BY ranking, name
	`
	if phase == models.PhasePhase2 {
		query = `
			SELECT poll_id, name, ranking, vote_count, phase1_approval_count, is_rejected, in_phase2
			FROM candidate
			WHERE poll_id = $1 AND is_rejected = FALSE AND in_phase2 = TRUE
			ORDER BY ranking, name
		`
	}

	rows, err := tx.Query(query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.PollID, &c.Name, &c.Ranking, &c.VoteCount,
			&c.Phase1ApprovalCount, &c.IsRejected, &c.InPhase2); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ListAll returns every candidate of the poll, rejected ones included.
func (l *CandidateLedger) ListAll(tx *sql.Tx, pollID string) ([]models.Candidate, error) {
	rows, err := tx.Query(`
		SELECT poll_id, name, ranking, vote_count, phase1_approval_count, is_rejected, in_phase2
		FROM candidate
		WHERE poll_id = $1
		ORDER BY ranking, name
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.PollID, &c.Name, &c.Ranking, &c.VoteCount,
			&c.Phase1ApprovalCount, &c.IsRejected, &c.InPhase2); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// Get returns a single candidate or ErrNotFound.
func (l *CandidateLedger) Get(tx *sql.Tx, pollID, name string) (*models.Candidate, error) {
	var c models.Candidate
	err := tx.QueryRow(`
		SELECT poll_id, name, ranking, vote_count, phase1_approval_count, is_rejected, in_phase2
		FROM candidate
		WHERE poll_id = $1 AND name = $2
	`, pollID, name).Scan(&c.PollID, &c.Name, &c.Ranking, &c.VoteCount,
		&c.Phase1ApprovalCount, &c.IsRejected, &c.InPhase2)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("candidate %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate: %w", err)
	}
	return &c, nil
}

// Reject flips the candidate's rejected flag. A rejected candidate never
// re-enters eligibility. Returns ErrNotFound for an unknown name and
// ErrAlreadyRejected for a repeated veto.
func (l *CandidateLedger) Reject(tx *sql.Tx, pollID, name string) error {
	res, err := tx.Exec(`
		UPDATE candidate SET is_rejected = TRUE
		WHERE poll_id = $1 AND name = $2 AND is_rejected = FALSE
	`, pollID, name)
	if err != nil {
		return fmt.Errorf("failed to reject candidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rejection: %w", err)
	}
	if n == 0 {
		c, err := l.Get(tx, pollID, name)
		if err != nil {
			return err
		}
		if c.IsRejected {
			return fmt.Errorf("candidate %q: %w", name, ErrAlreadyRejected)
		}
		return fmt.Errorf("candidate %q: %w", name, ErrNotFound)
	}
	return nil
}

// ApplyApproval moves the phase-1 approval counter by delta.
func (l *CandidateLedger) ApplyApproval(tx *sql.Tx, pollID, name string, delta int) error {
	return l.applyDelta(tx, pollID, name, "phase1_approval_count", delta)
}

// ApplyVote moves the phase-2 vote counter by delta.
func (l *CandidateLedger) ApplyVote(tx *sql.Tx, pollID, name string, delta int) error {
	return l.applyDelta(tx, pollID, name, "vote_count", delta)
}

func (l *CandidateLedger) applyDelta(tx *sql.Tx, pollID, name, column string, delta int) error {
	// column is one of two fixed identifiers, never caller input.
	res, err := tx.Exec(`
		UPDATE candidate SET `+column+` = `+column+` + $1
		WHERE poll_id = $2 AND name = $3 AND `+column+` + $1 >= 0
	`, delta, pollID, name)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s update: %w", column, err)
	}
	if n == 0 {
		if _, err := l.Get(tx, pollID, name); err != nil {
			return err
		}
		// The candidate exists, so the guard stopped a below-zero decrement.
		return fmt.Errorf("%s of candidate %q would go below zero (delta %d): %w",
			column, name, delta, errInvariant)
	}
	return nil
}
