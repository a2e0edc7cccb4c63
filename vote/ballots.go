// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veato/poll-server/models"
)

// BallotStore keeps the per-user, per-poll record of current selections with
// replace-or-revoke semantics. A ballot is invalidated, not deleted, when a
// candidate it references is vetoed; its owner must resubmit.
//
// Methods run inside the caller's transaction. Put/Revoke/Invalidate calls
// for one poll are serialized by the session façade's per-poll lock.
type BallotStore struct{}

// Put replaces any prior ballot for (pollID, userID) atomically.
func (s *BallotStore) Put(tx *sql.Tx, b *models.Ballot) error {
	approved, err := json.Marshal(b.Approved)
	if err != nil {
		return fmt.Errorf("failed to encode approvals: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM ballot WHERE poll_id = $1 AND user_id = $2
	`, b.PollID, b.UserID); err != nil {
		return fmt.Errorf("failed to clear prior ballot: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO ballot (poll_id, user_id, phase, approved, rejected, selection, invalidated, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.PollID, b.UserID, b.Phase, string(approved), b.Rejected, b.Selected,
		b.Invalidated, time.Now()); err != nil {
		return fmt.Errorf("failed to store ballot: %w", err)
	}
	return nil
}

// Get returns the stored ballot for (pollID, userID), or nil if none exists.
func (s *BallotStore) Get(tx *sql.Tx, pollID, userID string) (*models.Ballot, error) {
	var b models.Ballot
	var approved string
	err := tx.QueryRow(`
		SELECT poll_id, user_id, phase, approved, rejected, selection, invalidated, submitted_at
		FROM ballot
		WHERE poll_id = $1 AND user_id = $2
	`, pollID, userID).Scan(&b.PollID, &b.UserID, &b.Phase, &approved,
		&b.Rejected, &b.Selected, &b.Invalidated, &b.SubmittedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ballot: %w", err)
	}
	if err := json.Unmarshal([]byte(approved), &b.Approved); err != nil {
		return nil, fmt.Errorf("failed to decode approvals: %w", err)
	}
	return &b, nil
}

// Revoke removes the user's ballot. Revoking a nonexistent ballot is a no-op.
func (s *BallotStore) Revoke(tx *sql.Tx, pollID, userID string) error {
	if _, err := tx.Exec(`
		DELETE FROM ballot WHERE poll_id = $1 AND user_id = $2
	`, pollID, userID); err != nil {
		return fmt.Errorf("failed to revoke ballot: %w", err)
	}
	return nil
}

// InvalidateReferencing marks every still-valid ballot that references the
// candidate as invalidated and returns the affected ballots so the caller can
// reverse their ledger contributions and flag the owners for review.
func (s *BallotStore) InvalidateReferencing(tx *sql.Tx, pollID, candidateName string) ([]models.Ballot, error) {
	rows, err := tx.Query(`
		SELECT poll_id, user_id, phase, approved, rejected, selection, invalidated, submitted_at
		FROM ballot
		WHERE poll_id = $1 AND invalidated = FALSE
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	var affected []models.Ballot
	for rows.Next() {
		var b models.Ballot
		var approved string
		if err := rows.Scan(&b.PollID, &b.UserID, &b.Phase, &approved,
			&b.Rejected, &b.Selected, &b.Invalidated, &b.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		if err := json.Unmarshal([]byte(approved), &b.Approved); err != nil {
			return nil, fmt.Errorf("failed to decode approvals: %w", err)
		}
		if ballotReferences(&b, candidateName) {
			affected = append(affected, b)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range affected {
		if _, err := tx.Exec(`
			UPDATE ballot SET invalidated = TRUE
			WHERE poll_id = $1 AND user_id = $2
		`, pollID, b.UserID); err != nil {
			return nil, fmt.Errorf("failed to invalidate ballot of %s: %w", b.UserID, err)
		}
	}
	return affected, nil
}

// DiscardPhase1 deletes all phase-1 ballots of a poll. Used at the
// phase1 -> phase2 transition once their purpose is spent.
func (s *BallotStore) DiscardPhase1(tx *sql.Tx, pollID string) error {
	if _, err := tx.Exec(`
		DELETE FROM ballot WHERE poll_id = $1 AND phase = $2
	`, pollID, models.PhasePhase1); err != nil {
		return fmt.Errorf("failed to discard phase1 ballots: %w", err)
	}
	return nil
}

func ballotReferences(b *models.Ballot, candidateName string) bool {
	if b.Rejected == candidateName || b.Selected == candidateName {
		return true
	}
	for _, name := range b.Approved {
		if name == candidateName {
			return true
		}
	}
	return false
}
