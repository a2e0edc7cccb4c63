// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/veato/poll-server/models"
)

// Aggregator recomputes derived poll state after every mutation: whether a
// phase transition is now due, and the caller-visible read model. The
// recomputation is synchronous, inside the same transaction that applied the
// mutation. Duration expiry is evaluated lazily on the next touch of the
// poll; there is no background sweep.
type Aggregator struct {
	sm *StateMachine
}

func NewAggregator(sm *StateMachine) *Aggregator {
	return &Aggregator{sm: sm}
}

// Recompute checks the lock-in completeness trigger and advances the poll if
// every member has locked in for the active phase.
func (a *Aggregator) Recompute(tx *sql.Tx, poll *models.Poll) error {
	if poll.Phase == models.PhaseClosed {
		return nil
	}
	members, lockedIn, err := a.memberCounts(tx, poll.ID)
	if err != nil {
		return err
	}
	if members == 0 || lockedIn < members {
		return nil
	}

	switch poll.Phase {
	case models.PhasePhase1:
		return a.sm.TransitionToPhase2(tx, poll)
	case models.PhasePhase2:
		return a.sm.Close(tx, poll)
	}
	return nil
}

// CheckExpiry advances the poll if its current phase deadline has passed.
// Called before every read or write that touches the poll.
func (a *Aggregator) CheckExpiry(tx *sql.Tx, poll *models.Poll, now time.Time) error {
	if poll.Phase == models.PhaseClosed || now.Before(PhaseDeadline(poll)) {
		return nil
	}
	switch poll.Phase {
	case models.PhasePhase1:
		return a.sm.TransitionToPhase2(tx, poll)
	case models.PhasePhase2:
		return a.sm.Close(tx, poll)
	}
	return nil
}

// BuildView assembles the snapshot returned to the caller. NeedsReview and
// InvalidatedCandidates are personalized to userID; an empty userID yields
// the anonymous view.
func (a *Aggregator) BuildView(tx *sql.Tx, poll *models.Poll, userID string) (*models.PollView, error) {
	view := &models.PollView{
		PollID:                poll.ID,
		Title:                 poll.Title,
		TeamID:                poll.TeamID,
		TeamName:              poll.TeamName,
		OccasionNote:          poll.OccasionNote,
		Phase:                 poll.Phase,
		IsOpen:                poll.IsOpen,
		StartedTime:           poll.CreatedAt,
		InvalidatedCandidates: []string{},
		Candidates:            []models.CandidateView{},
		Results:               []models.ResultEntry{},
	}

	if poll.IsOpen {
		remaining := time.Until(PhaseDeadline(poll))
		if remaining > 0 {
			view.RemainingSeconds = int(remaining.Seconds())
		}
	}

	members, lockedIn, err := a.memberCounts(tx, poll.ID)
	if err != nil {
		return nil, err
	}
	view.MemberCount = members
	view.LockedInUserCount = lockedIn

	candidates, err := a.sm.Ledger().ListEligible(tx, poll.ID, poll.Phase)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		view.Candidates = append(view.Candidates, models.CandidateView{
			Name:                c.Name,
			Ranking:             c.Ranking,
			VoteCount:           c.VoteCount,
			Phase1ApprovalCount: c.Phase1ApprovalCount,
			IsRejected:          c.IsRejected,
		})
	}

	if poll.Phase == models.PhaseClosed {
		results, err := a.loadResults(tx, poll.ID)
		if err != nil {
			return nil, err
		}
		view.Results = results
		if len(results) > 0 {
			view.Winner = results[0].Name
		}
	}

	if userID != "" {
		if err := a.fillUserState(tx, poll, userID, view); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (a *Aggregator) fillUserState(tx *sql.Tx, poll *models.Poll, userID string, view *models.PollView) error {
	var lockedIn, needsReview bool
	err := tx.QueryRow(`
		SELECT locked_in, needs_review FROM poll_member
		WHERE poll_id = $1 AND user_id = $2
	`, poll.ID, userID).Scan(&lockedIn, &needsReview)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query member state: %w", err)
	}
	view.HasCurrentUserLockedIn = lockedIn
	view.NeedsReview = needsReview

	if !needsReview {
		return nil
	}
	// Tell the user which of their picks got vetoed out from under them.
	b, err := a.sm.Ballots().Get(tx, poll.ID, userID)
	if err != nil {
		return err
	}
	if b == nil || !b.Invalidated {
		return nil
	}
	refs := b.Approved
	if b.Selected != "" {
		refs = append(refs, b.Selected)
	}
	for _, name := range refs {
		c, err := a.sm.Ledger().Get(tx, poll.ID, name)
		if err != nil {
			return err
		}
		if c.IsRejected {
			view.InvalidatedCandidates = append(view.InvalidatedCandidates, name)
		}
	}
	return nil
}

func (a *Aggregator) loadResults(tx *sql.Tx, pollID string) ([]models.ResultEntry, error) {
	rows, err := tx.Query(`
		SELECT position, name, vote_count, ranking
		FROM poll_result
		WHERE poll_id = $1
		ORDER BY position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []models.ResultEntry{}
	for rows.Next() {
		var r models.ResultEntry
		if err := rows.Scan(&r.Position, &r.Name, &r.VoteCount, &r.Ranking); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (a *Aggregator) memberCounts(tx *sql.Tx, pollID string) (members, lockedIn int, err error) {
	err = tx.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN locked_in THEN 1 ELSE 0 END), 0)
		FROM poll_member
		WHERE poll_id = $1
	`, pollID).Scan(&members, &lockedIn)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count members: %w", err)
	}
	return members, lockedIn, nil
}
