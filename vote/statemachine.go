// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/veato/poll-server/models"
)

// StateMachine owns the poll's phase, lock-in accounting, rejection
// propagation, and winner determination. Phase-specific behavior is a switch
// on the phase tag; the two phases are closed and exhaustive.
//
// Every method runs inside a transaction held by the session façade, which
// also guarantees at most one mutation per poll at a time.
type StateMachine struct {
	ledger  *CandidateLedger
	ballots *BallotStore
}

func NewStateMachine() *StateMachine {
	return &StateMachine{ledger: &CandidateLedger{}, ballots: &BallotStore{}}
}

// Ledger exposes the candidate ledger for read-model construction.
func (m *StateMachine) Ledger() *CandidateLedger { return m.ledger }

// Ballots exposes the ballot store for read-model construction.
func (m *StateMachine) Ballots() *BallotStore { return m.ballots }

// LoadPoll reads the poll row or returns ErrNotFound.
func (m *StateMachine) LoadPoll(tx *sql.Tx, pollID string) (*models.Poll, error) {
	var p models.Poll
	err := tx.QueryRow(`
		SELECT id, title, team_id, team_name, occasion_note, phase, is_open, frozen,
		       duration_seconds, phase_started_at, created_at
		FROM poll
		WHERE id = $1
	`, pollID).Scan(&p.ID, &p.Title, &p.TeamID, &p.TeamName, &p.OccasionNote,
		&p.Phase, &p.IsOpen, &p.Frozen, &p.DurationSeconds, &p.PhaseStartedAt, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("poll %s: %w", pollID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query poll: %w", err)
	}
	return &p, nil
}

// PhaseDeadline returns when the poll's current phase expires. The total
// allotted duration is split evenly between the two phases.
func PhaseDeadline(p *models.Poll) time.Time {
	return p.PhaseStartedAt.Add(time.Duration(p.DurationSeconds/2) * time.Second)
}

// SubmitPhase1Vote registers the caller's approval set and optional veto,
// replacing any prior phase-1 ballot, and marks the caller locked in.
// A first-time veto takes effect immediately: the candidate is rejected in
// the ledger and every stored ballot referencing it is invalidated.
func (m *StateMachine) SubmitPhase1Vote(tx *sql.Tx, poll *models.Poll, userID string, approved []string, rejected string) error {
	if poll.Phase != models.PhasePhase1 {
		return fmt.Errorf("poll %s is in %s: %w", poll.ID, poll.Phase, ErrWrongPhase)
	}
	if err := m.requireMember(tx, poll.ID, userID); err != nil {
		return err
	}
	if rejected != "" && slices.Contains(approved, rejected) {
		return fmt.Errorf("candidate %q: %w", rejected, ErrConflictingSelection)
	}

	eligible, err := m.eligibleNames(tx, poll)
	if err != nil {
		return err
	}
	for _, name := range approved {
		if !eligible[name] {
			return fmt.Errorf("candidate %q: %w", name, ErrInvalidCandidate)
		}
	}
	if rejected != "" && !eligible[rejected] {
		return fmt.Errorf("candidate %q: %w", rejected, ErrInvalidCandidate)
	}

	// Withdraw the caller's prior ballot first so the rejection cascade below
	// never double-reverses it.
	if err := m.withdrawBallot(tx, poll, userID); err != nil {
		return err
	}

	if rejected != "" {
		if err := m.rejectCascade(tx, poll, rejected); err != nil {
			return err
		}
	}

	for _, name := range approved {
		if err := m.ledger.ApplyApproval(tx, poll.ID, name, 1); err != nil {
			return err
		}
	}
	if err := m.ballots.Put(tx, &models.Ballot{
		PollID:   poll.ID,
		UserID:   userID,
		Phase:    models.PhasePhase1,
		Approved: approved,
		Rejected: rejected,
	}); err != nil {
		return err
	}
	return m.setMemberFlags(tx, poll.ID, userID, true, false)
}

// RejectCandidate applies a veto outside a ballot submission. Legal only in
// phase 1; repeating a veto fails with ErrAlreadyRejected.
func (m *StateMachine) RejectCandidate(tx *sql.Tx, poll *models.Poll, name string) error {
	if poll.Phase != models.PhasePhase1 {
		return fmt.Errorf("poll %s is in %s: %w", poll.ID, poll.Phase, ErrWrongPhase)
	}
	c, err := m.ledger.Get(tx, poll.ID, name)
	if err != nil {
		return err
	}
	if c.IsRejected {
		return fmt.Errorf("candidate %q: %w", name, ErrAlreadyRejected)
	}
	return m.rejectCascade(tx, poll, name)
}

// rejectCascade rejects the candidate in the ledger, invalidates every stored
// ballot referencing it, reverses those ballots' counter contributions, and
// flags their owners for resubmission. An invalidated member no longer counts
// as locked in.
func (m *StateMachine) rejectCascade(tx *sql.Tx, poll *models.Poll, name string) error {
	if err := m.ledger.Reject(tx, poll.ID, name); err != nil {
		return err
	}
	affected, err := m.ballots.InvalidateReferencing(tx, poll.ID, name)
	if err != nil {
		return err
	}
	for _, b := range affected {
		for _, approvedName := range b.Approved {
			if err := m.ledger.ApplyApproval(tx, poll.ID, approvedName, -1); err != nil {
				return err
			}
		}
		if b.Selected != "" {
			if err := m.ledger.ApplyVote(tx, poll.ID, b.Selected, -1); err != nil {
				return err
			}
		}
		if err := m.setMemberFlags(tx, poll.ID, b.UserID, false, true); err != nil {
			return err
		}
	}
	slog.Info("candidate rejected",
		"poll_id", poll.ID,
		"candidate", name,
		"invalidated_ballots", len(affected),
	)
	return nil
}

// SubmitPhase2Vote replaces the caller's phase-2 selection. The net counter
// effect of a replacement is -1 on the old candidate and +1 on the new one.
func (m *StateMachine) SubmitPhase2Vote(tx *sql.Tx, poll *models.Poll, userID, selected string) error {
	if poll.Phase != models.PhasePhase2 {
		return fmt.Errorf("poll %s is in %s: %w", poll.ID, poll.Phase, ErrWrongPhase)
	}
	if err := m.requireMember(tx, poll.ID, userID); err != nil {
		return err
	}

	eligible, err := m.eligibleNames(tx, poll)
	if err != nil {
		return err
	}
	if !eligible[selected] {
		return fmt.Errorf("candidate %q: %w", selected, ErrInvalidCandidate)
	}

	if err := m.withdrawBallot(tx, poll, userID); err != nil {
		return err
	}
	if err := m.ledger.ApplyVote(tx, poll.ID, selected, 1); err != nil {
		return err
	}
	if err := m.ballots.Put(tx, &models.Ballot{
		PollID:   poll.ID,
		UserID:   userID,
		Phase:    models.PhasePhase2,
		Selected: selected,
	}); err != nil {
		return err
	}
	return m.setMemberFlags(tx, poll.ID, userID, true, false)
}

// RevokeBallot withdraws the caller's current ballot and clears their lock-in
// flag. Legal in either phase while the poll is open; revoking when no ballot
// exists still clears the flags and is not an error.
func (m *StateMachine) RevokeBallot(tx *sql.Tx, poll *models.Poll, userID string) error {
	if !poll.IsOpen {
		return fmt.Errorf("poll %s is closed: %w", poll.ID, ErrWrongPhase)
	}
	if err := m.requireMember(tx, poll.ID, userID); err != nil {
		return err
	}
	if err := m.withdrawBallot(tx, poll, userID); err != nil {
		return err
	}
	return m.setMemberFlags(tx, poll.ID, userID, false, false)
}

// withdrawBallot reverses the counter contributions of the user's stored
// ballot (unless it was already invalidated, in which case the cascade has
// reversed them) and deletes it.
func (m *StateMachine) withdrawBallot(tx *sql.Tx, poll *models.Poll, userID string) error {
	b, err := m.ballots.Get(tx, poll.ID, userID)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	if !b.Invalidated {
		for _, name := range b.Approved {
			if err := m.ledger.ApplyApproval(tx, poll.ID, name, -1); err != nil {
				return err
			}
		}
		if b.Selected != "" {
			if err := m.ledger.ApplyVote(tx, poll.ID, b.Selected, -1); err != nil {
				return err
			}
		}
	}
	return m.ballots.Revoke(tx, poll.ID, userID)
}

// TransitionToPhase2 computes the phase-1 survivor set and moves the poll
// into the runoff. Survivors are candidates that were never rejected and
// collected at least one approval; if that set is empty, every non-rejected
// candidate carries over so the runoff never starts with an empty pool.
// Phase-1 ballots are discarded and all lock-in flags reset.
func (m *StateMachine) TransitionToPhase2(tx *sql.Tx, poll *models.Poll) error {
	if poll.Phase != models.PhasePhase1 {
		return fmt.Errorf("poll %s is in %s: %w", poll.ID, poll.Phase, ErrWrongPhase)
	}

	candidates, err := m.ledger.ListEligible(tx, poll.ID, models.PhasePhase1)
	if err != nil {
		return err
	}
	var survivors []string
	for _, c := range candidates {
		if c.Phase1ApprovalCount > 0 {
			survivors = append(survivors, c.Name)
		}
	}
	if len(survivors) == 0 {
		for _, c := range candidates {
			survivors = append(survivors, c.Name)
		}
	}

	for _, name := range survivors {
		if _, err := tx.Exec(`
			UPDATE candidate SET in_phase2 = TRUE
			WHERE poll_id = $1 AND name = $2
		`, poll.ID, name); err != nil {
			return fmt.Errorf("failed to mark survivor %q: %w", name, err)
		}
	}

	if err := m.ballots.DiscardPhase1(tx, poll.ID); err != nil {
		return err
	}
	if err := m.resetMemberFlags(tx, poll.ID); err != nil {
		return err
	}

	now := time.Now()
	if _, err := tx.Exec(`
		UPDATE poll SET phase = $1, phase_started_at = $2
		WHERE id = $3
	`, models.PhasePhase2, now, poll.ID); err != nil {
		return fmt.Errorf("failed to advance poll phase: %w", err)
	}
	poll.Phase = models.PhasePhase2
	poll.PhaseStartedAt = now

	slog.Info("poll advanced to phase2",
		"poll_id", poll.ID,
		"survivors", len(survivors),
	)
	return nil
}

// Close concludes the runoff: the results ranking is computed, frozen, and
// the poll marked closed. Closing an already-closed poll is a no-op.
func (m *StateMachine) Close(tx *sql.Tx, poll *models.Poll) error {
	if poll.Phase == models.PhaseClosed {
		return nil
	}

	candidates, err := m.ledger.ListEligible(tx, poll.ID, models.PhasePhase2)
	if err != nil {
		return err
	}
	if poll.Phase == models.PhasePhase1 {
		// Closing straight out of phase1 only happens through operator paths;
		// rank whatever is still eligible there.
		candidates, err = m.ledger.ListEligible(tx, poll.ID, models.PhasePhase1)
		if err != nil {
			return err
		}
	}

	ranked := RankCandidates(candidates)
	for i, c := range ranked {
		if _, err := tx.Exec(`
			INSERT INTO poll_result (poll_id, position, name, vote_count, ranking)
			VALUES ($1, $2, $3, $4, $5)
		`, poll.ID, i+1, c.Name, c.VoteCount, c.Ranking); err != nil {
			return fmt.Errorf("failed to freeze result row: %w", err)
		}
	}

	now := time.Now()
	if _, err := tx.Exec(`
		UPDATE poll SET phase = $1, is_open = FALSE, phase_started_at = $2
		WHERE id = $3
	`, models.PhaseClosed, now, poll.ID); err != nil {
		return fmt.Errorf("failed to close poll: %w", err)
	}
	poll.Phase = models.PhaseClosed
	poll.IsOpen = false

	winner := ""
	if len(ranked) > 0 {
		winner = ranked[0].Name
	}
	slog.Info("poll closed", "poll_id", poll.ID, "winner", winner)
	return nil
}

// RankCandidates orders candidates by descending vote count, breaking ties by
// lowest initial ranking, then lexicographic name. The first entry is the
// winner.
func RankCandidates(candidates []models.Candidate) []models.Candidate {
	ranked := make([]models.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		if a.Ranking != b.Ranking {
			return a.Ranking < b.Ranking
		}
		return a.Name < b.Name
	})
	return ranked
}

func (m *StateMachine) eligibleNames(tx *sql.Tx, poll *models.Poll) (map[string]bool, error) {
	candidates, err := m.ledger.ListEligible(tx, poll.ID, poll.Phase)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		names[c.Name] = true
	}
	return names, nil
}

func (m *StateMachine) requireMember(tx *sql.Tx, pollID, userID string) error {
	var exists bool
	err := tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM poll_member WHERE poll_id = $1 AND user_id = $2)
	`, pollID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %s in poll %s: %w", userID, pollID, ErrNotFound)
	}
	return nil
}

func (m *StateMachine) setMemberFlags(tx *sql.Tx, pollID, userID string, lockedIn, needsReview bool) error {
	if _, err := tx.Exec(`
		UPDATE poll_member SET locked_in = $1, needs_review = $2
		WHERE poll_id = $3 AND user_id = $4
	`, lockedIn, needsReview, pollID, userID); err != nil {
		return fmt.Errorf("failed to update member flags: %w", err)
	}
	return nil
}

func (m *StateMachine) resetMemberFlags(tx *sql.Tx, pollID string) error {
	if _, err := tx.Exec(`
		UPDATE poll_member SET locked_in = FALSE, needs_review = FALSE
		WHERE poll_id = $1
	`, pollID); err != nil {
		return fmt.Errorf("failed to reset member flags: %w", err)
	}
	return nil
}
