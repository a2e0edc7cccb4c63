// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veato/poll-server/events"
	"github.com/veato/poll-server/models"
	"github.com/veato/poll-server/teams"
)

// Session is the single entry point external callers use. It serializes
// mutations per poll (at most one in flight), runs each mutation as one
// transaction (validate, mutate ledger and ballot store, recompute), and
// returns the refreshed read model. Reads take a shared lock and see a
// snapshot-consistent view, never a half-applied mutation.
type Session struct {
	db     *sql.DB
	sm     *StateMachine
	agg    *Aggregator
	teams  teams.Directory
	notify events.Notifier

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewSession(db *sql.DB, dir teams.Directory, notify events.Notifier) *Session {
	sm := NewStateMachine()
	return &Session{
		db:     db,
		sm:     sm,
		agg:    NewAggregator(sm),
		teams:  dir,
		notify: notify,
		locks:  make(map[string]*sync.RWMutex),
	}
}

// StartPoll creates a new poll in phase1 with the supplied candidate list.
// Candidate order and ranking arrive as an opaque precedence hint from the
// caller; lower ranking is preferred.
func (s *Session) StartPoll(teamID, title string, durationMinutes int, memberIDs []string, occasionNote string, candidates []models.CandidateInput) (*models.PollView, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidCandidate)
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("duration must be positive: %w", ErrInvalidCandidate)
	}
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("member list is empty: %w", ErrNotFound)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("candidate list is empty: %w", ErrInvalidCandidate)
	}
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.Name == "" || seen[c.Name] {
			return nil, fmt.Errorf("candidate %q duplicate or empty: %w", c.Name, ErrInvalidCandidate)
		}
		seen[c.Name] = true
	}

	teamName, err := s.teams.TeamName(teamID)
	if err != nil {
		if errors.Is(err, teams.ErrTeamNotFound) {
			return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
		}
		return nil, err
	}

	pollID := uuid.NewString()
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO poll (id, title, team_id, team_name, occasion_note, phase, is_open,
		                  frozen, duration_seconds, phase_started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, FALSE, $7, $8, $8)
	`, pollID, title, teamID, teamName, occasionNote, models.PhasePhase1,
		durationMinutes*60, now); err != nil {
		return nil, fmt.Errorf("failed to insert poll: %w", err)
	}

	for _, userID := range memberIDs {
		if _, err := tx.Exec(`
			INSERT INTO poll_member (poll_id, user_id, locked_in, needs_review)
			VALUES ($1, $2, FALSE, FALSE)
		`, pollID, userID); err != nil {
			return nil, fmt.Errorf("failed to insert member %s: %w", userID, err)
		}
	}

	for _, c := range candidates {
		if _, err := tx.Exec(`
			INSERT INTO candidate (poll_id, name, ranking, vote_count,
			                       phase1_approval_count, is_rejected, in_phase2)
			VALUES ($1, $2, $3, 0, 0, FALSE, FALSE)
		`, pollID, c.Name, c.Ranking); err != nil {
			return nil, fmt.Errorf("failed to insert candidate %q: %w", c.Name, err)
		}
	}

	poll, err := s.sm.LoadPoll(tx, pollID)
	if err != nil {
		return nil, err
	}
	view, err := s.agg.BuildView(tx, poll, "")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit poll creation: %w", err)
	}

	slog.Info("poll started",
		"poll_id", pollID,
		"team_id", teamID,
		"members", len(memberIDs),
		"candidates", len(candidates),
	)
	s.notify.Publish(events.Event{
		Type:   events.TypePollStarted,
		PollID: pollID,
		TeamID: teamID,
		Phase:  models.PhasePhase1,
	})
	return view, nil
}

// GetPoll returns the current read model. userID may be empty for an
// anonymous view. A poll whose phase deadline has passed is advanced first.
func (s *Session) GetPoll(pollID, userID string) (*models.PollView, error) {
	due, err := s.expiryDue(pollID)
	if err != nil {
		return nil, err
	}
	if due {
		// Re-checked under the write lock; a concurrent writer may have
		// advanced the poll already.
		return s.mutate(pollID, userID, func(*sql.Tx, *models.Poll) error { return nil })
	}

	lock := s.lockFor(pollID)
	lock.RLock()
	defer lock.RUnlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll, err := s.sm.LoadPoll(tx, pollID)
	if err != nil {
		return nil, err
	}
	return s.agg.BuildView(tx, poll, userID)
}

// SubmitPhase1Vote registers approvals and an optional veto for userID.
func (s *Session) SubmitPhase1Vote(pollID, userID string, approved []string, rejected string) (*models.PollView, error) {
	view, err := s.mutate(pollID, userID, func(tx *sql.Tx, poll *models.Poll) error {
		return s.sm.SubmitPhase1Vote(tx, poll, userID, approved, rejected)
	})
	if err != nil {
		return nil, err
	}
	if rejected != "" {
		s.notify.Publish(events.Event{
			Type:      events.TypeCandidateRejected,
			PollID:    pollID,
			TeamID:    view.TeamID,
			Candidate: rejected,
		})
	}
	return view, nil
}

// RejectCandidate vetoes a candidate without a ballot submission.
func (s *Session) RejectCandidate(pollID, candidateName string) (*models.PollView, error) {
	view, err := s.mutate(pollID, "", func(tx *sql.Tx, poll *models.Poll) error {
		return s.sm.RejectCandidate(tx, poll, candidateName)
	})
	if err != nil {
		return nil, err
	}
	s.notify.Publish(events.Event{
		Type:      events.TypeCandidateRejected,
		PollID:    pollID,
		TeamID:    view.TeamID,
		Candidate: candidateName,
	})
	return view, nil
}

// SubmitPhase2Vote records userID's runoff selection.
func (s *Session) SubmitPhase2Vote(pollID, userID, selected string) (*models.PollView, error) {
	return s.mutate(pollID, userID, func(tx *sql.Tx, poll *models.Poll) error {
		return s.sm.SubmitPhase2Vote(tx, poll, userID, selected)
	})
}

// RevokeBallot withdraws userID's current ballot.
func (s *Session) RevokeBallot(pollID, userID string) (*models.PollView, error) {
	return s.mutate(pollID, userID, func(tx *sql.Tx, poll *models.Poll) error {
		return s.sm.RevokeBallot(tx, poll, userID)
	})
}

// mutate runs one mutation under the poll's exclusive lock: load, lazy expiry
// check, the mutation itself, trigger recomputation, view build, commit.
// Either the whole pipeline commits or none of it does.
func (s *Session) mutate(pollID, userID string, fn func(tx *sql.Tx, poll *models.Poll) error) (*models.PollView, error) {
	lock := s.lockFor(pollID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll, err := s.sm.LoadPoll(tx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.Frozen {
		return nil, fmt.Errorf("poll %s is frozen: %w", pollID, ErrInternal)
	}
	phaseBefore := poll.Phase

	if err := s.agg.CheckExpiry(tx, poll, time.Now()); err != nil {
		return nil, s.handleMutationError(tx, poll, userID, err)
	}
	if err := fn(tx, poll); err != nil {
		return nil, s.handleMutationError(tx, poll, userID, err)
	}
	if err := s.agg.Recompute(tx, poll); err != nil {
		return nil, s.handleMutationError(tx, poll, userID, err)
	}

	view, err := s.agg.BuildView(tx, poll, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit mutation: %w", err)
	}

	if view.Phase != phaseBefore {
		evt := events.Event{
			Type:   events.TypePhaseAdvanced,
			PollID: pollID,
			TeamID: view.TeamID,
			Phase:  view.Phase,
		}
		if view.Phase == models.PhaseClosed {
			evt.Type = events.TypePollClosed
			evt.Winner = view.Winner
		}
		s.notify.Publish(evt)
	}
	return view, nil
}

// handleMutationError rolls the transaction back. A counter-invariant breach
// additionally freezes the poll: it signals a ledger/ballot-store desync that
// must never be silently repaired.
func (s *Session) handleMutationError(tx *sql.Tx, poll *models.Poll, userID string, err error) error {
	if !errors.Is(err, errInvariant) {
		return err
	}
	tx.Rollback()

	slog.Error("counter invariant breached, freezing poll",
		"poll_id", poll.ID,
		"phase", poll.Phase,
		"user_id", userID,
		"error", err,
	)
	if _, ferr := s.db.Exec(`UPDATE poll SET frozen = TRUE WHERE id = $1`, poll.ID); ferr != nil {
		slog.Error("failed to freeze poll", "poll_id", poll.ID, "error", ferr)
	}
	return fmt.Errorf("poll %s frozen after invariant breach: %w", poll.ID, ErrInternal)
}

// expiryDue peeks at the poll's deadline without taking the write lock.
func (s *Session) expiryDue(pollID string) (bool, error) {
	var phase string
	var frozen bool
	var durationSeconds int
	var phaseStartedAt time.Time
	err := s.db.QueryRow(`
		SELECT phase, frozen, duration_seconds, phase_started_at FROM poll WHERE id = $1
	`, pollID).Scan(&phase, &frozen, &durationSeconds, &phaseStartedAt)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("poll %s: %w", pollID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to query poll: %w", err)
	}
	// A frozen poll stays readable but is never advanced.
	if phase == models.PhaseClosed || frozen {
		return false, nil
	}
	deadline := phaseStartedAt.Add(time.Duration(durationSeconds/2) * time.Second)
	return !time.Now().Before(deadline), nil
}

// lockFor returns the poll's lock, creating it on first use. Locks are never
// evicted; a closed poll's lock is a few dozen bytes.
func (s *Session) lockFor(pollID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[pollID]
	if !ok {
		lock = &sync.RWMutex{}
		s.locks[pollID] = lock
	}
	return lock
}
