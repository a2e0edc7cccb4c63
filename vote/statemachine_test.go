// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"testing"
	"time"

	"github.com/veato/poll-server/models"
)

func TestRankCandidates(t *testing.T) {
	tests := []struct {
		name       string
		candidates []models.Candidate
		wantOrder  []string
	}{
		{
			name: "vote count decides",
			candidates: []models.Candidate{
				{Name: "Sushi", Ranking: 2, VoteCount: 3},
				{Name: "Pizza", Ranking: 1, VoteCount: 1},
			},
			wantOrder: []string{"Sushi", "Pizza"},
		},
		{
			name: "vote tie falls back to ranking",
			candidates: []models.Candidate{
				{Name: "Sushi", Ranking: 2, VoteCount: 2},
				{Name: "Pizza", Ranking: 1, VoteCount: 2},
			},
			wantOrder: []string{"Pizza", "Sushi"},
		},
		{
			name: "full tie falls back to name",
			candidates: []models.Candidate{
				{Name: "Udon", Ranking: 1, VoteCount: 2},
				{Name: "Bibimbap", Ranking: 1, VoteCount: 2},
			},
			wantOrder: []string{"Bibimbap", "Udon"},
		},
		{
			name:       "empty list",
			candidates: nil,
			wantOrder:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := RankCandidates(tt.candidates)
			if len(ranked) != len(tt.wantOrder) {
				t.Fatalf("RankCandidates() returned %d entries, want %d", len(ranked), len(tt.wantOrder))
			}
			for i, want := range tt.wantOrder {
				if ranked[i].Name != want {
					t.Errorf("Position %d = %s, want %s", i+1, ranked[i].Name, want)
				}
			}
		})
	}
}

func TestRankCandidatesDoesNotMutateInput(t *testing.T) {
	in := []models.Candidate{
		{Name: "Pizza", Ranking: 1, VoteCount: 0},
		{Name: "Sushi", Ranking: 2, VoteCount: 5},
	}
	RankCandidates(in)
	if in[0].Name != "Pizza" {
		t.Error("Expected RankCandidates to sort a copy, not the input")
	}
}

func TestPhaseDeadline(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := &models.Poll{DurationSeconds: 1800, PhaseStartedAt: start}

	// A 30 minute poll gives each phase 15 minutes
	want := start.Add(15 * time.Minute)
	if got := PhaseDeadline(p); !got.Equal(want) {
		t.Errorf("PhaseDeadline() = %v, want %v", got, want)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, conn := newTestSession(t)
	pollID := startTestPoll(t, s, []string{"u1"})

	// Drive the single-member poll all the way to closed
	if _, err := s.SubmitPhase1Vote(pollID, "u1", []string{"Pizza"}, ""); err != nil {
		t.Fatalf("Phase1 vote error = %v", err)
	}
	view, err := s.SubmitPhase2Vote(pollID, "u1", "Pizza")
	if err != nil {
		t.Fatalf("Phase2 vote error = %v", err)
	}
	if view.Phase != models.PhaseClosed {
		t.Fatalf("Expected closed, got %s", view.Phase)
	}

	sm := NewStateMachine()
	tx, err := conn.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	poll, err := sm.LoadPoll(tx, pollID)
	if err != nil {
		t.Fatalf("LoadPoll() error = %v", err)
	}
	if err := sm.Close(tx, poll); err != nil {
		t.Errorf("Re-closing a closed poll error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit error = %v", err)
	}

	// The frozen result set was not duplicated
	var rows int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM poll_result WHERE poll_id = $1`, pollID).Scan(&rows); err != nil {
		t.Fatalf("Failed to count results: %v", err)
	}
	if rows != 1 {
		t.Errorf("Expected 1 result row, got %d", rows)
	}
}
