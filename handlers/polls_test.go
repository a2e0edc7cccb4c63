// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veato/poll-server/models"
	"github.com/veato/poll-server/testutil"
)

func TestStartPoll(t *testing.T) {
	session, _ := testutil.NewTestSession(t)
	handler := NewPollHandler(session)

	t.Run("valid request", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/polls", models.StartPollRequest{
			TeamID:          "team-1",
			Title:           "Team Lunch",
			DurationMinutes: 30,
			MemberIDs:       []string{"u1", "u2"},
			OccasionNote:    "friday lunch",
			Candidates:      testutil.DefaultCandidates(),
		}, nil)
		w := httptest.NewRecorder()

		handler.StartPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)

		var view models.PollView
		testutil.AssertJSON(t, w, &view)
		if view.PollID == "" {
			t.Error("Expected a poll ID")
		}
		if view.Phase != models.PhasePhase1 {
			t.Errorf("Expected phase1, got %s", view.Phase)
		}
		if len(view.Candidates) != 3 {
			t.Errorf("Expected 3 candidates, got %d", len(view.Candidates))
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		base := func() models.StartPollRequest {
			return models.StartPollRequest{
				TeamID:          "team-1",
				Title:           "Team Lunch",
				DurationMinutes: 30,
				MemberIDs:       []string{"u1"},
				Candidates:      testutil.DefaultCandidates(),
			}
		}

		tests := []struct {
			name   string
			mutate func(*models.StartPollRequest)
		}{
			{"missing team_id", func(r *models.StartPollRequest) { r.TeamID = "" }},
			{"missing title", func(r *models.StartPollRequest) { r.Title = "" }},
			{"zero duration", func(r *models.StartPollRequest) { r.DurationMinutes = 0 }},
			{"no members", func(r *models.StartPollRequest) { r.MemberIDs = nil }},
			{"no candidates", func(r *models.StartPollRequest) { r.Candidates = nil }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				body := base()
				tt.mutate(&body)
				req := testutil.MakeRequest("POST", "/polls", body, nil)
				w := httptest.NewRecorder()

				handler.StartPoll(w, req)

				testutil.AssertStatus(t, w, http.StatusBadRequest)
			})
		}
	})

	t.Run("unknown team", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/polls", models.StartPollRequest{
			TeamID:          "team-404",
			Title:           "Team Lunch",
			DurationMinutes: 30,
			MemberIDs:       []string{"u1"},
			Candidates:      testutil.DefaultCandidates(),
		}, nil)
		w := httptest.NewRecorder()

		handler.StartPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/polls", nil)
		w := httptest.NewRecorder()

		handler.StartPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestGetPoll(t *testing.T) {
	session, _ := testutil.NewTestSession(t)
	handler := NewPollHandler(session)
	pollID := testutil.StartTestPoll(t, session, []string{"u1", "u2"})

	t.Run("anonymous view", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/"+pollID, nil, nil)
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()

		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var view models.PollView
		testutil.AssertJSON(t, w, &view)
		if view.PollID != pollID {
			t.Errorf("Expected poll ID %s, got %s", pollID, view.PollID)
		}
		if view.HasCurrentUserLockedIn {
			t.Error("Anonymous view should not carry user state")
		}
	})

	t.Run("personalized view", func(t *testing.T) {
		if _, err := session.SubmitPhase1Vote(pollID, "u1", []string{"Pizza"}, ""); err != nil {
			t.Fatalf("Vote error = %v", err)
		}

		req := testutil.MakeRequest("GET", "/polls/"+pollID, nil, map[string]string{"X-User-Id": "u1"})
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()

		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var view models.PollView
		testutil.AssertJSON(t, w, &view)
		if !view.HasCurrentUserLockedIn {
			t.Error("Expected u1 to show as locked in")
		}
	})

	t.Run("unknown poll", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/nope", nil, nil)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()

		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("malformed identity header", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/"+pollID, nil, map[string]string{"X-User-Id": "has space"})
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()

		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
