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

// TestFullPollLifecycle walks one poll from creation through a veto, a
// resubmission, the runoff, and the final winner.
func TestFullPollLifecycle(t *testing.T) {
	session, _ := testutil.NewTestSession(t)
	pollHandler := NewPollHandler(session)
	votingHandler := NewVotingHandler(session)

	// Create the poll
	req := testutil.MakeRequest("POST", "/polls", models.StartPollRequest{
		TeamID:          "team-1",
		Title:           "Team Lunch",
		DurationMinutes: 30,
		MemberIDs:       []string{"u1", "u2", "u3"},
		OccasionNote:    "friday lunch",
		Candidates:      testutil.DefaultCandidates(),
	}, nil)
	w := httptest.NewRecorder()
	pollHandler.StartPoll(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var view models.PollView
	testutil.AssertJSON(t, w, &view)
	pollID := view.PollID

	phase1Vote := func(userID string, body models.Phase1VoteRequest) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/polls/"+pollID+"/phase1-votes", body,
			map[string]string{"X-User-Id": userID})
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()
		votingHandler.SubmitPhase1Vote(w, req)
		return w
	}
	phase2Vote := func(userID, selected string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/polls/"+pollID+"/phase2-votes",
			models.Phase2VoteRequest{Selected: selected},
			map[string]string{"X-User-Id": userID})
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()
		votingHandler.SubmitPhase2Vote(w, req)
		return w
	}
	getPoll := func(userID string) models.PollView {
		headers := map[string]string{}
		if userID != "" {
			headers["X-User-Id"] = userID
		}
		req := testutil.MakeRequest("GET", "/polls/"+pollID, nil, headers)
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()
		pollHandler.GetPoll(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
		var v models.PollView
		testutil.AssertJSON(t, w, &v)
		return v
	}

	// u1 backs Pizza and Burger
	testutil.AssertStatus(t, phase1Vote("u1", models.Phase1VoteRequest{
		Approved: []string{"Pizza", "Burger"},
	}), http.StatusOK)

	// u2 backs Pizza and Sushi and vetoes Burger, invalidating u1's ballot
	testutil.AssertStatus(t, phase1Vote("u2", models.Phase1VoteRequest{
		Approved: []string{"Pizza", "Sushi"},
		Rejected: "Burger",
	}), http.StatusOK)

	u1View := getPoll("u1")
	if !u1View.NeedsReview {
		t.Fatal("Expected u1 to be flagged for review after the veto")
	}
	if len(u1View.InvalidatedCandidates) != 1 || u1View.InvalidatedCandidates[0] != "Burger" {
		t.Errorf("Expected invalidated candidates [Burger], got %v", u1View.InvalidatedCandidates)
	}

	// u1 resubmits without the vetoed candidate
	testutil.AssertStatus(t, phase1Vote("u1", models.Phase1VoteRequest{
		Approved: []string{"Pizza"},
	}), http.StatusOK)

	// u3 is the last to lock in; the poll advances to the runoff
	w = phase1Vote("u3", models.Phase1VoteRequest{Approved: []string{"Sushi"}})
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &view)
	if view.Phase != models.PhasePhase2 {
		t.Fatalf("Expected phase2 after full lock-in, got %s", view.Phase)
	}
	if len(view.Candidates) != 2 {
		t.Fatalf("Expected survivors Pizza and Sushi, got %v", view.Candidates)
	}

	// Runoff: Pizza takes it 2 to 1
	testutil.AssertStatus(t, phase2Vote("u1", "Pizza"), http.StatusOK)
	testutil.AssertStatus(t, phase2Vote("u2", "Sushi"), http.StatusOK)
	w = phase2Vote("u3", "Pizza")
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &view)

	if view.Phase != models.PhaseClosed {
		t.Fatalf("Expected closed after full runoff lock-in, got %s", view.Phase)
	}
	if view.Winner != "Pizza" {
		t.Errorf("Expected winner Pizza, got %q", view.Winner)
	}
	if len(view.Results) != 2 || view.Results[0].VoteCount != 2 {
		t.Errorf("Unexpected results: %v", view.Results)
	}

	// The closed poll reads the same for everyone
	final := getPoll("")
	if final.Winner != "Pizza" || final.IsOpen {
		t.Errorf("Expected a closed poll with winner Pizza, got open=%v winner=%q",
			final.IsOpen, final.Winner)
	}
}
