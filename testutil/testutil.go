// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/veato/poll-server/db"
	"github.com/veato/poll-server/events"
	"github.com/veato/poll-server/models"
	"github.com/veato/poll-server/teams"
	"github.com/veato/poll-server/vote"
)

// SetupTestDB creates a fresh in-memory sqlite database with the full schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// A named in-memory database so the schema survives across the pool;
	// one connection keeps sqlite's writer model out of the tests' way.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, "sqlite"); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// NewTestSession builds a session façade on a fresh database with one
// registered team and no notifier.
func NewTestSession(t *testing.T) (*vote.Session, *sql.DB) {
	t.Helper()

	conn := SetupTestDB(t)
	dir := teams.NewSQLDirectory(conn)
	if err := dir.Register("team-1", "Lunch Crew"); err != nil {
		t.Fatalf("Failed to register test team: %v", err)
	}
	return vote.NewSession(conn, dir, events.Nop{}), conn
}

// DefaultCandidates is the candidate list used by StartTestPoll.
func DefaultCandidates() []models.CandidateInput {
	return []models.CandidateInput{
		{Name: "Pizza", Ranking: 1},
		{Name: "Sushi", Ranking: 2},
		{Name: "Burger", Ranking: 3},
	}
}

// StartTestPoll creates an open phase-1 poll for the given members and
// returns its ID.
func StartTestPoll(t *testing.T, session *vote.Session, memberIDs []string) string {
	t.Helper()

	view, err := session.StartPoll("team-1", "Team Lunch", 30, memberIDs, "friday lunch", DefaultCandidates())
	if err != nil {
		t.Fatalf("Failed to start test poll: %v", err)
	}
	return view.PollID
}

// CandidateCounts reads a candidate's counters straight from the database.
func CandidateCounts(t *testing.T, conn *sql.DB, pollID, name string) (votes, approvals int, rejected bool) {
	t.Helper()

	err := conn.QueryRow(`
		SELECT vote_count, phase1_approval_count, is_rejected
		FROM candidate
		WHERE poll_id = $1 AND name = $2
	`, pollID, name).Scan(&votes, &approvals, &rejected)
	if err != nil {
		t.Fatalf("Failed to read candidate %q: %v", name, err)
	}
	return votes, approvals, rejected
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
