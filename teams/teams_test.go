// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package teams

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/veato/poll-server/db"
)

func setupDirectory(t *testing.T) *SQLDirectory {
	t.Helper()

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
	return NewSQLDirectory(conn)
}

func TestSQLDirectory(t *testing.T) {
	dir := setupDirectory(t)

	if err := dir.Register("team-1", "Lunch Crew"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	name, err := dir.TeamName("team-1")
	if err != nil {
		t.Fatalf("TeamName() error = %v", err)
	}
	if name != "Lunch Crew" {
		t.Errorf("TeamName() = %q, want 'Lunch Crew'", name)
	}

	// Re-registering replaces the name
	if err := dir.Register("team-1", "Dinner Crew"); err != nil {
		t.Fatalf("Re-register error = %v", err)
	}
	if name, _ := dir.TeamName("team-1"); name != "Dinner Crew" {
		t.Errorf("TeamName() after re-register = %q, want 'Dinner Crew'", name)
	}

	if _, err := dir.TeamName("team-404"); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("TeamName() error = %v, want ErrTeamNotFound", err)
	}
}

func TestStaticDirectory(t *testing.T) {
	dir := StaticDirectory{"team-1": "Lunch Crew"}

	if name, err := dir.TeamName("team-1"); err != nil || name != "Lunch Crew" {
		t.Errorf("TeamName() = (%q, %v)", name, err)
	}
	if _, err := dir.TeamName("team-404"); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("TeamName() error = %v, want ErrTeamNotFound", err)
	}
}
