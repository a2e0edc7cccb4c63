// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package teams

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrTeamNotFound is returned when a team ID is unknown to the directory.
var ErrTeamNotFound = errors.New("team not found")

// Directory resolves team metadata. The roster itself (who is voting) is
// supplied by the caller at poll creation; the directory only has to know
// the teams exist.
type Directory interface {
	TeamName(teamID string) (string, error)
}

// SQLDirectory is a Directory backed by the team table.
type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

func (d *SQLDirectory) TeamName(teamID string) (string, error) {
	var name string
	err := d.db.QueryRow(`SELECT name FROM team WHERE id = $1`, teamID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query team: %w", err)
	}
	return name, nil
}

// Register inserts or replaces a team record. Used by operator tooling and
// test fixtures; the voting core never writes teams.
func (d *SQLDirectory) Register(teamID, name string) error {
	if _, err := d.db.Exec(`DELETE FROM team WHERE id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to replace team: %w", err)
	}
	if _, err := d.db.Exec(`
		INSERT INTO team (id, name) VALUES ($1, $2)
	`, teamID, name); err != nil {
		return fmt.Errorf("failed to register team: %w", err)
	}
	return nil
}

// StaticDirectory is an in-memory Directory for tests and demos.
type StaticDirectory map[string]string

func (d StaticDirectory) TeamName(teamID string) (string, error) {
	name, ok := d[teamID]
	if !ok {
		return "", fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	return name, nil
}
