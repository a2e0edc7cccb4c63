// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed by the server. Safe to call multiple
// times. dbType is "postgres" or "sqlite".
func CreateSchema(db *sql.DB, dbType string) error {
	schema := postgresSchema
	if dbType == "sqlite" {
		schema = sqliteSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const postgresSchema = `
-- Teams (external roster store; the voting core only reads the name)
CREATE TABLE IF NOT EXISTS team (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    team_id TEXT NOT NULL,
    team_name TEXT NOT NULL,
    occasion_note TEXT NOT NULL DEFAULT '',
    phase TEXT NOT NULL DEFAULT 'phase1' CHECK (phase IN ('phase1', 'phase2', 'closed')),
    is_open BOOLEAN NOT NULL DEFAULT TRUE,
    frozen BOOLEAN NOT NULL DEFAULT FALSE,
    duration_seconds INTEGER NOT NULL,
    phase_started_at TIMESTAMP NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_poll_team_id ON poll(team_id);
CREATE INDEX IF NOT EXISTS idx_poll_phase ON poll(phase);

-- Poll members: lock-in accounting and the needs-review surface
CREATE TABLE IF NOT EXISTS poll_member (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    locked_in BOOLEAN NOT NULL DEFAULT FALSE,
    needs_review BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (poll_id, user_id)
);

-- Candidates: soft-rejected, never deleted
CREATE TABLE IF NOT EXISTS candidate (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    ranking INTEGER NOT NULL DEFAULT 0,
    vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    phase1_approval_count INTEGER NOT NULL DEFAULT 0 CHECK (phase1_approval_count >= 0),
    is_rejected BOOLEAN NOT NULL DEFAULT FALSE,
    in_phase2 BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (poll_id, name)
);

-- Ballots: one phase-tagged selection per (poll, user)
CREATE TABLE IF NOT EXISTS ballot (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    phase TEXT NOT NULL CHECK (phase IN ('phase1', 'phase2')),
    approved TEXT NOT NULL DEFAULT '[]',
    rejected TEXT NOT NULL DEFAULT '',
    selection TEXT NOT NULL DEFAULT '',
    invalidated BOOLEAN NOT NULL DEFAULT FALSE,
    submitted_at TIMESTAMP NOT NULL DEFAULT NOW(),
    PRIMARY KEY (poll_id, user_id)
);

-- Frozen results, written once at close
CREATE TABLE IF NOT EXISTS poll_result (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    vote_count INTEGER NOT NULL,
    ranking INTEGER NOT NULL,
    PRIMARY KEY (poll_id, position)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS team (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    team_id TEXT NOT NULL,
    team_name TEXT NOT NULL,
    occasion_note TEXT NOT NULL DEFAULT '',
    phase TEXT NOT NULL DEFAULT 'phase1' CHECK (phase IN ('phase1', 'phase2', 'closed')),
    is_open BOOLEAN NOT NULL DEFAULT TRUE,
    frozen BOOLEAN NOT NULL DEFAULT FALSE,
    duration_seconds INTEGER NOT NULL,
    phase_started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_poll_team_id ON poll(team_id);
CREATE INDEX IF NOT EXISTS idx_poll_phase ON poll(phase);

CREATE TABLE IF NOT EXISTS poll_member (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    locked_in BOOLEAN NOT NULL DEFAULT FALSE,
    needs_review BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (poll_id, user_id)
);

CREATE TABLE IF NOT EXISTS candidate (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    ranking INTEGER NOT NULL DEFAULT 0,
    vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    phase1_approval_count INTEGER NOT NULL DEFAULT 0 CHECK (phase1_approval_count >= 0),
    is_rejected BOOLEAN NOT NULL DEFAULT FALSE,
    in_phase2 BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (poll_id, name)
);

CREATE TABLE IF NOT EXISTS ballot (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    phase TEXT NOT NULL CHECK (phase IN ('phase1', 'phase2')),
    approved TEXT NOT NULL DEFAULT '[]',
    rejected TEXT NOT NULL DEFAULT '',
    selection TEXT NOT NULL DEFAULT '',
    invalidated BOOLEAN NOT NULL DEFAULT FALSE,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (poll_id, user_id)
);

CREATE TABLE IF NOT EXISTS poll_result (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    vote_count INTEGER NOT NULL,
    ranking INTEGER NOT NULL,
    PRIMARY KEY (poll_id, position)
);
`
