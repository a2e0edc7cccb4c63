// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables for the given dialect:

	if err := db.CreateSchema(conn, "postgres"); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Production runs on PostgreSQL; tests use the "sqlite" variant against an
in-memory database.

# Tables

  - team: External roster store (the voting core only reads the name)
  - poll: Poll metadata, phase, and timing
  - poll_member: Per-member lock-in and needs-review flags
  - candidate: Menu options with counters, soft-rejected and never deleted
  - ballot: One phase-tagged selection per (poll, user)
  - poll_result: Frozen ranking, written once at close

# Relationships

	poll 1──* poll_member
	poll 1──* candidate
	poll 1──* ballot
	poll 1──* poll_result

All foreign keys use ON DELETE CASCADE.

# Invariants

The candidate counters carry CHECK constraints keeping them non-negative;
the application guards the same invariant and treats a breach as fatal.
*/
package db
