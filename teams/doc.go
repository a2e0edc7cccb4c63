// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package teams resolves team metadata for poll creation.

The poll roster (who votes) is supplied by the caller; the directory only
verifies the team exists and supplies its display name. SQLDirectory reads
the team table; StaticDirectory is an in-memory map for tests and demos.
*/
package teams
