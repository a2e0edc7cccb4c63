// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Veato poll server.

Veato is a group meal-decision service: a team votes on where (or what) to
eat in two phases. Phase one collects approvals and at most one veto per
ballot; phase two is a single-choice runoff among the surviving candidates.

# Starting the Server

The server requires a database URL via environment variables or CLI flags:

	DATABASE_URL=postgres://... go run main.go

Or with flags:

	go run main.go -p 8090 -d "postgres://..." -t postgres

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or sqlite file path
  - DATABASE_TYPE (-t): "postgres" (default) or "sqlite"

Optional settings:

  - PORT (-p): Server port (default: 8090)
  - KAFKA_BROKERS (-kafka-brokers): Comma-separated broker list; without it
    lifecycle notifications are disabled
  - KAFKA_TOPIC (-kafka-topic): Event topic (default: poll-events)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - vote: The voting core (ledger, ballots, phase state machine, session)
  - handlers: HTTP request handlers (polls, voting)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and domain types
  - auth: Caller identity extraction
  - teams: Team directory lookup
  - events: Poll lifecycle notifications (Kafka)
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
