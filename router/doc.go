// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Veato poll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(session)

# Endpoints

Health:

	GET /health

Poll lifecycle:

	POST /polls      - Start a poll
	GET  /polls/{id} - Current poll view (personalized via X-User-Id)

Voting:

	POST   /polls/{id}/phase1-votes - Submit approvals and optional veto
	POST   /polls/{id}/rejections   - Veto a candidate outside a ballot
	POST   /polls/{id}/phase2-votes - Submit or replace the runoff selection
	DELETE /polls/{id}/ballot       - Revoke the caller's ballot

All routes are wrapped with request logging.
*/
package router
