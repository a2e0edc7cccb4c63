// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/veato/poll-server/handlers"
	"github.com/veato/poll-server/middleware"
	"github.com/veato/poll-server/vote"
)

func NewRouter(session *vote.Session) *http.ServeMux {
	mux := http.NewServeMux()

	pollHandler := handlers.NewPollHandler(session)
	votingHandler := handlers.NewVotingHandler(session)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll lifecycle
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.StartPoll))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))

	// Voting operations
	mux.HandleFunc("POST /polls/{id}/phase1-votes", middleware.WithLogging(votingHandler.SubmitPhase1Vote))
	mux.HandleFunc("POST /polls/{id}/rejections", middleware.WithLogging(votingHandler.RejectCandidate))
	mux.HandleFunc("POST /polls/{id}/phase2-votes", middleware.WithLogging(votingHandler.SubmitPhase2Vote))
	mux.HandleFunc("DELETE /polls/{id}/ballot", middleware.WithLogging(votingHandler.RevokeBallot))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("veato poll API v1"))
	})

	return mux
}
