// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/veato/poll-server/auth"
	"github.com/veato/poll-server/middleware"
	"github.com/veato/poll-server/models"
	"github.com/veato/poll-server/vote"
)

type VotingHandler struct {
	session *vote.Session
}

func NewVotingHandler(session *vote.Session) *VotingHandler {
	return &VotingHandler{session: session}
}

// SubmitPhase1Vote handles POST /polls/{id}/phase1-votes
func (h *VotingHandler) SubmitPhase1Vote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	userID, err := auth.UserID(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-User-Id header required")
		return
	}

	var req models.Phase1VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Approved) == 0 && req.Rejected == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ballot must approve or reject at least one candidate")
		return
	}

	view, err := h.session.SubmitPhase1Vote(pollID, userID, req.Approved, req.Rejected)
	if err != nil {
		WriteVoteError(w, err)
		return
	}

	slog.Info("phase1 vote cast",
		"poll_id", pollID,
		"user_id", userID,
		"approved", len(req.Approved),
		"vetoed", req.Rejected != "",
	)
	middleware.JSONResponse(w, http.StatusOK, view)
}

// RejectCandidate handles POST /polls/{id}/rejections
func (h *VotingHandler) RejectCandidate(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	var req models.RejectCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Candidate == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate is required")
		return
	}

	view, err := h.session.RejectCandidate(pollID, req.Candidate)
	if err != nil {
		WriteVoteError(w, err)
		return
	}

	slog.Info("candidate vetoed", "poll_id", pollID, "candidate", req.Candidate)
	middleware.JSONResponse(w, http.StatusOK, view)
}

// SubmitPhase2Vote handles POST /polls/{id}/phase2-votes
func (h *VotingHandler) SubmitPhase2Vote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	userID, err := auth.UserID(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-User-Id header required")
		return
	}

	var req models.Phase2VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Selected == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "selected is required")
		return
	}

	view, err := h.session.SubmitPhase2Vote(pollID, userID, req.Selected)
	if err != nil {
		WriteVoteError(w, err)
		return
	}

	slog.Info("phase2 vote cast", "poll_id", pollID, "user_id", userID, "selected", req.Selected)
	middleware.JSONResponse(w, http.StatusOK, view)
}

// RevokeBallot handles DELETE /polls/{id}/ballot
func (h *VotingHandler) RevokeBallot(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	userID, err := auth.UserID(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-User-Id header required")
		return
	}

	view, err := h.session.RevokeBallot(pollID, userID)
	if err != nil {
		WriteVoteError(w, err)
		return
	}

	slog.Info("ballot revoked", "poll_id", pollID, "user_id", userID)
	middleware.JSONResponse(w, http.StatusOK, view)
}
