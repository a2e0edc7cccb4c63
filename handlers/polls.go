// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/veato/poll-server/auth"
	"github.com/veato/poll-server/middleware"
	"github.com/veato/poll-server/models"
	"github.com/veato/poll-server/vote"
)

type PollHandler struct {
	session *vote.Session
}

func NewPollHandler(session *vote.Session) *PollHandler {
	return &PollHandler{session: session}
}

// StartPoll handles POST /polls
func (h *PollHandler) StartPoll(w http.ResponseWriter, r *http.Request) {
	var req models.StartPollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.TeamID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "team_id is required")
		return
	}
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.DurationMinutes <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "duration_minutes must be positive")
		return
	}
	if len(req.MemberIDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "member_ids is required")
		return
	}
	if len(req.Candidates) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidates is required")
		return
	}

	view, err := h.session.StartPoll(req.TeamID, req.Title, req.DurationMinutes,
		req.MemberIDs, req.OccasionNote, req.Candidates)
	if err != nil {
		WriteVoteError(w, err)
		return
	}

	slog.Info("poll created", "poll_id", view.PollID, "team_id", req.TeamID)
	middleware.JSONResponse(w, http.StatusCreated, view)
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	userID, err := auth.OptionalUserID(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid X-User-Id header")
		return
	}

	view, err := h.session.GetPoll(pollID, userID)
	if err != nil {
		WriteVoteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// WriteVoteError maps the voting core's error taxonomy onto HTTP statuses.
// Internal failures deliberately reach the caller as a bare 500: the detail
// is in the server log, not the response.
func WriteVoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vote.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, vote.ErrWrongPhase), errors.Is(err, vote.ErrAlreadyRejected):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, vote.ErrInvalidCandidate), errors.Is(err, vote.ErrConflictingSelection):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vote.ErrInternal):
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Poll is frozen pending operator intervention")
	default:
		slog.Error("unhandled voting error", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
