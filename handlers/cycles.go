// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/lunchvote/auth"
	"github.com/danielhkuo/lunchvote/cliparse"
	"github.com/danielhkuo/lunchvote/db"
	"github.com/danielhkuo/lunchvote/middleware"
	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/scheduler"
)

type CycleHandler struct {
	store *db.Store
	sched *scheduler.Scheduler
	cfg   cliparse.Config
}

func NewCycleHandler(store *db.Store, sched *scheduler.Scheduler, cfg cliparse.Config) *CycleHandler {
	return &CycleHandler{store: store, sched: sched, cfg: cfg}
}

// GetCurrent handles GET /cycles/current
func (h *CycleHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.sched.GetOpenCycle(r.Context())
	if err != nil {
		storeError(w, err, "Failed to load cycle")
		return
	}
	if cycle == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "No cycle is open")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, cycle)
}

// SubmitBallot handles POST /cycles/current/ballots
// A second submission from the same voter replaces the first.
func (h *CycleHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	voter, ok := authenticateVoter(w, r, h.store)
	if !ok {
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CycleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "cycle_id is required")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt)
	replaced, err := h.sched.SubmitBallot(r.Context(), req.CycleID, voter.ID, req.Ratings, ipHash)
	if errors.Is(err, models.ErrNoOpenCycle) {
		// The cycle named in the ballot has already closed.
		middleware.ErrorResponse(w, http.StatusConflict, "Voting is closed")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to submit ballot")
		return
	}

	status := http.StatusCreated
	msg := "Ballot recorded"
	if replaced {
		status = http.StatusOK
		msg = "Ballot replaced"
	}
	slog.Debug("ballot accepted", "cycle_id", req.CycleID, "voter", voter.Name, "replaced", replaced)

	middleware.JSONResponse(w, status, models.SubmitBallotResponse{
		CycleID:  req.CycleID,
		Replaced: replaced,
		Message:  msg,
	})
}

// GetMyBallot handles GET /cycles/current/my-ballot
// Returns the open cycle's choices with the voter's ratings, if any.
func (h *CycleHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	voter, ok := authenticateVoter(w, r, h.store)
	if !ok {
		return
	}

	cycle, err := h.sched.GetOpenCycle(r.Context())
	if err != nil {
		storeError(w, err, "Failed to load cycle")
		return
	}
	if cycle == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "No cycle is open")
		return
	}

	ratings, err := h.store.VoterBallot(r.Context(), cycle.ID, voter.ID)
	if err != nil {
		storeError(w, err, "Failed to load ballot")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyBallotResponse{
		CycleID: cycle.ID,
		Choices: cycle.Choices,
		Ratings: ratings,
		Voted:   len(ratings) == models.ChoicesPerCycle,
	})
}
