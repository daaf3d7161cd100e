// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/lunchvote/cliparse"
	"github.com/danielhkuo/lunchvote/db"
	"github.com/danielhkuo/lunchvote/middleware"
	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/scheduler"
)

type ResultsHandler struct {
	store *db.Store
	sched *scheduler.Scheduler
	cfg   cliparse.Config
}

func NewResultsHandler(store *db.Store, sched *scheduler.Scheduler, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{store: store, sched: sched, cfg: cfg}
}

// GetLeaderboard handles GET /leaderboard
// With ?voter=<token> (or X-Voter-Token) only that voter's ratings are scored.
func (h *ResultsHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("voter")
	if token == "" {
		token = r.Header.Get("X-Voter-Token")
	}

	var voterID string
	personal := token != ""
	if personal {
		voter, ok := lookupVoter(w, r, h.store, token)
		if !ok {
			return
		}
		voterID = voter.ID
	}

	entries, err := h.sched.Leaderboard(r.Context(), voterID)
	if err != nil {
		storeError(w, err, "Failed to compute leaderboard")
		return
	}
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		storeError(w, err, "Failed to load stats")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LeaderboardResponse{
		Personal:    personal,
		Entries:     entries,
		CycleCount:  stats.CycleCount,
		BallotCount: stats.BallotCount,
	})
}

// ListCycles handles GET /cycles
func (h *ResultsHandler) ListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.store.ListCycles(r.Context())
	if err != nil {
		storeError(w, err, "Failed to list cycles")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, cycles)
}

// GetResults handles GET /cycles/{id}/results
// Results are sealed until the cycle has closed.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("id")
	if cycleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "cycle id is required")
		return
	}

	cycle, err := h.store.GetCycle(r.Context(), cycleID)
	if err != nil {
		storeError(w, err, "Failed to load cycle")
		return
	}
	if cycle.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are sealed until the cycle closes")
		return
	}

	results, err := h.sched.CycleResults(r.Context(), cycleID)
	if err != nil {
		storeError(w, err, "Failed to compute results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}
