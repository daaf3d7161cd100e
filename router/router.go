// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/lunchvote/cliparse"
	"github.com/danielhkuo/lunchvote/db"
	"github.com/danielhkuo/lunchvote/handlers"
	"github.com/danielhkuo/lunchvote/metrics"
	"github.com/danielhkuo/lunchvote/middleware"
	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/scheduler"
)

func NewRouter(store *db.Store, sched *scheduler.Scheduler, m *metrics.Metrics, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	cycleHandler := handlers.NewCycleHandler(store, sched, cfg)
	resultsHandler := handlers.NewResultsHandler(store, sched, cfg)
	adminHandler := handlers.NewAdminHandler(store, cfg)

	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithObservability(m, h)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Voting (requires X-Voter-Token)
	mux.HandleFunc("GET /cycles/current", wrap(cycleHandler.GetCurrent))
	mux.HandleFunc("POST /cycles/current/ballots", wrap(cycleHandler.SubmitBallot))
	mux.HandleFunc("GET /cycles/current/my-ballot", wrap(cycleHandler.GetMyBallot))
	mux.HandleFunc("GET "+models.VotePath, wrap(cycleHandler.GetMyBallot))

	// History and results (public, sealed while open)
	mux.HandleFunc("GET /leaderboard", wrap(resultsHandler.GetLeaderboard))
	mux.HandleFunc("GET /cycles", wrap(resultsHandler.ListCycles))
	mux.HandleFunc("GET /cycles/{id}/results", wrap(resultsHandler.GetResults))

	// Administration (requires X-Admin-Key)
	mux.HandleFunc("GET /admin/candidates", wrap(adminHandler.ListCandidates))
	mux.HandleFunc("POST /admin/candidates", wrap(adminHandler.CreateCandidate))
	mux.HandleFunc("POST /admin/candidates/{id}/enabled", wrap(adminHandler.SetCandidateEnabled))
	mux.HandleFunc("POST /admin/candidates/{id}/wins", wrap(adminHandler.AdjustWins))
	mux.HandleFunc("GET /admin/voters", wrap(adminHandler.ListVoters))
	mux.HandleFunc("POST /admin/voters", wrap(adminHandler.CreateVoter))
	mux.HandleFunc("DELETE /admin/voters/{id}", wrap(adminHandler.DeleteVoter))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("lunchvote API v1"))
	})

	return mux
}
