// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/danielhkuo/lunchvote/auth"
	"github.com/danielhkuo/lunchvote/cliparse"
	"github.com/danielhkuo/lunchvote/db"
	"github.com/danielhkuo/lunchvote/middleware"
	"github.com/danielhkuo/lunchvote/models"
)

// AdminHandler manages candidates and voters. Every route requires X-Admin-Key.
type AdminHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewAdminHandler(store *db.Store, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{store: store, cfg: cfg}
}

// CreateCandidate handles POST /admin/candidates
func (h *AdminHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg.AdminKey) {
		return
	}

	var req models.CreateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.WinCount < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "win_count must not be negative")
		return
	}

	lastWin := models.FarPast
	if req.LastWinDate != "" {
		d, err := time.Parse(models.DateLayout, req.LastWinDate)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "last_win_date must be YYYY-MM-DD")
			return
		}
		lastWin = d
	}

	c, err := h.store.CreateCandidate(r.Context(), models.Candidate{
		Name:        req.Name,
		Website:     strings.TrimSpace(req.Website),
		WinCount:    req.WinCount,
		LastWinDate: lastWin,
	})
	if err != nil {
		storeError(w, err, "Failed to create candidate")
		return
	}

	slog.Info("candidate added", "candidate_id", c.ID, "name", c.Name)

	middleware.JSONResponse(w, http.StatusCreated, c)
}

// ListCandidates handles GET /admin/candidates
func (h *AdminHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg.AdminKey) {
		return
	}

	candidates, err := h.store.ListCandidates(r.Context())
	if err != nil {
		storeError(w, err, "Failed to list candidates")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// SetCandidateEnabled handles POST /admin/candidates/{id}/enabled
// Disabled candidates keep their history but are never selected.
func (h *AdminHandler) SetCandidateEnabled(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg.AdminKey) {
		return
	}

	id := r.PathValue("id")
	var req models.SetEnabledRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.store.SetCandidateEnabled(r.Context(), id, req.Enabled); err != nil {
		storeError(w, err, "Failed to update candidate")
		return
	}
	c, err := h.store.GetCandidate(r.Context(), id)
	if err != nil {
		storeError(w, err, "Failed to load candidate")
		return
	}

	slog.Info("candidate updated", "candidate_id", id, "enabled", req.Enabled)

	middleware.JSONResponse(w, http.StatusOK, c)
}

// AdjustWins handles POST /admin/candidates/{id}/wins
// Corrects the visit count by one in either direction.
func (h *AdminHandler) AdjustWins(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg.AdminKey) {
		return
	}

	var req models.AdjustWinsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Delta != 1 && req.Delta != -1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "delta must be 1 or -1")
		return
	}

	c, err := h.store.AdjustWins(r.Context(), r.PathValue("id"), req.Delta)
	if err != nil {
		storeError(w, err, "Failed to adjust wins")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, c)
}

// CreateVoter handles POST /admin/voters
// The voter token is returned once and mailed with every open announcement.
func (h *AdminHandler) CreateVoter(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg.AdminKey) {
		return
	}

	var req models.CreateVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is invalid")
		return
	}

	token, err := auth.GenerateVoterToken()
	if err != nil {
		slog.Error("failed to generate voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create voter")
		return
	}

	v, err := h.store.CreateVoter(r.Context(), models.Voter{
		Name:  req.Name,
		Email: addr.Address,
		Token: token,
	})
	if err != nil {
		storeError(w, err, "Failed to create voter")
		return
	}

	slog.Info("voter added", "voter_id", v.ID, "name", v.Name)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateVoterResponse{
		VoterID: v.ID,
		Token:   token,
	})
}

// ListVoters handles GET /admin/voters
func (h *AdminHandler) ListVoters(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg.AdminKey) {
		return
	}

	voters, err := h.store.ListVoters(r.Context())
	if err != nil {
		storeError(w, err, "Failed to list voters")
		return
	}
	if voters == nil {
		voters = []models.Voter{}
	}

	middleware.JSONResponse(w, http.StatusOK, voters)
}

// DeleteVoter handles DELETE /admin/voters/{id}
// Voters with ballot history are kept; 409 is returned instead.
func (h *AdminHandler) DeleteVoter(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg.AdminKey) {
		return
	}

	id := r.PathValue("id")
	if err := h.store.DeleteVoter(r.Context(), id); err != nil {
		storeError(w, err, "Failed to delete voter")
		return
	}

	slog.Info("voter deleted", "voter_id", id)

	w.WriteHeader(http.StatusNoContent)
}
