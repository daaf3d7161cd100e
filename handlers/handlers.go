// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/lunchvote/auth"
	"github.com/danielhkuo/lunchvote/db"
	"github.com/danielhkuo/lunchvote/middleware"
	"github.com/danielhkuo/lunchvote/models"
)

// storeError maps a domain error to a status code and writes it. Anything
// unrecognized is logged and reported as a 500 with the given message.
func storeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrNoOpenCycle):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrCycleClosed), errors.Is(err, models.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrIncompleteBallot), errors.Is(err, models.ErrInvalidRating):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUnknownVoter):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Unknown voter")
	default:
		slog.Error(msg, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msg)
	}
}

// voterToken reads the voter token from the X-Voter-Token header, falling
// back to the t query parameter used by mailed vote links.
func voterToken(r *http.Request) string {
	if tok := r.Header.Get("X-Voter-Token"); tok != "" {
		return tok
	}
	return r.URL.Query().Get("t")
}

// authenticateVoter resolves the request's voter token. It writes a 401 and
// returns false when the token is missing or unknown.
func authenticateVoter(w http.ResponseWriter, r *http.Request, store *db.Store) (models.Voter, bool) {
	return lookupVoter(w, r, store, voterToken(r))
}

func lookupVoter(w http.ResponseWriter, r *http.Request, store *db.Store, token string) (models.Voter, bool) {
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return models.Voter{}, false
	}
	if err := auth.ValidateVoterToken(token); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
		return models.Voter{}, false
	}

	voter, err := store.GetVoterByToken(r.Context(), token)
	if err != nil {
		storeError(w, err, "Failed to look up voter")
		return models.Voter{}, false
	}
	return voter, true
}

// requireAdmin checks X-Admin-Key against the configured key, writing a 401 on mismatch.
func requireAdmin(w http.ResponseWriter, r *http.Request, adminKey string) bool {
	if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), adminKey); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}
