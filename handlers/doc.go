// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the lunchvote API.

# Handler Types

Each handler is a struct holding the store, the scheduler and config:

  - CycleHandler: the open cycle and ballot submission
  - ResultsHandler: leaderboard, cycle history and per-cycle results
  - AdminHandler: candidate and voter management

Cycles are never opened or closed over HTTP; the scheduler does that on its
own ticks. Handlers only read cycles and pass ballots through
Scheduler.SubmitBallot, which validates them and serializes resubmissions.

# Authentication

Voters identify with the token mailed in their vote link, sent either as the
X-Voter-Token header or the t query parameter. Admin routes compare
X-Admin-Key with the configured ADMIN_KEY.

# Errors

Domain errors map to status codes:

	models.ErrNotFound, ErrNoOpenCycle         → 404
	models.ErrCycleClosed, ErrConflict         → 409
	models.ErrIncompleteBallot, ErrInvalidRating → 400
	models.ErrUnknownVoter                     → 401

A ballot naming a cycle that is no longer open is a 409.
*/
package handlers
