// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the lunchvote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, sched, m, cfg)

Every API route is wrapped with middleware.WithObservability, so requests are
logged and their latency lands in the metrics histogram.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Voting (requires X-Voter-Token, or ?t= from the mailed link):

	GET  /cycles/current           - Open cycle and its five choices
	POST /cycles/current/ballots   - Submit or replace a ballot
	GET  /cycles/current/my-ballot - The caller's ratings for the open cycle
	GET  /vote?t=<token>           - Same, at the link mailed to each voter

History (public):

	GET /leaderboard[?voter=<token>] - Candidates by score
	GET /cycles                      - Past cycles and winners
	GET /cycles/{id}/results         - Ratings table and tally (closed only)

Administration (requires X-Admin-Key):

	GET    /admin/candidates
	POST   /admin/candidates
	POST   /admin/candidates/{id}/enabled
	POST   /admin/candidates/{id}/wins
	GET    /admin/voters
	POST   /admin/voters
	DELETE /admin/voters/{id}
*/
package router
