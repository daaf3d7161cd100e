// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Candidate: a place that can be offered in a cycle, with its running score
  - Voter: a participant, with the number of times they broke a tie
  - Cycle: one time-boxed vote with exactly five Choice slots
  - Choice: a cycle's reference to one candidate, by ordinal 0-4
  - Ballot: one voter's five ratings (1-5) for a cycle, indexed by ordinal
  - ResultSnapshot: immutable tally record written when a cycle closes

Dates (last win, cycle date) are calendar dates. DateOf normalizes a time.Time
to UTC midnight of its local calendar day so that window arithmetic never
crosses a DST boundary.

# Request Types

  - SubmitBallotRequest: cycle_id, ratings[5]
  - CreateCandidateRequest, SetEnabledRequest, AdjustWinsRequest
  - CreateVoterRequest

# Response Types

  - SubmitBallotResponse, MyBallotResponse
  - LeaderboardResponse, CycleSummary, CycleResults
  - CreateVoterResponse
  - ErrorResponse: error, message

# Errors

Sentinel errors (ErrNotFound, ErrNoOpenCycle, ErrCycleClosed, ...) are shared
by the store, scheduler and handlers; handlers map them to status codes with
errors.Is.
*/
package models
