// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Cycle status constants
const (
	StatusOpen = "open"
	// StatusClosing is a cycle whose ballots are being counted. It no
	// longer accepts ballots.
	StatusClosing = "closing"
	StatusClosed  = "closed"
)

// VotePath is where mailed vote links land. The voter token rides in ?t=.
const VotePath = "/vote"

// Ballot shape
const (
	ChoicesPerCycle = 5
	MinRating       = 1
	MaxRating       = 5
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// FarPast is the last-win date of a candidate that never won.
var FarPast = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// DateOf truncates t to its calendar date in t's own location, returned as UTC midnight
// so that dates compare and subtract cleanly.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Domain types

type Candidate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Website     string    `json:"website,omitempty"`
	Score       float64   `json:"score"`
	WinCount    int       `json:"win_count"`
	LastWinDate time.Time `json:"last_win_date"`
	Enabled     bool      `json:"enabled"`
	AddedAt     time.Time `json:"added_at"`
}

type Voter struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Token         string    `json:"-"` // Never expose in JSON
	TieBreakCount int       `json:"tie_break_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Cycle struct {
	ID                string     `json:"id"`
	Date              time.Time  `json:"date"`
	Status            string     `json:"status"`
	Choices           []Choice   `json:"choices"`
	WinnerID          *string    `json:"winner_id,omitempty"`
	TieBreakerVoterID *string    `json:"tie_breaker_voter_id,omitempty"`
	OpenedAt          time.Time  `json:"opened_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
}

// Open reports whether the cycle still accepts ballots.
func (c Cycle) Open() bool {
	return c.Status == StatusOpen
}

type Choice struct {
	ID            string `json:"id"`
	CycleID       string `json:"cycle_id"`
	Ordinal       int    `json:"ordinal"`
	CandidateID   string `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
}

// Ballot is one voter's complete submission for a cycle, ratings indexed by choice ordinal.
type Ballot struct {
	CycleID string               `json:"cycle_id"`
	VoterID string               `json:"voter_id"`
	Ratings [ChoicesPerCycle]int `json:"ratings"`
}

type TieBreakCount struct {
	VoterID string
	Count   int
}

// Request types

type SubmitBallotRequest struct {
	CycleID string `json:"cycle_id"`
	Ratings []int  `json:"ratings"`
}

type CreateCandidateRequest struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	WinCount    int    `json:"win_count"`
	LastWinDate string `json:"last_win_date"` // YYYY-MM-DD, empty for never
}

type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type AdjustWinsRequest struct {
	Delta int `json:"delta"`
}

type CreateVoterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Response types

type SubmitBallotResponse struct {
	CycleID  string `json:"cycle_id"`
	Replaced bool   `json:"replaced"`
	Message  string `json:"message"`
}

type MyBallotResponse struct {
	CycleID string   `json:"cycle_id"`
	Choices []Choice `json:"choices"`
	Ratings []int    `json:"ratings,omitempty"`
	Voted   bool     `json:"voted"`
}

type CreateVoterResponse struct {
	VoterID string `json:"voter_id"`
	Token   string `json:"token"`
}

type LeaderboardEntry struct {
	CandidateID string    `json:"candidate_id"`
	Name        string    `json:"name"`
	Website     string    `json:"website,omitempty"`
	Score       float64   `json:"score"`
	WinCount    int       `json:"win_count"`
	LastWinDate time.Time `json:"last_win_date"`
	LastWinAgo  string    `json:"last_win_ago"`
	Enabled     bool      `json:"enabled"`
}

type LeaderboardResponse struct {
	Personal    bool               `json:"personal"`
	Entries     []LeaderboardEntry `json:"entries"`
	CycleCount  int                `json:"cycle_count"`
	BallotCount int                `json:"ballot_count"`
}

type CycleSummary struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	WinnerName *string   `json:"winner_name,omitempty"`
}

type VoterRatings struct {
	VoterName string `json:"voter_name"`
	Ratings   []int  `json:"ratings"`
}

type CycleResults struct {
	Cycle          Cycle          `json:"cycle"`
	Ballots        []VoterRatings `json:"ballots"`
	TiedWinners    []string       `json:"tied_winners,omitempty"`
	WinnerName     *string        `json:"winner_name,omitempty"`
	TieBreakerName *string        `json:"tie_breaker_name,omitempty"`
	Pairwise       [][]int        `json:"pairwise"`
}

// ResultSnapshot is the immutable record of a cycle's tally, written once at close.
type ResultSnapshot struct {
	ID                string    `json:"id"`
	CycleID           string    `json:"cycle_id"`
	ComputedAt        time.Time `json:"computed_at"`
	BallotCount       int       `json:"ballot_count"`
	WinnerID          *string   `json:"winner_id,omitempty"`
	TiedWinnerIDs     []string  `json:"tied_winner_ids,omitempty"`
	TieBreakerVoterID *string   `json:"tie_breaker_voter_id,omitempty"`
	Pairwise          [][]int   `json:"pairwise"`
	Strongest         [][]int   `json:"strongest"`
}

type Stats struct {
	CycleCount  int `json:"cycle_count"`
	BallotCount int `json:"ballot_count"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
