// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ports declares the collaborators the scheduler drives: persistence,
// notification and time.
package ports

import (
	"context"
	"time"

	"github.com/danielhkuo/lunchvote/models"
)

// Store is the persistence the scheduler reads and writes.
type Store interface {
	// InTx runs fn in one transaction. Calls made on the Store passed to fn
	// commit or roll back together.
	InTx(ctx context.Context, fn func(tx Store) error) error

	// CurrentOpenCycle returns the open or closing cycle, or nil.
	CurrentOpenCycle(ctx context.Context) (*models.Cycle, error)
	GetCycle(ctx context.Context, cycleID string) (models.Cycle, error)
	CreateCycle(ctx context.Context, date time.Time, candidateIDs []string) (models.Cycle, error)
	// SealCycle moves an open cycle to closing; ReplaceBallot refuses it from then on.
	SealCycle(ctx context.Context, cycleID string) error
	CloseCycle(ctx context.Context, cycleID string, winnerID, tieBreakerVoterID *string) error
	SaveResultSnapshot(ctx context.Context, snap models.ResultSnapshot) error

	ListEnabledCandidates(ctx context.Context) ([]models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	// RatingsFor returns every rating cast for a candidate; a non-empty
	// voterID restricts it to that voter.
	RatingsFor(ctx context.Context, candidateID, voterID string) ([]int, error)
	UpdateCandidateScore(ctx context.Context, candidateID string, score float64) error
	RecordWin(ctx context.Context, candidateID string, date time.Time) error

	BallotsFor(ctx context.Context, cycleID string) ([]models.Ballot, error)
	ReplaceBallot(ctx context.Context, b models.Ballot, ipHash string) (replaced bool, err error)

	ListVoters(ctx context.Context) ([]models.Voter, error)
	GetVoter(ctx context.Context, voterID string) (models.Voter, error)
	VoterTieBreakCounts(ctx context.Context) ([]models.TieBreakCount, error)
	IncrementTieBreak(ctx context.Context, voterID string) error
}

// Notifier delivers cycle announcements. Delivery is best-effort.
type Notifier interface {
	AnnounceOpen(ctx context.Context, cycle models.Cycle, voters []models.Voter, deadline time.Time) error
	// AnnounceClose is sent to attendees only. winner and tieBreaker may be nil.
	AnnounceClose(ctx context.Context, cycle models.Cycle, winner *models.Candidate, tieBreaker *models.Voter, attendees []models.Voter) error
}

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
