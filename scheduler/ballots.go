// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/ports"
)

// GetOpenCycle returns the cycle accepting ballots, or nil.
func (s *Scheduler) GetOpenCycle(ctx context.Context) (*models.Cycle, error) {
	c, err := s.store.CurrentOpenCycle(ctx)
	if err != nil || c == nil || !c.Open() {
		return nil, err
	}
	return c, nil
}

// SubmitBallot stores a voter's complete ballot for the open cycle, replacing
// any earlier one. Submissions from the same voter for the same cycle are
// serialized. It reports whether an earlier ballot was replaced.
func (s *Scheduler) SubmitBallot(ctx context.Context, cycleID, voterID string, ratings []int, ipHash string) (bool, error) {
	if len(ratings) != models.ChoicesPerCycle {
		return false, fmt.Errorf("%w: got %d ratings, need %d", models.ErrIncompleteBallot, len(ratings), models.ChoicesPerCycle)
	}
	b := models.Ballot{CycleID: cycleID, VoterID: voterID}
	for i, r := range ratings {
		if r < models.MinRating || r > models.MaxRating {
			return false, fmt.Errorf("%w: %d at position %d", models.ErrInvalidRating, r, i)
		}
		b.Ratings[i] = r
	}

	if _, err := s.store.GetVoter(ctx, voterID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, models.ErrUnknownVoter
		}
		return false, err
	}

	unlock := s.ballots.lock(cycleID + "/" + voterID)
	defer unlock()

	var replaced bool
	err := s.store.InTx(ctx, func(tx ports.Store) error {
		open, err := tx.CurrentOpenCycle(ctx)
		if err != nil {
			return err
		}
		if open == nil || !open.Open() {
			return models.ErrNoOpenCycle
		}
		if open.ID != cycleID {
			return fmt.Errorf("cycle %s is not the open cycle: %w", cycleID, models.ErrCycleClosed)
		}
		replaced, err = tx.ReplaceBallot(ctx, b, ipHash)
		return err
	})
	if err != nil {
		return false, err
	}

	s.metrics.Ballot(replaced)
	s.logger.Info("Ballot recorded", "cycle_id", cycleID, "voter_id", voterID, "replaced", replaced)
	return replaced, nil
}
