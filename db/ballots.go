// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"

	"github.com/danielhkuo/lunchvote/models"
)

// BallotsFor returns the complete ballots of a cycle, ordered by voter ID.
func (s *Store) BallotsFor(ctx context.Context, cycleID string) ([]models.Ballot, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT b.voter_id, c.ordinal, b.rating
		FROM ballot b
		JOIN choice c ON c.id = b.choice_id
		WHERE b.cycle_id = $1
		ORDER BY b.voter_id, c.ordinal
	`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query ballots: %w", err)
	}
	defer rows.Close()

	var (
		out    []models.Ballot
		cur    models.Ballot
		filled int
	)
	flush := func() {
		if cur.VoterID != "" && filled == models.ChoicesPerCycle {
			out = append(out, cur)
		}
	}
	for rows.Next() {
		var voterID string
		var ordinal, rating int
		if err := rows.Scan(&voterID, &ordinal, &rating); err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		if voterID != cur.VoterID {
			flush()
			cur = models.Ballot{CycleID: cycleID, VoterID: voterID}
			filled = 0
		}
		if ordinal >= 0 && ordinal < models.ChoicesPerCycle {
			cur.Ratings[ordinal] = rating
			filled++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	flush()

	return out, nil
}

// VoterBallot returns one voter's ratings for a cycle in ordinal order, or
// nil when the voter has not submitted.
func (s *Store) VoterBallot(ctx context.Context, cycleID, voterID string) ([]int, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT b.rating
		FROM ballot b
		JOIN choice c ON c.id = b.choice_id
		WHERE b.cycle_id = $1 AND b.voter_id = $2
		ORDER BY c.ordinal
	`, cycleID, voterID)
	if err != nil {
		return nil, fmt.Errorf("query ballot: %w", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// ReplaceBallot deletes any earlier submission of b.VoterID for b.CycleID and
// inserts b in the same transaction. The cycle must be open. The cycle row is
// claimed with an update first, so a concurrent SealCycle either waits for
// this ballot to commit or makes it fail with ErrCycleClosed.
func (s *Store) ReplaceBallot(ctx context.Context, b models.Ballot, ipHash string) (bool, error) {
	for _, r := range b.Ratings {
		if r < models.MinRating || r > models.MaxRating {
			return false, fmt.Errorf("rating %d: %w", r, models.ErrInvalidRating)
		}
	}

	var replaced bool
	err := s.inTx(ctx, func(tx *Store) error {
		res, err := tx.q.ExecContext(ctx, `
			UPDATE cycle SET status = status WHERE id = $1 AND status = $2
		`, b.CycleID, models.StatusOpen)
		if err != nil {
			return fmt.Errorf("claim cycle: %w", err)
		}
		claimed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim cycle: %w", err)
		}
		if claimed == 0 {
			if _, err := tx.GetCycle(ctx, b.CycleID); err != nil {
				return err
			}
			return fmt.Errorf("cycle %s: %w", b.CycleID, models.ErrCycleClosed)
		}

		choices, err := tx.choices(ctx, b.CycleID)
		if err != nil {
			return err
		}
		if len(choices) != models.ChoicesPerCycle {
			return fmt.Errorf("cycle %s has %d choices", b.CycleID, len(choices))
		}

		res, err = tx.q.ExecContext(ctx, `DELETE FROM ballot WHERE cycle_id = $1 AND voter_id = $2`, b.CycleID, b.VoterID)
		if err != nil {
			return fmt.Errorf("delete previous ballot: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete previous ballot: %w", err)
		}
		replaced = n > 0

		now := tx.now().UTC()
		var hash *string
		if ipHash != "" {
			hash = &ipHash
		}
		for _, ch := range choices {
			_, err := tx.q.ExecContext(ctx, `
				INSERT INTO ballot (cycle_id, voter_id, choice_id, rating, submitted_at, ip_hash)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, b.CycleID, b.VoterID, ch.ID, b.Ratings[ch.Ordinal], now, hash)
			if err != nil {
				return fmt.Errorf("insert rating for choice %d: %w", ch.Ordinal, err)
			}
		}
		return nil
	})
	return replaced, err
}
