// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/lunchvote/models"
)

const cycleColumns = `id, cycle_date, status, winner_id, tie_breaker_voter_id, opened_at, closed_at`

func scanCycle(row rowScanner) (models.Cycle, error) {
	var c models.Cycle
	var date string
	var closedAt sql.NullTime
	if err := row.Scan(&c.ID, &date, &c.Status, &c.WinnerID, &c.TieBreakerVoterID, &c.OpenedAt, &closedAt); err != nil {
		return models.Cycle{}, err
	}
	d, err := parseDate(date)
	if err != nil {
		return models.Cycle{}, err
	}
	c.Date = d
	if closedAt.Valid {
		t := closedAt.Time
		c.ClosedAt = &t
	}
	return c, nil
}

// CurrentOpenCycle returns the cycle that has not closed yet, open or
// closing, with its choices. It returns nil when there is none.
func (s *Store) CurrentOpenCycle(ctx context.Context) (*models.Cycle, error) {
	c, err := scanCycle(s.q.QueryRowContext(ctx, `SELECT `+cycleColumns+` FROM cycle WHERE status <> $1`, models.StatusClosed))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open cycle: %w", err)
	}

	if c.Choices, err = s.choices(ctx, c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCycle(ctx context.Context, id string) (models.Cycle, error) {
	c, err := scanCycle(s.q.QueryRowContext(ctx, `SELECT `+cycleColumns+` FROM cycle WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cycle{}, fmt.Errorf("cycle %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Cycle{}, fmt.Errorf("get cycle: %w", err)
	}

	if c.Choices, err = s.choices(ctx, c.ID); err != nil {
		return models.Cycle{}, err
	}
	return c, nil
}

func (s *Store) choices(ctx context.Context, cycleID string) ([]models.Choice, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT ch.id, ch.cycle_id, ch.ordinal, ch.candidate_id, ca.name
		FROM choice ch
		JOIN candidate ca ON ca.id = ch.candidate_id
		WHERE ch.cycle_id = $1
		ORDER BY ch.ordinal
	`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query choices: %w", err)
	}
	defer rows.Close()

	var out []models.Choice
	for rows.Next() {
		var ch models.Choice
		if err := rows.Scan(&ch.ID, &ch.CycleID, &ch.Ordinal, &ch.CandidateID, &ch.CandidateName); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// CreateCycle opens a cycle dated date offering candidateIDs in ordinal order.
// It fails with ErrConflict while another cycle is open.
func (s *Store) CreateCycle(ctx context.Context, date time.Time, candidateIDs []string) (models.Cycle, error) {
	if len(candidateIDs) != models.ChoicesPerCycle {
		return models.Cycle{}, fmt.Errorf("cycle needs %d choices, got %d", models.ChoicesPerCycle, len(candidateIDs))
	}
	seen := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		if seen[id] {
			return models.Cycle{}, fmt.Errorf("candidate %s offered twice", id)
		}
		seen[id] = true
	}

	var created models.Cycle
	err := s.inTx(ctx, func(tx *Store) error {
		cycleID := uuid.NewString()
		_, err := tx.q.ExecContext(ctx, `
			INSERT INTO cycle (id, cycle_date, status, opened_at)
			VALUES ($1, $2, $3, $4)
		`, cycleID, formatDate(date), models.StatusOpen, tx.now().UTC())
		if isUniqueViolation(err) {
			return fmt.Errorf("a cycle is already open: %w", models.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert cycle: %w", err)
		}

		for ordinal, candidateID := range candidateIDs {
			_, err := tx.q.ExecContext(ctx, `
				INSERT INTO choice (id, cycle_id, ordinal, candidate_id)
				VALUES ($1, $2, $3, $4)
			`, uuid.NewString(), cycleID, ordinal, candidateID)
			if err != nil {
				return fmt.Errorf("insert choice %d: %w", ordinal, err)
			}
		}

		created, err = tx.GetCycle(ctx, cycleID)
		return err
	})
	return created, err
}

// SealCycle stops an open cycle from taking ballots ahead of counting them.
// Sealing a cycle that is already closing is a no-op.
func (s *Store) SealCycle(ctx context.Context, cycleID string) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE cycle SET status = $1 WHERE id = $2 AND status = $3
	`, models.StatusClosing, cycleID, models.StatusOpen)
	if err != nil {
		return fmt.Errorf("seal cycle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("seal cycle: %w", err)
	}
	if n > 0 {
		return nil
	}

	c, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	if c.Status != models.StatusClosing {
		return fmt.Errorf("cycle %s: %w", cycleID, models.ErrCycleClosed)
	}
	return nil
}

// CloseCycle records the outcome of an open or closing cycle. Both IDs may be nil.
func (s *Store) CloseCycle(ctx context.Context, cycleID string, winnerID, tieBreakerVoterID *string) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE cycle
		SET status = $1, winner_id = $2, tie_breaker_voter_id = $3, closed_at = $4
		WHERE id = $5 AND status <> $6
	`, models.StatusClosed, winnerID, tieBreakerVoterID, s.now().UTC(), cycleID, models.StatusClosed)
	if err != nil {
		return fmt.Errorf("close cycle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close cycle: %w", err)
	}
	if n == 0 {
		if _, err := s.GetCycle(ctx, cycleID); err != nil {
			return err
		}
		return fmt.Errorf("cycle %s: %w", cycleID, models.ErrCycleClosed)
	}
	return nil
}

// ListCycles returns cycle history, newest first.
func (s *Store) ListCycles(ctx context.Context) ([]models.CycleSummary, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.cycle_date, c.status, ca.name
		FROM cycle c
		LEFT JOIN candidate ca ON ca.id = c.winner_id
		ORDER BY c.cycle_date DESC, c.opened_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	out := []models.CycleSummary{}
	for rows.Next() {
		var cs models.CycleSummary
		var date string
		if err := rows.Scan(&cs.ID, &date, &cs.Status, &cs.WinnerName); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if cs.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// SaveResultSnapshot stores the tally of a closed cycle. A cycle has at most one snapshot.
func (s *Store) SaveResultSnapshot(ctx context.Context, snap models.ResultSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.ComputedAt.IsZero() {
		snap.ComputedAt = s.now().UTC()
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO result_snapshot (id, cycle_id, computed_at, payload)
		VALUES ($1, $2, $3, $4)
	`, snap.ID, snap.CycleID, snap.ComputedAt, string(payload))
	if isUniqueViolation(err) {
		return fmt.Errorf("snapshot for cycle %s exists: %w", snap.CycleID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetResultSnapshot(ctx context.Context, cycleID string) (models.ResultSnapshot, error) {
	var payload string
	err := s.q.QueryRowContext(ctx, `SELECT payload FROM result_snapshot WHERE cycle_id = $1`, cycleID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ResultSnapshot{}, fmt.Errorf("snapshot for cycle %s: %w", cycleID, models.ErrNotFound)
	}
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	var snap models.ResultSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
