// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/lunchvote/models"
)

const candidateColumns = `id, name, website, score, win_count, last_win_date, enabled, added_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (models.Candidate, error) {
	var c models.Candidate
	var lastWin string
	if err := row.Scan(&c.ID, &c.Name, &c.Website, &c.Score, &c.WinCount, &lastWin, &c.Enabled, &c.AddedAt); err != nil {
		return models.Candidate{}, err
	}
	d, err := parseDate(lastWin)
	if err != nil {
		return models.Candidate{}, err
	}
	c.LastWinDate = d
	return c, nil
}

func (s *Store) queryCandidates(ctx context.Context, query string, args ...any) ([]models.Candidate, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCandidates returns every candidate, best score first.
func (s *Store) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	return s.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM candidate ORDER BY score DESC, name`)
}

func (s *Store) ListEnabledCandidates(ctx context.Context) ([]models.Candidate, error) {
	return s.queryCandidates(ctx, `SELECT `+candidateColumns+` FROM candidate WHERE enabled = $1 ORDER BY name`, true)
}

func (s *Store) GetCandidate(ctx context.Context, id string) (models.Candidate, error) {
	c, err := scanCandidate(s.q.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidate WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Candidate{}, fmt.Errorf("candidate %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// CreateCandidate inserts c with a fresh ID. A zero LastWinDate means never won.
func (s *Store) CreateCandidate(ctx context.Context, c models.Candidate) (models.Candidate, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return models.Candidate{}, errors.New("candidate name required")
	}
	if c.WinCount < 0 {
		return models.Candidate{}, errors.New("win count must not be negative")
	}
	if c.LastWinDate.IsZero() {
		c.LastWinDate = models.FarPast
	}
	c.ID = uuid.NewString()
	c.Enabled = true
	c.AddedAt = s.now().UTC()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO candidate (`+candidateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Name, c.Website, c.Score, c.WinCount, formatDate(c.LastWinDate), c.Enabled, c.AddedAt)
	if isUniqueViolation(err) {
		return models.Candidate{}, fmt.Errorf("candidate %q exists: %w", c.Name, models.ErrConflict)
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("insert candidate: %w", err)
	}
	return c, nil
}

// SetCandidateEnabled toggles whether a candidate can be selected. Candidates
// are never deleted once cycles reference them.
func (s *Store) SetCandidateEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.q.ExecContext(ctx, `UPDATE candidate SET enabled = $1 WHERE id = $2`, enabled, id)
	return checkAffected(res, err, "candidate", id)
}

func (s *Store) UpdateCandidateScore(ctx context.Context, id string, score float64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE candidate SET score = $1 WHERE id = $2`, score, id)
	return checkAffected(res, err, "candidate", id)
}

// RecordWin increments the win count and stamps the win date.
func (s *Store) RecordWin(ctx context.Context, id string, date time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE candidate SET win_count = win_count + 1, last_win_date = $1 WHERE id = $2
	`, formatDate(date), id)
	return checkAffected(res, err, "candidate", id)
}

// AdjustWins moves the win count by delta, clamped at zero. It does not touch the last win date.
func (s *Store) AdjustWins(ctx context.Context, id string, delta int) (models.Candidate, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE candidate
		SET win_count = CASE WHEN win_count + $1 < 0 THEN 0 ELSE win_count + $1 END
		WHERE id = $2
	`, delta, id)
	if err := checkAffected(res, err, "candidate", id); err != nil {
		return models.Candidate{}, err
	}
	return s.GetCandidate(ctx, id)
}

// RatingsFor returns every rating cast for a candidate across all cycles,
// restricted to one voter when voterID is non-empty.
func (s *Store) RatingsFor(ctx context.Context, candidateID, voterID string) ([]int, error) {
	query := `
		SELECT b.rating FROM ballot b
		JOIN choice c ON b.choice_id = c.id
		WHERE c.candidate_id = $1`
	args := []any{candidateID}
	if voterID != "" {
		query += ` AND b.voter_id = $2`
		args = append(args, voterID)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	ratings := []int{}
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

func checkAffected(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}
