// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/lunchvote/models"
)

const voterColumns = `id, name, email, token, tie_break_count, created_at`

func scanVoter(row rowScanner) (models.Voter, error) {
	var v models.Voter
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.Token, &v.TieBreakCount, &v.CreatedAt)
	return v, err
}

func (s *Store) ListVoters(ctx context.Context) ([]models.Voter, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+voterColumns+` FROM voter ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query voters: %w", err)
	}
	defer rows.Close()

	var out []models.Voter
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) GetVoter(ctx context.Context, id string) (models.Voter, error) {
	return s.getVoter(ctx, `id`, id)
}

// GetVoterByToken resolves the voter a token was issued to.
func (s *Store) GetVoterByToken(ctx context.Context, token string) (models.Voter, error) {
	if token == "" {
		return models.Voter{}, models.ErrUnknownVoter
	}
	v, err := s.getVoter(ctx, `token`, token)
	if errors.Is(err, models.ErrNotFound) {
		return models.Voter{}, models.ErrUnknownVoter
	}
	return v, err
}

func (s *Store) getVoter(ctx context.Context, column, value string) (models.Voter, error) {
	v, err := scanVoter(s.q.QueryRowContext(ctx, `SELECT `+voterColumns+` FROM voter WHERE `+column+` = $1`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Voter{}, fmt.Errorf("voter: %w", models.ErrNotFound)
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("get voter: %w", err)
	}
	return v, nil
}

// CreateVoter inserts v with a fresh ID. The caller issues v.Token.
func (s *Store) CreateVoter(ctx context.Context, v models.Voter) (models.Voter, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.Email = strings.TrimSpace(v.Email)
	if v.Name == "" || v.Email == "" {
		return models.Voter{}, errors.New("voter name and email required")
	}
	if v.Token == "" {
		return models.Voter{}, errors.New("voter token required")
	}
	v.ID = uuid.NewString()
	v.TieBreakCount = 0
	v.CreatedAt = s.now().UTC()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO voter (`+voterColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.Name, v.Email, v.Token, v.TieBreakCount, v.CreatedAt)
	if isUniqueViolation(err) {
		return models.Voter{}, fmt.Errorf("voter %q exists: %w", v.Email, models.ErrConflict)
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("insert voter: %w", err)
	}
	return v, nil
}

// DeleteVoter removes a voter that never submitted a ballot.
func (s *Store) DeleteVoter(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *Store) error {
		var n int
		err := tx.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ballot WHERE voter_id = $1`, id).Scan(&n)
		if err != nil {
			return fmt.Errorf("count voter ballots: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("voter %s has ballots: %w", id, models.ErrConflict)
		}

		var tieBreaks int
		err = tx.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycle WHERE tie_breaker_voter_id = $1`, id).Scan(&tieBreaks)
		if err != nil {
			return fmt.Errorf("count voter tie-breaks: %w", err)
		}
		if tieBreaks > 0 {
			return fmt.Errorf("voter %s broke a tie: %w", id, models.ErrConflict)
		}

		res, err := tx.q.ExecContext(ctx, `DELETE FROM voter WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete voter: %w", err)
		}
		n64, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete voter: %w", err)
		}
		if n64 == 0 {
			return fmt.Errorf("voter %s: %w", id, models.ErrNotFound)
		}
		return nil
	})
}

// VoterTieBreakCounts lists every voter's tie-break count, ordered by voter ID.
func (s *Store) VoterTieBreakCounts(ctx context.Context) ([]models.TieBreakCount, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, tie_break_count FROM voter ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tie-break counts: %w", err)
	}
	defer rows.Close()

	var out []models.TieBreakCount
	for rows.Next() {
		var tc models.TieBreakCount
		if err := rows.Scan(&tc.VoterID, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tie-break count: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *Store) IncrementTieBreak(ctx context.Context, voterID string) error {
	res, err := s.q.ExecContext(ctx, `UPDATE voter SET tie_break_count = tie_break_count + 1 WHERE id = $1`, voterID)
	return checkAffected(res, err, "voter", voterID)
}
