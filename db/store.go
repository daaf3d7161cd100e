// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/ports"
)

// querier is the subset of *sql.DB and *sql.Tx the store runs queries through.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ports.Store on database/sql. Queries use $N placeholders,
// which both lib/pq and modernc sqlite accept.
type Store struct {
	db  *sql.DB
	q   querier
	now func() time.Time
}

var _ ports.Store = (*Store)(nil)

// NewStore wraps an open connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db, now: time.Now}
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// InTx runs fn inside a transaction. A store that is already in a
// transaction runs fn in that transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx ports.Store) error) error {
	return s.inTx(ctx, func(tx *Store) error { return fn(tx) })
}

func (s *Store) inTx(ctx context.Context, fn func(tx *Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Stats counts cycles and submitted ballots.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycle`).Scan(&st.CycleCount)
	if err != nil {
		return models.Stats{}, fmt.Errorf("count cycles: %w", err)
	}

	err = s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (SELECT DISTINCT cycle_id, voter_id FROM ballot) AS submissions
	`).Scan(&st.BallotCount)
	if err != nil {
		return models.Stats{}, fmt.Errorf("count ballots: %w", err)
	}

	return st, nil
}

func formatDate(t time.Time) string {
	return models.DateOf(t).Format(models.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
