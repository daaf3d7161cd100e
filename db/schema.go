// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	return CreateSchemaContext(context.Background(), db)
}

// CreateSchemaContext is CreateSchema bound to ctx.
func CreateSchemaContext(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Statements run one at a time, in order.
var schema = []string{
	// Candidates
	`CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    website TEXT NOT NULL DEFAULT '',
    score DOUBLE PRECISION NOT NULL DEFAULT 0,
    win_count INTEGER NOT NULL DEFAULT 0 CHECK (win_count >= 0),
    last_win_date TEXT NOT NULL DEFAULT '1900-01-01',
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    added_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_candidate_enabled ON candidate(enabled)`,

	// Voters
	`CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    token TEXT NOT NULL UNIQUE,
    tie_break_count INTEGER NOT NULL DEFAULT 0 CHECK (tie_break_count >= 0),
    created_at TIMESTAMP NOT NULL
)`,

	// Cycles
	`CREATE TABLE IF NOT EXISTS cycle (
    id TEXT PRIMARY KEY,
    cycle_date TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closing', 'closed')),
    winner_id TEXT REFERENCES candidate(id),
    tie_breaker_voter_id TEXT REFERENCES voter(id),
    opened_at TIMESTAMP NOT NULL,
    closed_at TIMESTAMP
)`,
	// At most one cycle is open or closing.
	`DROP INDEX IF EXISTS idx_cycle_single_open`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_cycle_single_active ON cycle((status <> 'closed')) WHERE status <> 'closed'`,
	`CREATE INDEX IF NOT EXISTS idx_cycle_date ON cycle(cycle_date)`,

	// Choices
	`CREATE TABLE IF NOT EXISTS choice (
    id TEXT PRIMARY KEY,
    cycle_id TEXT NOT NULL REFERENCES cycle(id) ON DELETE CASCADE,
    ordinal INTEGER NOT NULL CHECK (ordinal >= 0 AND ordinal <= 4),
    candidate_id TEXT NOT NULL REFERENCES candidate(id),
    UNIQUE (cycle_id, ordinal),
    UNIQUE (cycle_id, candidate_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_choice_candidate_id ON choice(candidate_id)`,

	// Ballots
	`CREATE TABLE IF NOT EXISTS ballot (
    cycle_id TEXT NOT NULL REFERENCES cycle(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL REFERENCES voter(id),
    choice_id TEXT NOT NULL REFERENCES choice(id) ON DELETE CASCADE,
    rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
    submitted_at TIMESTAMP NOT NULL,
    ip_hash TEXT,
    PRIMARY KEY (cycle_id, voter_id, choice_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_ballot_choice_id ON ballot(choice_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ballot_voter_id ON ballot(voter_id)`,

	// Result Snapshots
	`CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    cycle_id TEXT NOT NULL UNIQUE REFERENCES cycle(id) ON DELETE CASCADE,
    computed_at TIMESTAMP NOT NULL,
    payload TEXT NOT NULL
)`,
}
