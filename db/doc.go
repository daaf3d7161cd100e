// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns the schema and the transactional store behind the scheduler.

# Connecting

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call CreateSchema multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - candidate: name, running score, win count, last win date, enabled flag
  - voter: contact details, access token, tie-break count
  - cycle: one decision round, open or closed, with its winner and tie-breaker
  - choice: the five candidates offered in a cycle, by ordinal
  - ballot: one rating per (cycle, voter, choice)
  - result_snapshot: JSON record of the tally written at close

# Relationships

	cycle 1──5 choice *──1 candidate
	cycle 1──* ballot *──1 voter
	choice 1──* ballot
	cycle 1──1 result_snapshot

At most one cycle has status 'open'; a partial unique index enforces it.

# Transactions

Store.InTx runs a function against a Store bound to one transaction. Calls
made inside share it, including nested InTx calls:

	err := store.InTx(ctx, func(tx ports.Store) error {
		c, err := tx.CreateCycle(ctx, today, ids)
		...
	})
*/
package db
