// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the lunchvote server.

lunchvote runs a weekly team lunch vote. On the configured day a scheduler
opens a cycle with five candidate restaurants and mails every voter a link;
voters rate each choice from 1 to 5; at closing time the ballots are counted
with the Schulze method, a tie is broken by the voter who has broken the
fewest ties, the winner is announced and every candidate's score is updated.

# Starting the Server

	ADMIN_KEY=secret go run .

Or with flags and a schedule file:

	go run . -p 3318 -t postgres -d "postgres://..." -c lunch.json --admin-key secret

# Configuration

Required settings:

  - ADMIN_KEY (--admin-key): key for the /admin routes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t) and DATABASE_URL (-d): sqlite (default, lunch.db) or postgres
  - CONFIG_FILE (-c): JSON, YAML or TOML file with lunch.* and smtp.* keys
  - OPEN_DAYS, OPEN_AT, CLOSE_AT, TIMEZONE: the voting window (default Thursday 09:30-11:00)
  - NO_REPEAT_DAYS: days a winner sits out (default 21)
  - SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_FROM: mail; without a
    host announcements are logged instead
  - LOG_LEVEL: debug, info, warn or error

A .env file in the working directory is loaded first.

# Architecture

  - scheduler: the Idle/Open state machine driven by ticks
  - selection, scoring, tally: candidate selection, score smoothing, Schulze count
  - db: SQLite and PostgreSQL store
  - notify: SMTP and logging notifiers
  - handlers, router, middleware: JSON HTTP API
  - bootstrap: wiring shared with cmd/lunchctl
  - metrics: Prometheus collectors served at /metrics

See package documentation for each component.
*/
package main
