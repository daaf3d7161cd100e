// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler runs the vote cycle state machine.

# States

There are two states, Idle (no open cycle) and Open. The authoritative state
is whether the store holds an open cycle; nothing is kept in memory between
ticks. Each tick reads the clock in the configured location and:

  - Idle, on an open day with the time in [OpenAt, CloseAt): selects five
    candidates, creates the cycle and announces it to every voter.
  - Open, at or after CloseAt (or on a later day): seals the cycle so it
    takes no more ballots, then tallies the ballots,
    records the winner, refreshes every candidate's score and announces the
    result to the voters who took part. A cycle without ballots closes with
    no winner and no stat changes.
  - Closing (a close that did not finish): closes it, whatever the time.
  - Anything else: no-op.

Ticks never overlap; one that starts while another runs is skipped.

# Ballots

SubmitBallot is the write path for voters. It validates the five ratings,
then replaces the voter's ballot for the open cycle in one transaction.

# Display

Leaderboard and CycleResults recompute scores and tallies on demand without
writing anything.
*/
package scheduler
