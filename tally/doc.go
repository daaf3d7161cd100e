// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally resolves a cycle's winner from its ballots.

Each ballot rates the cycle's five choices 1-5; a higher rating is a stronger
preference and equal ratings express no preference. Count builds the pairwise
matrix, derives strongest paths (Schulze, winning-votes strength) and reports
every unbeaten choice.

# Ties

When more than one choice is unbeaten, Resolve picks a tie-break voter:

	1. Keep the voters who submitted a ballot for the cycle.
	2. Keep those with the lowest tie-break count.
	3. Pick one uniformly at random.

The chosen voter's ballot, ordered from highest to lowest rating, becomes the
tie-break sequence; the first choice in that sequence that is unbeaten wins.
Given the same ballots and the same voter the outcome is always the same
(see Decide).

With no ballots there is no winner and no tie-break voter.
*/
package tally
