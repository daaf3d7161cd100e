// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package selection chooses the five candidates offered in a new cycle.

# Algorithm

	1. Keep enabled candidates whose last win is at least NoRepeatDays+1 days ago.
	2. Rank them by score, highest first.
	3. Split the ranking into three strata and draw one candidate from each.
	4. From what is left, draw two never-rated candidates (score == Floor) if
	   at least two exist; otherwise take the never-rated ones there are and
	   fill the rest at random.
	5. Shuffle the five so the stratified draw leaves no positional trace.

Fewer than five eligible candidates is a precondition failure
(ErrNotEnoughCandidates); the scheduler retries on its next tick.

The selector works on copies of its input: the caller's slice is never
reordered, and the picked and remaining views never alias.
*/
package selection
