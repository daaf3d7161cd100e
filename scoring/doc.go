// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scoring computes the running quality score of a candidate.

The score is a Bayesian (Dirichlet) estimate of the mean star rating. Ratings
1-5 are counted into buckets 0-4, two pseudo-ratings are added to bucket 0,
and the score is the bucket-weighted mean:

	score = sum(i * count[i]) / sum(count[i])

With the prior in place a candidate with no history scores exactly 0, a
single 3-star rating scores 2/3, and a candidate rated 5 stars by any number
of voters approaches but never reaches 4.

Scores are never maintained incrementally; callers recompute them from the
full rating history whenever they are needed.

OneBased weighting (the literal star value) is available for comparison but
is not used by the scheduler.
*/
package scoring
