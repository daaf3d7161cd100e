// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import "github.com/danielhkuo/lunchvote/models"

// Weighting selects the weight a histogram bucket contributes to the mean.
type Weighting int

const (
	// ZeroBased weights bucket i by i, so a 1-star rating contributes nothing.
	// This is the production formula: scores live in [0, 4).
	ZeroBased Weighting = iota
	// OneBased weights bucket i by i+1, the literal star value.
	OneBased
)

const buckets = models.MaxRating - models.MinRating + 1

// prior adds two pseudo-ratings to the lowest bucket.
var prior = [buckets]int{2, 0, 0, 0, 0}

// Aggregator turns a rating history into a single comparable score.
// The zero value uses ZeroBased weighting.
type Aggregator struct {
	Weighting Weighting
}

// Histogram counts ratings into buckets 0-4 for star values 1-5.
// Ratings outside 1-5 are ignored.
func Histogram(ratings []int) [buckets]int {
	var h [buckets]int
	for _, r := range ratings {
		if r < models.MinRating || r > models.MaxRating {
			continue
		}
		h[r-models.MinRating]++
	}
	return h
}

// Score computes the Dirichlet-smoothed mean of ratings.
func (a Aggregator) Score(ratings []int) float64 {
	h := Histogram(ratings)

	var n, weight int
	for i := range h {
		count := h[i] + prior[i]
		n += count
		weight += a.bucketWeight(i) * count
	}
	if n == 0 {
		return 0
	}
	return float64(weight) / float64(n)
}

// Floor is the score of a candidate with no rating history.
func (a Aggregator) Floor() float64 {
	return a.Score(nil)
}

func (a Aggregator) bucketWeight(i int) int {
	if a.Weighting == OneBased {
		return i + 1
	}
	return i
}

// Score computes the production (ZeroBased) score.
func Score(ratings []int) float64 {
	return Aggregator{}.Score(ratings)
}

// Floor is the production score of a candidate with no ratings.
func Floor() float64 {
	return Aggregator{}.Floor()
}
