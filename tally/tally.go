// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/danielhkuo/lunchvote/models"
)

const n = models.ChoicesPerCycle

// NoWinner marks an undecided or empty tally.
const NoWinner = -1

// Result is the outcome of counting one cycle's ballots. Candidates are
// identified by choice ordinal.
type Result struct {
	// Pairwise[i][j] is the number of ballots rating i above j.
	Pairwise [][]int
	// Strongest[i][j] is the strength of the strongest path from i to j.
	Strongest [][]int
	// Winners are the ordinals no other candidate beats, ascending.
	Winners []int
	// Winner is the single winner, or NoWinner.
	Winner int
	// Tied is set when more than one candidate is unbeaten.
	Tied bool
}

// Count runs the strongest-path (Schulze) method over ballots.
//
// When several candidates are unbeaten and tieBreaker is non-empty, the winner
// is the first ordinal in tieBreaker that is among them. Without a tie-breaker
// a tie leaves Winner as NoWinner. Count is pure.
func Count(ballots []models.Ballot, tieBreaker []int) Result {
	if len(ballots) == 0 {
		return Result{Winner: NoWinner}
	}

	d := square()
	for _, b := range ballots {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i != j && b.Ratings[i] > b.Ratings[j] {
					d[i][j]++
				}
			}
		}
	}

	p := square()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && d[i][j] > d[j][i] {
				p[i][j] = d[i][j]
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				p[j][k] = max(p[j][k], min(p[j][i], p[i][k]))
			}
		}
	}

	var winners []int
	for i := 0; i < n; i++ {
		beaten := false
		for j := 0; j < n; j++ {
			if i != j && p[j][i] > p[i][j] {
				beaten = true
				break
			}
		}
		if !beaten {
			winners = append(winners, i)
		}
	}

	res := Result{Pairwise: d, Strongest: p, Winners: winners, Winner: NoWinner}
	switch {
	case len(winners) == 1:
		res.Winner = winners[0]
	case len(winners) > 1:
		res.Tied = true
		for _, ord := range tieBreaker {
			if slices.Contains(winners, ord) {
				res.Winner = ord
				break
			}
		}
	}
	return res
}

// TieBreakSequence orders ordinals by rating, highest first. Equal ratings
// keep ordinal order so the sequence is fixed for a given ballot.
func TieBreakSequence(ratings [n]int) []int {
	seq := make([]int, n)
	for i := range seq {
		seq[i] = i
	}
	slices.SortStableFunc(seq, func(a, b int) int {
		return cmp.Compare(ratings[b], ratings[a])
	})
	return seq
}

// PickTieBreaker chooses uniformly among the voters with the fewest tie-breaks.
// It returns false when counts is empty.
func PickTieBreaker(counts []models.TieBreakCount, rng *rand.Rand) (string, bool) {
	if len(counts) == 0 {
		return "", false
	}

	least := counts[0].Count
	for _, c := range counts[1:] {
		least = min(least, c.Count)
	}

	var pool []string
	for _, c := range counts {
		if c.Count == least {
			pool = append(pool, c.VoterID)
		}
	}
	slices.Sort(pool)

	if rng != nil {
		return pool[rng.IntN(len(pool))], true
	}
	return pool[rand.IntN(len(pool))], true
}

func square() [][]int {
	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
	}
	return m
}
