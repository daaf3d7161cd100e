// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"math/rand/v2"

	"github.com/danielhkuo/lunchvote/models"
)

// Outcome is a resolved cycle.
type Outcome struct {
	Result Result
	// Winner is the winning ordinal, or NoWinner when there were no ballots.
	Winner int
	// TiedWinners lists the unbeaten ordinals before the tie-break, when there was a tie.
	TiedWinners []int
	// TieBreakerVoterID is the voter whose ballot broke the tie, if any.
	TieBreakerVoterID string
}

// Resolve counts ballots and, on a tie, picks a tie-break voter among those who
// voted, preferring the ones who have broken the fewest ties.
//
// counts may include voters who did not vote; they are ignored. Persisting the
// chosen voter's new count is the caller's job.
func Resolve(ballots []models.Ballot, counts []models.TieBreakCount, rng *rand.Rand) Outcome {
	first := Count(ballots, nil)
	if !first.Tied {
		return Outcome{Result: first, Winner: first.Winner}
	}

	voted := make(map[string]bool, len(ballots))
	for _, b := range ballots {
		voted[b.VoterID] = true
	}
	known := make(map[string]bool, len(counts))
	var eligible []models.TieBreakCount
	for _, c := range counts {
		if voted[c.VoterID] {
			eligible = append(eligible, c)
			known[c.VoterID] = true
		}
	}
	// Voters missing from counts have never broken a tie.
	for _, b := range ballots {
		if !known[b.VoterID] {
			eligible = append(eligible, models.TieBreakCount{VoterID: b.VoterID})
			known[b.VoterID] = true
		}
	}

	voterID, _ := PickTieBreaker(eligible, rng)
	out := Decide(ballots, voterID)
	out.TiedWinners = first.Winners
	return out
}

// Decide counts ballots using voterID's ballot as the tie-break sequence.
// It is deterministic for fixed inputs. TieBreakerVoterID is only set when the
// sequence was actually needed.
func Decide(ballots []models.Ballot, voterID string) Outcome {
	var seq []int
	for _, b := range ballots {
		if b.VoterID == voterID {
			seq = TieBreakSequence(b.Ratings)
			break
		}
	}

	res := Count(ballots, seq)
	out := Outcome{Result: res, Winner: res.Winner}
	if res.Tied {
		out.TiedWinners = res.Winners
		if seq != nil {
			out.TieBreakerVoterID = voterID
		}
	}
	return out
}
