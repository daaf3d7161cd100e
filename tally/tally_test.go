// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/lunchvote/models"
)

func ballot(voterID string, ratings ...int) models.Ballot {
	b := models.Ballot{CycleID: "cycle", VoterID: voterID}
	copy(b.Ratings[:], ratings)
	return b
}

// ranked converts an order such as "ACBED" into a ballot rating the first
// letter 5 and the last 1.
func ranked(voterID, order string) models.Ballot {
	b := models.Ballot{CycleID: "cycle", VoterID: voterID}
	for pos, r := range order {
		b.Ratings[r-'A'] = models.MaxRating - pos
	}
	return b
}

func TestCountNoBallots(t *testing.T) {
	res := Count(nil, nil)
	assert.Equal(t, NoWinner, res.Winner)
	assert.False(t, res.Tied)
	assert.Empty(t, res.Winners)
}

func TestCountCondorcetWinner(t *testing.T) {
	ballots := []models.Ballot{
		ballot("v1", 5, 4, 3, 2, 1),
		ballot("v2", 4, 5, 3, 2, 1),
		ballot("v3", 5, 3, 4, 1, 2),
	}

	res := Count(ballots, nil)
	assert.Equal(t, 0, res.Winner)
	assert.False(t, res.Tied)
	assert.Equal(t, []int{0}, res.Winners)
	assert.Equal(t, 2, res.Pairwise[0][1])
	assert.Equal(t, 1, res.Pairwise[1][0])
}

func TestCountEqualRatingsExpressNoPreference(t *testing.T) {
	ballots := []models.Ballot{ballot("v1", 3, 3, 3, 3, 3)}

	res := Count(ballots, nil)
	for i := range res.Pairwise {
		for j := range res.Pairwise[i] {
			assert.Zero(t, res.Pairwise[i][j])
		}
	}
	assert.True(t, res.Tied)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Winners)
	assert.Equal(t, NoWinner, res.Winner)
}

// Forty-five voters over A-E; the strongest-path winner is E even though
// no candidate wins every pairwise contest.
func TestCountStrongestPaths(t *testing.T) {
	groups := []struct {
		count int
		order string
	}{
		{5, "ACBED"},
		{5, "ADECB"},
		{8, "BEDAC"},
		{3, "CABED"},
		{7, "CAEBD"},
		{2, "CBADE"},
		{7, "DCEBA"},
		{8, "EBADC"},
	}
	var ballots []models.Ballot
	for g, group := range groups {
		for i := 0; i < group.count; i++ {
			ballots = append(ballots, ranked(fmt.Sprintf("v%d-%d", g, i), group.order))
		}
	}

	res := Count(ballots, nil)

	assert.Equal(t, []int{0, 20, 26, 30, 22}, res.Pairwise[0])
	assert.Equal(t, []int{23, 27, 21, 31, 0}, res.Pairwise[4])
	assert.Equal(t, []int{0, 28, 28, 30, 24}, res.Strongest[0])
	assert.Equal(t, []int{25, 28, 28, 31, 0}, res.Strongest[4])
	assert.Equal(t, 4, res.Winner)
	assert.False(t, res.Tied)
}

func TestCountTieBreakerSequence(t *testing.T) {
	ballots := []models.Ballot{
		ballot("v1", 5, 4, 3, 2, 1),
		ballot("v2", 1, 2, 3, 4, 5),
	}

	res := Count(ballots, []int{2, 0, 1, 3, 4})
	assert.True(t, res.Tied)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Winners)
	assert.Equal(t, 2, res.Winner)
}

func TestTieBreakSequence(t *testing.T) {
	tests := []struct {
		name    string
		ratings [5]int
		want    []int
	}{
		{"strict order", [5]int{1, 5, 3, 4, 2}, []int{1, 3, 2, 4, 0}},
		{"equal ratings keep ordinal order", [5]int{4, 4, 1, 5, 4}, []int{3, 0, 1, 4, 2}},
		{"all equal", [5]int{2, 2, 2, 2, 2}, []int{0, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TieBreakSequence(tt.ratings))
		})
	}
}

func TestPickTieBreaker(t *testing.T) {
	counts := []models.TieBreakCount{
		{VoterID: "v1", Count: 2},
		{VoterID: "v2", Count: 1},
		{VoterID: "v3", Count: 1},
	}

	seen := map[string]int{}
	for seed := uint64(0); seed < 100; seed++ {
		id, ok := PickTieBreaker(counts, rand.New(rand.NewPCG(seed, 1)))
		require.True(t, ok)
		seen[id]++
	}

	assert.Zero(t, seen["v1"])
	assert.Positive(t, seen["v2"])
	assert.Positive(t, seen["v3"])
}

func TestPickTieBreakerEmpty(t *testing.T) {
	_, ok := PickTieBreaker(nil, nil)
	assert.False(t, ok)
}

func TestResolveMirroredBallots(t *testing.T) {
	ballots := []models.Ballot{
		ballot("voter1", 5, 4, 3, 2, 1),
		ballot("voter2", 1, 2, 3, 4, 5),
	}

	tests := []struct {
		name       string
		counts     []models.TieBreakCount
		wantVoter  string
		wantWinner int
	}{
		{
			name:       "voter1 has broken fewer ties",
			counts:     []models.TieBreakCount{{VoterID: "voter1", Count: 0}, {VoterID: "voter2", Count: 3}},
			wantVoter:  "voter1",
			wantWinner: 0,
		},
		{
			name:       "voter2 has broken fewer ties",
			counts:     []models.TieBreakCount{{VoterID: "voter1", Count: 1}, {VoterID: "voter2", Count: 0}},
			wantVoter:  "voter2",
			wantWinner: 4,
		},
		{
			name: "non-voters are never chosen",
			counts: []models.TieBreakCount{
				{VoterID: "absent", Count: 0},
				{VoterID: "voter1", Count: 5},
				{VoterID: "voter2", Count: 4},
			},
			wantVoter:  "voter2",
			wantWinner: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resolve(ballots, tt.counts, rand.New(rand.NewPCG(9, 9)))
			assert.Equal(t, []int{0, 1, 2, 3, 4}, out.TiedWinners)
			assert.Equal(t, tt.wantVoter, out.TieBreakerVoterID)
			assert.Equal(t, tt.wantWinner, out.Winner)
		})
	}
}

func TestResolveEqualCountsPicksEitherVoter(t *testing.T) {
	ballots := []models.Ballot{
		ballot("voter1", 5, 4, 3, 2, 1),
		ballot("voter2", 1, 2, 3, 4, 5),
	}
	counts := []models.TieBreakCount{{VoterID: "voter1"}, {VoterID: "voter2"}}

	for seed := uint64(0); seed < 20; seed++ {
		out := Resolve(ballots, counts, rand.New(rand.NewPCG(seed, 0)))
		switch out.TieBreakerVoterID {
		case "voter1":
			assert.Equal(t, 0, out.Winner)
		case "voter2":
			assert.Equal(t, 4, out.Winner)
		default:
			t.Fatalf("unexpected tie-breaker %q", out.TieBreakerVoterID)
		}
	}
}

func TestResolveNoTieNeedsNoTieBreaker(t *testing.T) {
	ballots := []models.Ballot{
		ballot("v1", 5, 4, 3, 2, 1),
		ballot("v2", 5, 1, 2, 3, 4),
	}

	out := Resolve(ballots, []models.TieBreakCount{{VoterID: "v1"}, {VoterID: "v2"}}, nil)
	assert.Equal(t, 0, out.Winner)
	assert.Empty(t, out.TieBreakerVoterID)
	assert.Nil(t, out.TiedWinners)
}

func TestResolveNoBallots(t *testing.T) {
	out := Resolve(nil, []models.TieBreakCount{{VoterID: "v1"}}, nil)
	assert.Equal(t, NoWinner, out.Winner)
	assert.Empty(t, out.TieBreakerVoterID)
}

func TestDecideIsDeterministic(t *testing.T) {
	ballots := []models.Ballot{
		ballot("a", 5, 4, 3, 2, 1),
		ballot("b", 1, 2, 3, 4, 5),
		ballot("c", 3, 5, 1, 4, 2),
	}

	first := Decide(ballots, "c")
	for i := 0; i < 10; i++ {
		again := Decide(ballots, "c")
		assert.Equal(t, first.Winner, again.Winner)
		assert.Equal(t, first.Result.Pairwise, again.Result.Pairwise)
	}
}
