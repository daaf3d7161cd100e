// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package selection

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/lunchvote/models"
)

var today = time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC)

func candidate(id string, score float64) models.Candidate {
	return models.Candidate{
		ID:          id,
		Name:        "Candidate " + id,
		Score:       score,
		LastWinDate: models.FarPast,
		Enabled:     true,
	}
}

func pool(n int) []models.Candidate {
	list := make([]models.Candidate, n)
	for i := range list {
		list[i] = candidate(fmt.Sprintf("c%02d", i), float64(n-i)/float64(n))
	}
	return list
}

func ids(list []models.Candidate) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}

func TestEligible(t *testing.T) {
	recent := candidate("recent", 1)
	recent.LastWinDate = models.DateOf(today).AddDate(0, 0, -21)

	boundary := candidate("boundary", 1)
	boundary.LastWinDate = models.DateOf(today).AddDate(0, 0, -22)

	disabled := candidate("disabled", 1)
	disabled.Enabled = false

	never := candidate("never", 0)

	got := Eligible([]models.Candidate{recent, boundary, disabled, never}, 21, today)
	assert.Equal(t, []string{"boundary", "never"}, ids(got))
}

func TestSelectReturnsFiveDistinctEligible(t *testing.T) {
	candidates := pool(12)
	candidates[0].LastWinDate = models.DateOf(today).AddDate(0, 0, -3)
	candidates[5].Enabled = false

	for seed := uint64(0); seed < 200; seed++ {
		s := New(21, rand.New(rand.NewPCG(seed, seed)))

		got, err := s.Select(candidates, today)
		require.NoError(t, err)
		require.Len(t, got, models.ChoicesPerCycle)

		seen := map[string]bool{}
		for _, c := range got {
			assert.False(t, seen[c.ID], "duplicate candidate %s (seed %d)", c.ID, seed)
			seen[c.ID] = true
			assert.NotEqual(t, "c00", c.ID, "recent winner selected (seed %d)", seed)
			assert.NotEqual(t, "c05", c.ID, "disabled candidate selected (seed %d)", seed)
		}
	}
}

func TestSelectDrawsOneFromEachThird(t *testing.T) {
	candidates := pool(9) // all rated, strata of 3

	for seed := uint64(0); seed < 100; seed++ {
		s := New(21, rand.New(rand.NewPCG(seed, 7)))
		got, err := s.Select(candidates, today)
		require.NoError(t, err)

		var top, middle, bottom int
		for _, c := range got {
			var idx int
			_, err := fmt.Sscanf(c.ID, "c%02d", &idx)
			require.NoError(t, err)
			switch {
			case idx < 3:
				top++
			case idx < 6:
				middle++
			default:
				bottom++
			}
		}
		assert.GreaterOrEqual(t, top, 1, "seed %d", seed)
		assert.GreaterOrEqual(t, middle, 1, "seed %d", seed)
		assert.GreaterOrEqual(t, bottom, 1, "seed %d", seed)
	}
}

func TestSelectPromotesNewcomers(t *testing.T) {
	candidates := pool(6)
	for i := 0; i < 3; i++ {
		candidates = append(candidates, candidate(fmt.Sprintf("new%d", i), 0))
	}

	// Nine candidates rank into thirds of three; the bottom third is exactly
	// the newcomers, so one is drawn there and the other two fill slots 4-5.
	for seed := uint64(0); seed < 50; seed++ {
		s := New(21, rand.New(rand.NewPCG(seed, 3)))
		got, err := s.Select(candidates, today)
		require.NoError(t, err)

		newcomers := 0
		for _, c := range got {
			if c.Score == 0 {
				newcomers++
			}
		}
		assert.Equal(t, 3, newcomers, "seed %d: %v", seed, ids(got))
	}
}

func TestSelectFillsFromRatedWhenFewNewcomers(t *testing.T) {
	candidates := pool(7)
	candidates = append(candidates, candidate("new0", 0))

	for seed := uint64(0); seed < 50; seed++ {
		s := New(21, rand.New(rand.NewPCG(seed, 11)))
		got, err := s.Select(candidates, today)
		require.NoError(t, err)
		require.Len(t, got, models.ChoicesPerCycle)
		assert.Contains(t, ids(got), "new0", "seed %d", seed)
	}
}

func TestSelectNotEnoughCandidates(t *testing.T) {
	candidates := pool(6)
	candidates[1].Enabled = false
	candidates[2].LastWinDate = models.DateOf(today)

	_, err := New(21, nil).Select(candidates, today)
	assert.ErrorIs(t, err, ErrNotEnoughCandidates)
}

func TestSelectDoesNotReorderInput(t *testing.T) {
	candidates := pool(8)
	candidates[0], candidates[7] = candidates[7], candidates[0]
	before := ids(candidates)

	_, err := New(21, rand.New(rand.NewPCG(1, 2))).Select(candidates, today)
	require.NoError(t, err)
	assert.Equal(t, before, ids(candidates))
}

func TestSelectIsReproducibleForSeed(t *testing.T) {
	candidates := pool(15)

	a, err := New(21, rand.New(rand.NewPCG(42, 42))).Select(candidates, today)
	require.NoError(t, err)
	b, err := New(21, rand.New(rand.NewPCG(42, 42))).Select(candidates, today)
	require.NoError(t, err)

	assert.Equal(t, ids(a), ids(b))
}

func TestThirds(t *testing.T) {
	tests := []struct {
		n    int
		want [3]int
	}{
		{5, [3]int{2, 2, 1}},
		{6, [3]int{2, 2, 2}},
		{7, [3]int{3, 2, 2}},
		{10, [3]int{4, 3, 3}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			strata := thirds(pool(tt.n))
			got := [3]int{len(strata[0]), len(strata[1]), len(strata[2])}
			assert.Equal(t, tt.want, got)
		})
	}
}
