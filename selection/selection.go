// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package selection

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/scoring"
)

// ErrNotEnoughCandidates means fewer than five candidates passed the eligibility filter.
var ErrNotEnoughCandidates = errors.New("not enough eligible candidates")

// newcomerSlots is how many of the non-stratified slots prefer never-rated candidates.
const newcomerSlots = 2

// Selector picks the candidates offered in a new cycle.
type Selector struct {
	// NoRepeatDays is how long a winner sits out after winning.
	NoRepeatDays int
	// Floor is the score of a candidate with no rating history.
	Floor float64
	// Rand is the randomness source; nil uses the global source.
	Rand *rand.Rand
}

// New returns a Selector using the production score floor.
func New(noRepeatDays int, rng *rand.Rand) *Selector {
	return &Selector{
		NoRepeatDays: noRepeatDays,
		Floor:        scoring.Floor(),
		Rand:         rng,
	}
}

// Eligible returns the enabled candidates whose last win is at least
// noRepeatDays+1 days before today. The input slice is not modified.
func Eligible(candidates []models.Candidate, noRepeatDays int, today time.Time) []models.Candidate {
	cutoff := models.DateOf(today).AddDate(0, 0, -(noRepeatDays + 1))

	eligible := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Enabled {
			continue
		}
		if models.DateOf(c.LastWinDate).After(cutoff) {
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible
}

// Select returns exactly five distinct candidates in random order.
//
// One candidate is drawn from each third of the eligible set ranked by score,
// then two more are drawn, preferring candidates that have never been rated.
func (s *Selector) Select(candidates []models.Candidate, today time.Time) ([]models.Candidate, error) {
	eligible := Eligible(candidates, s.NoRepeatDays, today)
	if len(eligible) < models.ChoicesPerCycle {
		return nil, fmt.Errorf("%w: %d eligible, need %d", ErrNotEnoughCandidates, len(eligible), models.ChoicesPerCycle)
	}

	ranked := slices.Clone(eligible)
	slices.SortStableFunc(ranked, func(a, b models.Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	picked := make([]models.Candidate, 0, models.ChoicesPerCycle)
	for _, stratum := range thirds(ranked) {
		picked = append(picked, stratum[s.intN(len(stratum))])
	}

	taken := make(map[string]bool, len(picked))
	for _, c := range picked {
		taken[c.ID] = true
	}

	var newcomers, rated []models.Candidate
	for _, c := range ranked {
		if taken[c.ID] {
			continue
		}
		if c.Score == s.Floor {
			newcomers = append(newcomers, c)
		} else {
			rated = append(rated, c)
		}
	}

	if len(newcomers) >= newcomerSlots {
		picked = append(picked, s.sample(newcomers, newcomerSlots)...)
	} else {
		picked = append(picked, newcomers...)
		picked = append(picked, s.sample(rated, models.ChoicesPerCycle-len(picked))...)
	}

	s.shuffle(picked)
	return picked, nil
}

// thirds splits ranked into top, middle and bottom strata whose sizes differ by at most one.
// Extra elements go to the upper strata first.
func thirds(ranked []models.Candidate) [3][]models.Candidate {
	n := len(ranked)
	size := [3]int{n / 3, n / 3, n / 3}
	for i := 0; i < n%3; i++ {
		size[i]++
	}

	var strata [3][]models.Candidate
	start := 0
	for i := range strata {
		strata[i] = ranked[start : start+size[i]]
		start += size[i]
	}
	return strata
}

// sample draws k elements without replacement. pool is not modified.
func (s *Selector) sample(pool []models.Candidate, k int) []models.Candidate {
	work := slices.Clone(pool)
	for i := 0; i < k; i++ {
		j := i + s.intN(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:k]
}

func (s *Selector) shuffle(list []models.Candidate) {
	swap := func(i, j int) { list[i], list[j] = list[j], list[i] }
	if s.Rand != nil {
		s.Rand.Shuffle(len(list), swap)
		return
	}
	rand.Shuffle(len(list), swap)
}

func (s *Selector) intN(n int) int {
	if s.Rand != nil {
		return s.Rand.IntN(n)
	}
	return rand.IntN(n)
}
