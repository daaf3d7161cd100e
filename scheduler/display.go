// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/ports"
	"github.com/danielhkuo/lunchvote/scoring"
	"github.com/danielhkuo/lunchvote/tally"
)

// RefreshScores recomputes and stores every candidate's score.
func (s *Scheduler) RefreshScores(ctx context.Context) error {
	return s.store.InTx(ctx, func(tx ports.Store) error {
		return refreshScores(ctx, tx)
	})
}

// Leaderboard scores every candidate from its rating history, best first.
// With a voterID only that voter's ratings count. Nothing is written.
func (s *Scheduler) Leaderboard(ctx context.Context, voterID string) ([]models.LeaderboardEntry, error) {
	candidates, err := s.store.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entries := make([]models.LeaderboardEntry, 0, len(candidates))
	for _, c := range candidates {
		ratings, err := s.store.RatingsFor(ctx, c.ID, voterID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.LeaderboardEntry{
			CandidateID: c.ID,
			Name:        c.Name,
			Website:     c.Website,
			Score:       scoring.Score(ratings),
			WinCount:    c.WinCount,
			LastWinDate: c.LastWinDate,
			LastWinAgo:  lastWinAgo(c.LastWinDate, now),
			Enabled:     c.Enabled,
		})
	}

	slices.SortStableFunc(entries, func(a, b models.LeaderboardEntry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return entries, nil
}

func lastWinAgo(last, now time.Time) string {
	if !last.After(models.FarPast) {
		return "never"
	}
	return humanize.RelTime(last, now, "ago", "from now")
}

// CycleResults recounts a cycle for display. Tied winners come from a count
// without a tie-break; the stored winner and tie-breaker are reported as recorded.
func (s *Scheduler) CycleResults(ctx context.Context, cycleID string) (models.CycleResults, error) {
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return models.CycleResults{}, err
	}
	ballots, err := s.store.BallotsFor(ctx, cycleID)
	if err != nil {
		return models.CycleResults{}, err
	}
	voters, err := s.store.ListVoters(ctx)
	if err != nil {
		return models.CycleResults{}, err
	}
	names := make(map[string]string, len(voters))
	for _, v := range voters {
		names[v.ID] = v.Name
	}

	res := tally.Count(ballots, nil)
	out := models.CycleResults{
		Cycle:    cycle,
		Ballots:  make([]models.VoterRatings, 0, len(ballots)),
		Pairwise: res.Pairwise,
	}
	for _, b := range ballots {
		out.Ballots = append(out.Ballots, models.VoterRatings{VoterName: names[b.VoterID], Ratings: b.Ratings[:]})
	}
	slices.SortFunc(out.Ballots, func(a, b models.VoterRatings) int {
		return cmp.Compare(a.VoterName, b.VoterName)
	})
	if res.Tied {
		for _, ord := range res.Winners {
			out.TiedWinners = append(out.TiedWinners, choiceAt(cycle, ord).CandidateName)
		}
	}
	if cycle.WinnerID != nil {
		for _, ch := range cycle.Choices {
			if ch.CandidateID == *cycle.WinnerID {
				name := ch.CandidateName
				out.WinnerName = &name
			}
		}
	}
	if cycle.TieBreakerVoterID != nil {
		if name, ok := names[*cycle.TieBreakerVoterID]; ok {
			out.TieBreakerName = &name
		}
	}
	return out, nil
}
