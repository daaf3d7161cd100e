// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/testutil"
)

func TestGetLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	handler := NewResultsHandler(env.store, env.sched, env.cfg)
	alice := testutil.CreateTestVoter(t, env.store, "alice")
	bob := testutil.CreateTestVoter(t, env.store, "bob")

	cycle := env.open(t)
	testutil.SubmitTestBallot(t, env.store, cycle.ID, alice.ID, 5, 1, 1, 1, 1)
	testutil.SubmitTestBallot(t, env.store, cycle.ID, bob.ID, 1, 5, 1, 1, 1)
	env.close(t)

	t.Run("everyone", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetLeaderboard(w, testutil.MakeRequest("GET", "/leaderboard", nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.LeaderboardResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Personal {
			t.Error("Expected shared leaderboard")
		}
		if len(resp.Entries) != len(lunchSpots) {
			t.Fatalf("Expected %d entries, got %d", len(lunchSpots), len(resp.Entries))
		}
		for i := 1; i < len(resp.Entries); i++ {
			if resp.Entries[i-1].Score < resp.Entries[i].Score {
				t.Errorf("Entries not sorted by score at %d", i)
			}
		}
		if resp.CycleCount != 1 || resp.BallotCount != 2 {
			t.Errorf("Expected 1 cycle and 2 ballots, got %d and %d", resp.CycleCount, resp.BallotCount)
		}
	})

	t.Run("personal", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetLeaderboard(w, testutil.MakeRequest("GET", "/leaderboard?voter="+alice.Token, nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.LeaderboardResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Personal {
			t.Error("Expected personal leaderboard")
		}
		if resp.Entries[0].CandidateID != cycle.Choices[0].CandidateID {
			t.Errorf("Expected alice's favourite %s first, got %s", cycle.Choices[0].CandidateName, resp.Entries[0].Name)
		}
	})

	t.Run("unknown voter", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetLeaderboard(w, testutil.MakeRequest("GET", "/leaderboard?voter=nobody", nil, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}

func TestListCycles(t *testing.T) {
	env := newTestEnv(t)
	handler := NewResultsHandler(env.store, env.sched, env.cfg)

	w := httptest.NewRecorder()
	handler.ListCycles(w, testutil.MakeRequest("GET", "/cycles", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty list, got %q", body)
	}

	alice := testutil.CreateTestVoter(t, env.store, "alice")
	cycle := env.open(t)
	testutil.SubmitTestBallot(t, env.store, cycle.ID, alice.ID, 1, 1, 5, 1, 1)
	env.close(t)

	w = httptest.NewRecorder()
	handler.ListCycles(w, testutil.MakeRequest("GET", "/cycles", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var cycles []models.CycleSummary
	testutil.AssertJSON(t, w, &cycles)
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}
	if cycles[0].Status != models.StatusClosed {
		t.Errorf("Expected closed cycle, got %s", cycles[0].Status)
	}
	if cycles[0].WinnerName == nil || *cycles[0].WinnerName != cycle.Choices[2].CandidateName {
		t.Errorf("Expected winner %s, got %v", cycle.Choices[2].CandidateName, cycles[0].WinnerName)
	}
}

func TestGetResults(t *testing.T) {
	env := newTestEnv(t)
	handler := NewResultsHandler(env.store, env.sched, env.cfg)
	alice := testutil.CreateTestVoter(t, env.store, "alice")
	bob := testutil.CreateTestVoter(t, env.store, "bob")

	cycle := env.open(t)
	testutil.SubmitTestBallot(t, env.store, cycle.ID, alice.ID, 5, 4, 1, 1, 1)
	testutil.SubmitTestBallot(t, env.store, cycle.ID, bob.ID, 4, 5, 1, 1, 1)

	get := func(id string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("GET", "/cycles/"+id+"/results", nil, nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.GetResults(w, req)
		return w
	}

	t.Run("sealed while open", func(t *testing.T) {
		testutil.AssertStatus(t, get(cycle.ID), http.StatusForbidden)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		testutil.AssertStatus(t, get("missing"), http.StatusNotFound)
	})

	t.Run("sealed while closing", func(t *testing.T) {
		if err := env.store.SealCycle(context.Background(), cycle.ID); err != nil {
			t.Fatalf("seal cycle: %v", err)
		}
		testutil.AssertStatus(t, get(cycle.ID), http.StatusForbidden)
	})

	env.close(t)

	t.Run("closed with tie", func(t *testing.T) {
		w := get(cycle.ID)
		testutil.AssertStatus(t, w, http.StatusOK)

		var res models.CycleResults
		testutil.AssertJSON(t, w, &res)
		if len(res.Ballots) != 2 {
			t.Errorf("Expected 2 ballots, got %d", len(res.Ballots))
		}
		if res.Ballots[0].VoterName != "alice" {
			t.Errorf("Expected ballots ordered by voter name, got %s first", res.Ballots[0].VoterName)
		}
		if len(res.TiedWinners) != 2 {
			t.Errorf("Expected 2 tied winners, got %v", res.TiedWinners)
		}
		if res.WinnerName == nil || res.TieBreakerName == nil {
			t.Fatalf("Expected stored winner and tie-breaker, got %+v", res)
		}
		if len(res.Pairwise) != models.ChoicesPerCycle {
			t.Errorf("Expected %dx%d pairwise matrix", models.ChoicesPerCycle, models.ChoicesPerCycle)
		}
	})
}
