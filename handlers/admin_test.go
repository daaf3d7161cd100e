// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/lunchvote/auth"
	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/testutil"
)

func TestCreateCandidate(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAdminHandler(env.store, env.cfg)

	tests := []struct {
		name           string
		headers        map[string]string
		body           interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, c models.Candidate)
	}{
		{
			name:           "new candidate",
			headers:        adminHeaders(),
			body:           models.CreateCandidateRequest{Name: " Thai ", Website: "https://thai.example"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, c models.Candidate) {
				if c.Name != "Thai" || !c.Enabled || c.WinCount != 0 {
					t.Errorf("Unexpected candidate: %+v", c)
				}
				if !c.LastWinDate.Equal(models.FarPast) {
					t.Errorf("Expected never-won date, got %v", c.LastWinDate)
				}
			},
		},
		{
			name:           "imported history",
			headers:        adminHeaders(),
			body:           models.CreateCandidateRequest{Name: "Greek", WinCount: 3, LastWinDate: "2025-01-09"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, c models.Candidate) {
				if c.WinCount != 3 || c.LastWinDate.Format(models.DateLayout) != "2025-01-09" {
					t.Errorf("Unexpected candidate: %+v", c)
				}
			},
		},
		{
			name:           "duplicate name",
			headers:        adminHeaders(),
			body:           models.CreateCandidateRequest{Name: "Pizza"},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing name",
			headers:        adminHeaders(),
			body:           models.CreateCandidateRequest{Name: "  "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad date",
			headers:        adminHeaders(),
			body:           models.CreateCandidateRequest{Name: "Korean", LastWinDate: "09/01/2025"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative wins",
			headers:        adminHeaders(),
			body:           models.CreateCandidateRequest{Name: "Korean", WinCount: -1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no admin key",
			body:           models.CreateCandidateRequest{Name: "Korean"},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.CreateCandidate(w, testutil.MakeRequest("POST", "/admin/candidates", tt.body, tt.headers))
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.checkResponse != nil && w.Code == http.StatusCreated {
				var c models.Candidate
				testutil.AssertJSON(t, w, &c)
				tt.checkResponse(t, c)
			}
		})
	}
}

func TestSetCandidateEnabled(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAdminHandler(env.store, env.cfg)
	ids := testutil.CreateTestCandidates(t, env.store, "Thai")

	post := func(id string, enabled bool) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/admin/candidates/"+id+"/enabled", models.SetEnabledRequest{Enabled: enabled}, adminHeaders())
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.SetCandidateEnabled(w, req)
		return w
	}

	w := post(ids[0], false)
	testutil.AssertStatus(t, w, http.StatusOK)
	var c models.Candidate
	testutil.AssertJSON(t, w, &c)
	if c.Enabled {
		t.Error("Expected candidate to be disabled")
	}

	enabled, err := env.store.ListEnabledCandidates(context.Background())
	if err != nil {
		t.Fatalf("Failed to list candidates: %v", err)
	}
	for _, e := range enabled {
		if e.ID == ids[0] {
			t.Error("Disabled candidate still listed as enabled")
		}
	}

	testutil.AssertStatus(t, post("missing", true), http.StatusNotFound)
}

func TestAdjustWins(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAdminHandler(env.store, env.cfg)
	ids := testutil.CreateTestCandidates(t, env.store, "Thai")

	post := func(delta int) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/admin/candidates/"+ids[0]+"/wins", models.AdjustWinsRequest{Delta: delta}, adminHeaders())
		req.SetPathValue("id", ids[0])
		w := httptest.NewRecorder()
		handler.AdjustWins(w, req)
		return w
	}

	w := post(1)
	testutil.AssertStatus(t, w, http.StatusOK)
	var c models.Candidate
	testutil.AssertJSON(t, w, &c)
	if c.WinCount != 1 {
		t.Errorf("Expected 1 win, got %d", c.WinCount)
	}

	testutil.AssertStatus(t, post(-1), http.StatusOK)

	// Clamped at zero
	w = post(-1)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &c)
	if c.WinCount != 0 {
		t.Errorf("Expected win count clamped at 0, got %d", c.WinCount)
	}

	testutil.AssertStatus(t, post(5), http.StatusBadRequest)
}

func TestCreateVoter(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAdminHandler(env.store, env.cfg)

	w := httptest.NewRecorder()
	body := models.CreateVoterRequest{Name: "Joe Test", Email: "Joe Test <jtest@test.com>"}
	handler.CreateVoter(w, testutil.MakeRequest("POST", "/admin/voters", body, adminHeaders()))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreateVoterResponse
	testutil.AssertJSON(t, w, &resp)
	if err := auth.ValidateVoterToken(resp.Token); err != nil {
		t.Errorf("Expected a well-formed token, got %q", resp.Token)
	}

	v, err := env.store.GetVoterByToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("Token does not resolve: %v", err)
	}
	if v.ID != resp.VoterID || v.Email != "jtest@test.com" {
		t.Errorf("Unexpected voter: %+v", v)
	}

	t.Run("duplicate email", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := models.CreateVoterRequest{Name: "Joe Again", Email: "jtest@test.com"}
		handler.CreateVoter(w, testutil.MakeRequest("POST", "/admin/voters", body, adminHeaders()))
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := models.CreateVoterRequest{Name: "Nobody", Email: "not-an-address"}
		handler.CreateVoter(w, testutil.MakeRequest("POST", "/admin/voters", body, adminHeaders()))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestListAndDeleteVoters(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAdminHandler(env.store, env.cfg)

	w := httptest.NewRecorder()
	handler.ListVoters(w, testutil.MakeRequest("GET", "/admin/voters", nil, adminHeaders()))
	testutil.AssertStatus(t, w, http.StatusOK)
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty list, got %q", body)
	}

	alice := testutil.CreateTestVoter(t, env.store, "alice")
	bob := testutil.CreateTestVoter(t, env.store, "bob")
	cycle := env.open(t)
	testutil.SubmitTestBallot(t, env.store, cycle.ID, alice.ID, 5, 4, 3, 2, 1)

	w = httptest.NewRecorder()
	handler.ListVoters(w, testutil.MakeRequest("GET", "/admin/voters", nil, adminHeaders()))
	var voters []map[string]interface{}
	testutil.AssertJSON(t, w, &voters)
	if len(voters) != 2 {
		t.Fatalf("Expected 2 voters, got %d", len(voters))
	}
	if _, leaked := voters[0]["token"]; leaked {
		t.Error("Voter token must not be listed")
	}

	del := func(id string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("DELETE", "/admin/voters/"+id, nil, adminHeaders())
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.DeleteVoter(w, req)
		return w
	}

	testutil.AssertStatus(t, del(alice.ID), http.StatusConflict)
	testutil.AssertStatus(t, del(bob.ID), http.StatusNoContent)
	testutil.AssertStatus(t, del(bob.ID), http.StatusNotFound)
}
