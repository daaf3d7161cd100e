// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/lunchvote/auth"
	"github.com/danielhkuo/lunchvote/cliparse"
	"github.com/danielhkuo/lunchvote/db"
	"github.com/danielhkuo/lunchvote/models"
)

// TestAdminKey is the admin key in GetTestConfig.
const TestAdminKey = "test-admin-key"

// SetupTestDB opens a fresh SQLite database with the full schema under t.TempDir().
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.SQLite, filepath.Join(t.TempDir(), "lunchvote.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore is SetupTestDB wrapped in a Store.
func SetupTestStore(t *testing.T) *db.Store {
	t.Helper()
	return db.NewStore(SetupTestDB(t))
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  ":memory:",
		DatabaseType: db.SQLite,
		AdminKey:     TestAdminKey,
		IPHashSalt:   "test-ip-salt",
		Hostname:     "lunch.test",
	}
}

// CreateTestCandidates adds enabled candidates with the given names and returns their IDs.
func CreateTestCandidates(t *testing.T, store *db.Store, names ...string) []string {
	t.Helper()

	ids := make([]string, 0, len(names))
	for _, name := range names {
		c, err := store.CreateCandidate(context.Background(), models.Candidate{Name: name})
		if err != nil {
			t.Fatalf("Failed to create test candidate %q: %v", name, err)
		}
		ids = append(ids, c.ID)
	}
	return ids
}

// CreateTestVoter adds a voter and returns it with its token.
func CreateTestVoter(t *testing.T, store *db.Store, name string) models.Voter {
	t.Helper()

	token, err := auth.GenerateVoterToken()
	if err != nil {
		t.Fatalf("Failed to generate voter token: %v", err)
	}
	v, err := store.CreateVoter(context.Background(), models.Voter{
		Name:  name,
		Email: fmt.Sprintf("%s@test.com", name),
		Token: token,
	})
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
	return v
}

// CreateTestCycle opens a cycle dated date over the first five of candidateIDs.
func CreateTestCycle(t *testing.T, store *db.Store, date time.Time, candidateIDs []string) models.Cycle {
	t.Helper()

	c, err := store.CreateCycle(context.Background(), date, candidateIDs[:models.ChoicesPerCycle])
	if err != nil {
		t.Fatalf("Failed to create test cycle: %v", err)
	}
	return c
}

// SubmitTestBallot writes a complete ballot directly to the store.
func SubmitTestBallot(t *testing.T, store *db.Store, cycleID, voterID string, ratings ...int) {
	t.Helper()

	b := models.Ballot{CycleID: cycleID, VoterID: voterID}
	copy(b.Ratings[:], ratings)
	if _, err := store.ReplaceBallot(context.Background(), b, ""); err != nil {
		t.Fatalf("Failed to submit test ballot: %v", err)
	}
}

// FakeClock is a settable ports.Clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// OpenCall and CloseCall record notifier invocations.
type OpenCall struct {
	Cycle    models.Cycle
	Voters   []models.Voter
	Deadline time.Time
}

type CloseCall struct {
	Cycle      models.Cycle
	Winner     *models.Candidate
	TieBreaker *models.Voter
	Attendees  []models.Voter
}

// RecordingNotifier is a ports.Notifier that remembers every call. Err, when
// set, is returned from both methods after recording.
type RecordingNotifier struct {
	mu     sync.Mutex
	Opens  []OpenCall
	Closes []CloseCall
	Err    error
}

func (n *RecordingNotifier) AnnounceOpen(_ context.Context, cycle models.Cycle, voters []models.Voter, deadline time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Opens = append(n.Opens, OpenCall{Cycle: cycle, Voters: voters, Deadline: deadline})
	return n.Err
}

func (n *RecordingNotifier) AnnounceClose(_ context.Context, cycle models.Cycle, winner *models.Candidate, tieBreaker *models.Voter, attendees []models.Voter) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Closes = append(n.Closes, CloseCall{Cycle: cycle, Winner: winner, TieBreaker: tieBreaker, Attendees: attendees})
	return n.Err
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
